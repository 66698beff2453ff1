package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/stats"
)

func cmdPlay(cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	size := fs.Int("size", cfg.GridSize, "grid size [10..100]")
	dev := fs.Bool("dev", cfg.DeveloperMode, "show ships while playing")
	seed := fs.Int64("seed", 0, "placement seed (0 = random)")
	optionsPath := fs.String("options", "", "match options JSON file (overrides --size and --dev)")
	_ = fs.Parse(args)

	term := newTerminal(os.Stdout)
	mopts := []match.Option{
		match.WithLogger(log),
		match.WithPresentationDelay(cfg.PresentationDelay),
		match.WithGridOptions(seedOption(*seed)...),
	}
	var (
		m   *match.Match
		err error
	)
	if *optionsPath != "" {
		data, rerr := os.ReadFile(*optionsPath)
		if rerr != nil {
			return rerr
		}
		m, err = match.NewFromJSON(data, term, mopts...)
	} else {
		opts := match.DefaultOptions()
		opts.Size, opts.DeveloperMode = *size, *dev
		m, err = match.New(opts, term, mopts...)
	}
	if err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		return err
	}
	return play(os.Stdin, term, m)
}

// terminal prints match notifications as text.
type terminal struct {
	out   io.Writer
	stats chan stats.Summary
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out, stats: make(chan stats.Summary, 1)}
}

func (t *terminal) LuckyStrike(o game.Outcome) { fmt.Fprintf(t.out, "hit at %d %d\n", o.Row, o.Col) }
func (t *terminal) BadStrike(o game.Outcome)   { fmt.Fprintf(t.out, "miss at %d %d\n", o.Row, o.Col) }
func (t *terminal) ShipSunk(o game.Outcome)    { fmt.Fprintf(t.out, "ship %s sunk\n", o.ShipID) }
func (t *terminal) FleetDestroyed()            { fmt.Fprintln(t.out, "fleet destroyed!") }
func (t *terminal) Statistics(s stats.Summary) { t.stats <- s }

// play reads "row col" lines until the fleet is destroyed or input ends.
func play(in io.Reader, t *terminal, m *match.Match) error {
	sc := bufio.NewScanner(in)
	render(t.out, m.View())
	for m.State() != match.Finished {
		fmt.Fprint(t.out, "strike> ")
		if !sc.Scan() {
			fmt.Fprintln(t.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "q" || line == "quit" {
			return nil
		}
		var row, col int
		if _, err := fmt.Sscanf(line, "%d %d", &row, &col); err != nil {
			fmt.Fprintln(t.out, "enter a strike as: row col")
			continue
		}
		out, err := m.Strike(row, col)
		switch {
		case errors.Is(err, game.ErrOutOfBounds):
			fmt.Fprintf(t.out, "(%d,%d) is off the grid\n", row, col)
			continue
		case err != nil:
			return err
		}
		if out.Kind == game.OutcomeIgnored {
			fmt.Fprintln(t.out, "already struck")
			continue
		}
		render(t.out, m.View())
	}

	s := <-t.stats
	fmt.Fprintf(t.out, "shots: %d  hits: %d  accuracy: %d%%\n", s.TotalShots, s.SuccessfulShots, s.AccuracyPercent)
	return m.CloseStatistics()
}

func render(w io.Writer, view [][]game.CellView) {
	if len(view) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("    ")
	for c := range view[0] {
		fmt.Fprintf(&b, "%d", c%10)
	}
	b.WriteByte('\n')
	for r, row := range view {
		fmt.Fprintf(&b, "%3d ", r)
		for _, cv := range row {
			b.WriteByte(cellGlyph(cv))
		}
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())
}

func cellGlyph(cv game.CellView) byte {
	switch cv.Status {
	case game.Miss:
		return 'o'
	case game.Hit:
		return 'x'
	case game.Sunk:
		return '#'
	}
	if cv.ShipID != "" {
		return 'S'
	}
	return '.'
}
