// Package match drives one single-player game from configuration to the
// end-of-match statistics.
package match

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"battleship/internal/game"
	"battleship/internal/stats"
)

// State is the match lifecycle stage.
type State uint8

const (
	Created State = iota
	FieldReady
	FleetPlaced
	Active
	Finished
)

var stateNames = [...]string{"created", "field_ready", "fleet_placed", "active", "finished"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match state %q", b)
}

// DefaultPresentationDelay separates fleet destruction from the
// statistics notification.
const DefaultPresentationDelay = 300 * time.Millisecond

// Match owns the grid, fleet and shot log of one game. It is not safe for
// concurrent use; hosts serialise calls.
type Match struct {
	opts     Options
	warnings []error

	catalog  game.Catalog
	log      zerolog.Logger
	observer Observer
	delay    time.Duration
	gridOpts []game.GridOption
	onClosed func()

	state State
	grid  *game.Grid
	fleet *game.Fleet
	shots stats.ShotLog

	summary stats.Summary
	closed  bool
}

type Option func(*Match)

func WithLogger(l zerolog.Logger) Option { return func(m *Match) { m.log = l } }

// WithCatalog replaces the default ship catalog.
func WithCatalog(c game.Catalog) Option { return func(m *Match) { m.catalog = c } }

func WithPresentationDelay(d time.Duration) Option { return func(m *Match) { m.delay = d } }

// WithGridOptions passes options through to game.NewGrid, e.g. game.WithRand.
func WithGridOptions(opts ...game.GridOption) Option {
	return func(m *Match) { m.gridOpts = append(m.gridOpts, opts...) }
}

// WithStatisticsClosed registers the hook fired by CloseStatistics.
func WithStatisticsClosed(fn func()) Option { return func(m *Match) { m.onClosed = fn } }

// New validates opts and returns a match in the Created state. Bad
// options are corrected and logged; a missing observer is a *SetupError.
func New(opts Options, observer Observer, options ...Option) (*Match, error) {
	if observer == nil {
		return nil, &SetupError{Reason: "an observer is required to attach the match to"}
	}
	m := &Match{
		catalog:  game.DefaultCatalog(),
		log:      zerolog.Nop(),
		observer: observer,
		delay:    DefaultPresentationDelay,
	}
	for _, o := range options {
		o(m)
	}
	m.opts, m.warnings = opts.Normalize(m.catalog, m.log)
	return m, nil
}

// NewFromJSON parses host JSON with ParseOptions and builds a match.
func NewFromJSON(data []byte, observer Observer, options ...Option) (*Match, error) {
	m, err := New(DefaultOptions(), observer, options...)
	if err != nil {
		return nil, err
	}
	m.opts, m.warnings = ParseOptions(data, m.catalog, m.log)
	return m, nil
}

func (m *Match) State() State          { return m.state }
func (m *Match) Options() Options      { return m.opts }
func (m *Match) Warnings() []error     { return m.warnings }
func (m *Match) Grid() *game.Grid      { return m.grid }
func (m *Match) Fleet() *game.Fleet    { return m.fleet }
func (m *Match) Catalog() game.Catalog { return m.catalog }

// Shots returns the shot log summary so far.
func (m *Match) Shots() stats.Summary { return m.shots.Summarize() }

// Start builds the grid, places the fleet and opens the match for
// strikes. Calling Start again is a no-op.
func (m *Match) Start() error {
	if m.state != Created {
		return nil
	}
	if err := m.buildGrid(); err != nil {
		return err
	}
	m.placeFleet()
	m.state = Active
	m.log.Debug().
		Int("size", m.grid.Size()).
		Int("ships", len(m.fleet.Ships())).
		Msg("match active")
	return nil
}

func (m *Match) buildGrid() error {
	opts := append([]game.GridOption{game.WithDeveloperMode(m.opts.DeveloperMode)}, m.gridOpts...)
	g, err := game.NewGrid(m.opts.Size, opts...)
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}
	m.grid = g
	m.state = FieldReady
	return nil
}

// placeFleet lays ships out in catalog order; configuration order breaks
// ties.
func (m *Match) placeFleet() {
	specs := slices.Clone(m.opts.Ships)
	slices.SortStableFunc(specs, func(a, b game.ShipSpec) int {
		return m.catalog.Rank(a.Type) - m.catalog.Rank(b.Type)
	})
	placements := make([]game.Placement, 0, len(specs))
	for _, spec := range specs {
		size, _ := m.catalog.Size(spec.Type)
		placements = append(placements, game.Placement{Spec: spec, Cells: m.grid.RandomFreeLine(size)})
	}
	m.fleet = game.NewFleet(placements, m.log)
	m.state = FleetPlaced
}

// Strike fires at (row, col). Repeat strikes on a resolved cell return an
// OutcomeIgnored and are not recorded.
func (m *Match) Strike(row, col int) (game.Outcome, error) {
	if m.state != Active {
		return game.Outcome{}, fmt.Errorf("strike in state %s: %w", m.state, ErrNotActive)
	}
	res, err := m.grid.ResolveStrike(row, col)
	if err != nil {
		return game.Outcome{}, err
	}
	out := game.Outcome{Row: row, Col: col}
	switch res.Kind {
	case game.StrikeIgnored:
		out.Kind = game.OutcomeIgnored
		return out, nil
	case game.StrikeMiss:
		out.Kind = game.OutcomeMiss
		m.shots.Record(false)
		m.observer.BadStrike(out)
		return out, nil
	}

	out.Kind = game.OutcomeHit
	out.ShipID = res.ShipID
	m.shots.Record(true)
	m.observer.LuckyStrike(out)
	sunk, destroyed, err := m.fleet.Hit(res.ShipID, row, col)
	if err != nil {
		return out, fmt.Errorf("strike (%d,%d): %w", row, col, err)
	}
	if sunk {
		out.Kind = game.OutcomeSunk
		m.observer.ShipSunk(out)
	}
	if destroyed {
		out.Kind = game.OutcomeFleetDestroyed
		m.finish()
	}
	return out, nil
}

// finish runs once, when the fleet is destroyed.
func (m *Match) finish() {
	m.state = Finished
	m.summary = m.shots.Summarize()
	m.observer.FleetDestroyed()
	summary := m.summary
	time.AfterFunc(m.delay, func() { m.observer.Statistics(summary) })
	m.log.Info().
		Int("total_shots", summary.TotalShots).
		Int("successful_shots", summary.SuccessfulShots).
		Int("accuracy_percent", summary.AccuracyPercent).
		Msg("fleet destroyed")
}

// Summary is the final statistics; ok is false until the match finishes.
func (m *Match) Summary() (stats.Summary, bool) {
	return m.summary, m.state == Finished
}

// CloseStatistics acknowledges the statistics display and fires the
// statistics-closed hook once. A new Match is needed to play again.
func (m *Match) CloseStatistics() error {
	if m.state != Finished {
		return fmt.Errorf("close statistics in state %s: %w", m.state, ErrNotFinished)
	}
	if m.closed {
		return nil
	}
	m.closed = true
	if m.onClosed != nil {
		m.onClosed()
	}
	return nil
}

// View snapshots the grid for rendering. Ship identities are revealed in
// developer mode and once the match is over.
func (m *Match) View() [][]game.CellView {
	if m.grid == nil {
		return nil
	}
	return m.grid.View(m.state == Finished)
}
