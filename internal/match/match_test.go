package match

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"battleship/internal/game"
	"battleship/internal/stats"
)

type recorder struct {
	lucky     []game.Outcome
	bad       []game.Outcome
	sunk      []game.Outcome
	destroyed int
	stats     chan stats.Summary
}

func newRecorder() *recorder { return &recorder{stats: make(chan stats.Summary, 4)} }

func (r *recorder) LuckyStrike(o game.Outcome) { r.lucky = append(r.lucky, o) }
func (r *recorder) BadStrike(o game.Outcome)   { r.bad = append(r.bad, o) }
func (r *recorder) ShipSunk(o game.Outcome)    { r.sunk = append(r.sunk, o) }
func (r *recorder) FleetDestroyed()            { r.destroyed++ }
func (r *recorder) Statistics(s stats.Summary) { r.stats <- s }

func startMatch(t *testing.T, opts Options, obs Observer, seed int64, extra ...Option) *Match {
	t.Helper()
	options := append([]Option{
		WithPresentationDelay(5 * time.Millisecond),
		WithGridOptions(game.WithRand(rand.New(rand.NewSource(seed)))),
	}, extra...)
	m, err := New(opts, obs, options...)
	require.NoError(t, err)
	require.Equal(t, Created, m.State())
	require.NoError(t, m.Start())
	require.Equal(t, Active, m.State())
	return m
}

func TestNewWithoutObserverIsSetupError(t *testing.T) {
	_, err := New(DefaultOptions(), nil)
	var se *SetupError
	require.True(t, errors.As(err, &se))
}

func TestStartBuildsGridAndFleet(t *testing.T) {
	m := startMatch(t, DefaultOptions(), newRecorder(), 42)
	require.Equal(t, 10, m.Grid().Size())
	require.NotEmpty(t, m.Fleet().Ships())
	require.LessOrEqual(t, len(m.Fleet().Ships()), 10)
	require.Empty(t, m.Warnings())

	for _, s := range m.Fleet().Ships() {
		size, ok := m.Catalog().Size(s.Type)
		require.True(t, ok)
		require.Len(t, s.Cells(), size)
	}
	require.NoError(t, m.Start(), "start is idempotent")
}

func TestStrikeBeforeStart(t *testing.T) {
	m, err := New(DefaultOptions(), newRecorder())
	require.NoError(t, err)
	_, err = m.Strike(0, 0)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestRepeatStrikeIsIgnored(t *testing.T) {
	rec := newRecorder()
	m := startMatch(t, DefaultOptions(), rec, 1)

	first, err := m.Strike(3, 3)
	require.NoError(t, err)
	require.True(t, first.Recorded())
	status := m.Grid().Cell(3, 3).Status()

	second, err := m.Strike(3, 3)
	require.NoError(t, err)
	require.Equal(t, game.OutcomeIgnored, second.Kind)
	require.Equal(t, 1, m.Shots().TotalShots)
	require.Equal(t, status, m.Grid().Cell(3, 3).Status())
	require.Equal(t, 1, len(rec.lucky)+len(rec.bad))
}

func TestStrikeOutOfBounds(t *testing.T) {
	m := startMatch(t, DefaultOptions(), newRecorder(), 1)
	_, err := m.Strike(10, 10)
	require.ErrorIs(t, err, game.ErrOutOfBounds)
	require.Equal(t, 0, m.Shots().TotalShots)
}

func TestFullMatch(t *testing.T) {
	rec := newRecorder()
	closed := 0
	m := startMatch(t, DefaultOptions(), rec, 7, WithStatisticsClosed(func() { closed++ }))
	ships := len(m.Fleet().Ships())
	shipCells := m.Grid().Layout().ShipCells()

	require.ErrorIs(t, m.CloseStatistics(), ErrNotFinished)

	var last game.Outcome
	for c := range m.Grid().Cells() {
		out, err := m.Strike(c.Row, c.Col)
		require.NoError(t, err, "normal play never reaches a logic error")
		last = out
		if out.Kind == game.OutcomeFleetDestroyed {
			break
		}
	}
	require.Equal(t, game.OutcomeFleetDestroyed, last.Kind)
	require.Equal(t, Finished, m.State())
	require.Equal(t, 1, rec.destroyed)
	require.Len(t, rec.sunk, ships)
	require.Len(t, rec.lucky, shipCells)
	require.False(t, m.Fleet().Alive())

	for c := range m.Grid().Cells() {
		if c.HasShip() {
			require.Equal(t, game.Sunk, c.Status())
		}
	}

	_, err := m.Strike(0, 0)
	require.ErrorIs(t, err, ErrNotActive)

	summary, ok := m.Summary()
	require.True(t, ok)
	require.Equal(t, shipCells, summary.SuccessfulShots)
	require.Equal(t, len(rec.lucky)+len(rec.bad), summary.TotalShots)

	select {
	case got := <-rec.stats:
		require.Equal(t, summary, got)
	case <-time.After(2 * time.Second):
		t.Fatal("statistics were never delivered")
	}
	select {
	case <-rec.stats:
		t.Fatal("statistics delivered twice")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, m.CloseStatistics())
	require.NoError(t, m.CloseStatistics())
	require.Equal(t, 1, closed)

	view := m.View()
	revealed := 0
	for _, row := range view {
		for _, cv := range row {
			if cv.ShipID != "" {
				revealed++
			}
		}
	}
	require.Equal(t, shipCells, revealed, "ships are revealed after the match")
}

func TestDefaultFleetPlacesCompletely(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		m := startMatch(t, DefaultOptions(), newRecorder(), seed)
		require.Len(t, m.Fleet().Ships(), 10, "seed %d", seed)
		require.Equal(t, 20, m.Grid().Layout().ShipCells())
	}
}

func TestUnplaceableFleetStillPlays(t *testing.T) {
	huge := game.NewCatalog(game.CatalogEntry{Type: "dreadnought", Size: 11})
	rec := newRecorder()
	m := startMatch(t, Options{Size: 10, Ships: []game.ShipSpec{{Type: "dreadnought", ID: "X"}}}, rec, 1, WithCatalog(huge))
	require.Empty(t, m.Fleet().Ships())

	for c := range m.Grid().Cells() {
		out, err := m.Strike(c.Row, c.Col)
		require.NoError(t, err)
		require.Equal(t, game.OutcomeMiss, out.Kind)
	}
	require.Equal(t, Active, m.State())
	require.Equal(t, 0, rec.destroyed)
	require.Equal(t, stats.Summary{TotalShots: 100}, m.Shots())
}

func TestSmallSizeIsCorrected(t *testing.T) {
	m := startMatch(t, Options{Size: 5, Ships: game.DefaultFleet()}, newRecorder(), 1)
	require.Equal(t, 10, m.Grid().Size())
	require.Len(t, m.Warnings(), 1)
	var cfg *game.ConfigurationError
	require.True(t, errors.As(m.Warnings()[0], &cfg))
	require.Equal(t, "size", cfg.Field)
}

func TestDuplicateShipIDsDropped(t *testing.T) {
	opts := Options{Size: 10, Ships: []game.ShipSpec{
		{Type: game.Boat, ID: "A"},
		{Type: game.Cruiser, ID: "A"},
	}}
	m := startMatch(t, opts, newRecorder(), 1)
	require.Equal(t, []game.ShipSpec{{Type: game.Boat, ID: "A"}}, m.Options().Ships)
	require.Len(t, m.Warnings(), 1)
}

func TestDeveloperModeRevealsShips(t *testing.T) {
	opts := DefaultOptions()
	opts.DeveloperMode = true
	m := startMatch(t, opts, newRecorder(), 3)
	revealed := 0
	for _, row := range m.View() {
		for _, cv := range row {
			if cv.ShipID != "" {
				revealed++
			}
		}
	}
	require.Equal(t, m.Grid().Layout().ShipCells(), revealed)
}

func TestNewFromJSON(t *testing.T) {
	m, err := NewFromJSON([]byte(`{"size":"big","ships":[{"type":"boat","id":1}],"developerMode":true}`), ObserverFuncs{})
	require.NoError(t, err)
	require.Equal(t, Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "1"}}, DeveloperMode: true}, m.Options())
	require.Len(t, m.Warnings(), 1)
	require.NoError(t, m.Start())
	require.Len(t, m.Fleet().Ships(), 1)
}

func TestFleetPlacedInCatalogOrder(t *testing.T) {
	opts := Options{Size: 10, Ships: []game.ShipSpec{
		{Type: game.Boat, ID: "b1"},
		{Type: game.Battleship, ID: "B"},
		{Type: game.Boat, ID: "b2"},
		{Type: game.Cruiser, ID: "C"},
	}}
	m := startMatch(t, opts, newRecorder(), 4)
	var ids []game.ShipID
	for _, s := range m.Fleet().Ships() {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []game.ShipID{"B", "C", "b1", "b2"}, ids)
	require.Equal(t, opts.Ships, m.Options().Ships, "options keep their configured order")
}
