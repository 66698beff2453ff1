package match

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"battleship/internal/game"
)

func TestParseOptions(t *testing.T) {
	catalog := game.DefaultCatalog()
	cases := []struct {
		name     string
		in       string
		want     Options
		warnings int
	}{
		{
			name: "valid",
			in:   `{"size":12,"ships":[{"type":"cruiser","id":"B"},{"type":"boat","id":2}],"developerMode":true}`,
			want: Options{Size: 12, Ships: []game.ShipSpec{{Type: game.Cruiser, ID: "B"}, {Type: game.Boat, ID: "2"}}, DeveloperMode: true},
		},
		{
			name:     "size below minimum",
			in:       `{"size":5,"ships":[{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "size above maximum is capped",
			in:       `{"size":250,"ships":[{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 100, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "size not a number",
			in:       `{"size":"12","ships":[{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "fractional size",
			in:       `{"size":12.5,"ships":[{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "duplicate id dropped",
			in:       `{"size":10,"ships":[{"type":"boat","id":"A"},{"type":"cruiser","id":"A"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "duplicate id emptying the list falls back to default fleet",
			in:       `{"size":10,"ships":[{"type":"submarine","id":"A"},{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 10, Ships: game.DefaultFleet()},
			warnings: 3,
		},
		{
			name:     "numerically equal ids are duplicates",
			in:       `{"size":10,"ships":[{"type":"boat","id":1},{"type":"cruiser","id":1.0},{"type":"boat","id":"1"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "1"}}},
			warnings: 2,
		},
		{
			name:     "zero written as a float is missing",
			in:       `{"size":10,"ships":[{"type":"boat","id":0.0},{"type":"boat","id":-0},{"type":"boat","id":"A"}]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 2,
		},
		{
			name:     "developerMode coerced from a string",
			in:       `{"size":10,"ships":[{"type":"boat","id":"A"}],"developerMode":"yes"}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}, DeveloperMode: true},
			warnings: 1,
		},
		{
			name:     "developerMode coerced from zero",
			in:       `{"size":10,"ships":[{"type":"boat","id":"A"}],"developerMode":0}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "developerMode coerced from a number",
			in:       `{"size":10,"ships":[{"type":"boat","id":"A"}],"developerMode":1}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}, DeveloperMode: true},
			warnings: 1,
		},
		{
			name:     "developerMode null is false",
			in:       `{"size":10,"ships":[{"type":"boat","id":"A"}],"developerMode":null}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}},
			warnings: 1,
		},
		{
			name:     "ships not a list",
			in:       `{"size":10,"ships":{"type":"boat","id":"A"}}`,
			want:     Options{Size: 10, Ships: game.DefaultFleet()},
			warnings: 1,
		},
		{
			name: "bad entries skipped individually",
			in: `{"size":10,"ships":[
				"boat",
				{"type":"boat"},
				{"type":"boat","id":""},
				{"type":"boat","id":0},
				{"type":"boat","id":true},
				{"type":"boat","id":{"x":1}},
				{"id":"K"},
				{"type":"submarine","id":"L"},
				{"type":"destroyer","id":"M"}
			]}`,
			want:     Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Destroyer, ID: "M"}}},
			warnings: 8,
		},
		{
			name:     "not an object",
			in:       `[1,2,3]`,
			want:     Options{Size: 10, Ships: game.DefaultFleet()},
			warnings: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, warnings := ParseOptions([]byte(tc.in), catalog, zerolog.Nop())
			require.Equal(t, tc.want, got)
			require.Len(t, warnings, tc.warnings)
			for _, w := range warnings {
				var cfg *game.ConfigurationError
				require.True(t, errors.As(w, &cfg))
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	catalog := game.DefaultCatalog()

	got, warnings := Options{Size: 150, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}, {Type: "", ID: "B"}, {Type: game.Boat}}}.Normalize(catalog, zerolog.Nop())
	require.Equal(t, Options{Size: 100, Ships: []game.ShipSpec{{Type: game.Boat, ID: "A"}}}, got)
	require.Len(t, warnings, 3)

	got, warnings = Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Boat, ID: "0"}, {Type: game.Boat, ID: "A"}}}.Normalize(catalog, zerolog.Nop())
	require.Equal(t, []game.ShipSpec{{Type: game.Boat, ID: "A"}}, got.Ships)
	require.Len(t, warnings, 1, "id 0 counts as missing")

	got, warnings = Options{Size: 10}.Normalize(catalog, zerolog.Nop())
	require.Equal(t, game.DefaultFleet(), got.Ships)
	require.Len(t, warnings, 1)

	got, warnings = DefaultOptions().Normalize(catalog, zerolog.Nop())
	require.Equal(t, DefaultOptions(), got)
	require.Empty(t, warnings)
}
