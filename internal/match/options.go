package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"battleship/internal/game"
)

// Options configures one match.
type Options struct {
	Size          int             `json:"size"`
	Ships         []game.ShipSpec `json:"ships"`
	DeveloperMode bool            `json:"developerMode"`
}

// DefaultOptions is a 10x10 grid with the default fleet.
func DefaultOptions() Options {
	return Options{Size: game.MinSize, Ships: game.DefaultFleet()}
}

// ParseOptions decodes host-supplied JSON leniently. Anything that cannot
// be used is replaced by a default and reported as a *game.ConfigurationError;
// the returned Options are always usable.
func ParseOptions(data []byte, catalog game.Catalog, log zerolog.Logger) (Options, []error) {
	v := &validator{log: log}
	var raw struct {
		Size          json.RawMessage `json:"size"`
		Ships         json.RawMessage `json:"ships"`
		DeveloperMode json.RawMessage `json:"developerMode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		v.warn("options", nil, "not a JSON object, defaults are used instead")
	}

	var opts Options
	opts.Size = v.rawSize(raw.Size)
	opts.Ships = v.rawShips(raw.Ships, catalog)
	opts.DeveloperMode = v.rawDeveloperMode(raw.DeveloperMode)
	return opts, v.warnings
}

// Normalize applies the same corrections as ParseOptions to typed options.
func (o Options) Normalize(catalog game.Catalog, log zerolog.Logger) (Options, []error) {
	v := &validator{log: log}
	out := Options{DeveloperMode: o.DeveloperMode}
	out.Size = v.size(o.Size)
	out.Ships = v.ships(o.Ships, catalog)
	return out, v.warnings
}

type validator struct {
	log      zerolog.Logger
	warnings []error
}

func (v *validator) warn(field string, value any, reason string) {
	err := &game.ConfigurationError{Field: field, Value: value, Reason: reason}
	v.warnings = append(v.warnings, err)
	ev := v.log.Warn().Str("field", field)
	if value != nil {
		ev = ev.Interface("value", value)
	}
	ev.Msg(reason)
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// rawDeveloperMode takes booleans as they are. Other values are coerced by
// truthiness: null, 0 and "" are false, anything else is true.
func (v *validator) rawDeveloperMode(raw json.RawMessage) bool {
	text := string(bytes.TrimSpace(raw))
	switch text {
	case "", "false":
		return false
	case "true":
		return true
	}
	on := true
	switch firstByte(raw) {
	case 'n':
		on = false
	case '"':
		on = text != `""`
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			on = f != 0
		}
	}
	v.warn("developerMode", text, fmt.Sprintf("field developerMode should be a boolean, %t is used instead", on))
	return on
}

func (v *validator) rawSize(raw json.RawMessage) int {
	var f float64
	if b := firstByte(raw); b == 0 || b == '"' || json.Unmarshal(raw, &f) != nil || f != math.Trunc(f) {
		v.warn("size", string(raw), "field size should be a number, default size is used instead")
		return game.MinSize
	}
	switch {
	case f < game.MinSize:
		v.tooSmall(f)
		return game.MinSize
	case f > game.MaxSize:
		v.tooLarge(f)
		return game.MaxSize
	}
	return int(f)
}

// size keeps the grid within [MinSize, MaxSize]: too small falls back to
// the minimum, too large is capped at the maximum.
func (v *validator) size(n int) int {
	switch {
	case n < game.MinSize:
		v.tooSmall(n)
		return game.MinSize
	case n > game.MaxSize:
		v.tooLarge(n)
		return game.MaxSize
	}
	return n
}

func (v *validator) tooSmall(value any) {
	v.warn("size", value, fmt.Sprintf("field size should be greater or equal to %d, default size is used instead", game.MinSize))
}

func (v *validator) tooLarge(value any) {
	v.warn("size", value, fmt.Sprintf("field size should be less or equal to %d, maximum size is used instead", game.MaxSize))
}

type rawShip struct {
	ID   json.RawMessage `json:"id"`
	Type json.RawMessage `json:"type"`
}

func (v *validator) rawShips(raw json.RawMessage, catalog game.Catalog) []game.ShipSpec {
	var entries []json.RawMessage
	if firstByte(raw) != '[' || json.Unmarshal(raw, &entries) != nil {
		v.warn("ships", nil, "ships is not a list, default ships configuration is used instead")
		return game.DefaultFleet()
	}
	seen := make(map[game.ShipID]bool, len(entries))
	var out []game.ShipSpec
	for i, e := range entries {
		field := fmt.Sprintf("ships[%d]", i)
		var rs rawShip
		if firstByte(e) != '{' || json.Unmarshal(e, &rs) != nil {
			v.warn(field, nil, "ship should be described with an object containing type and id")
			continue
		}
		id, ok := v.rawID(field, rs.ID)
		if !ok {
			continue
		}
		if seen[id] {
			v.warn(field+".id", string(id), "ship with duplicate id was skipped")
			continue
		}
		seen[id] = true
		var t string
		if firstByte(rs.Type) != '"' || json.Unmarshal(rs.Type, &t) != nil || t == "" {
			v.warn(field+".type", nil, "ship without type was skipped")
			continue
		}
		if _, known := catalog.Size(game.ShipType(t)); !known {
			v.warn(field+".type", t, "ship of unsupported type was skipped")
			continue
		}
		out = append(out, game.ShipSpec{Type: game.ShipType(t), ID: id})
	}
	if len(out) == 0 {
		v.warn("ships", nil, "ships contains no usable entries, default ships configuration is used instead")
		return game.DefaultFleet()
	}
	return out
}

// rawID accepts non-empty strings and non-zero numbers.
func (v *validator) rawID(field string, raw json.RawMessage) (game.ShipID, bool) {
	switch b := firstByte(raw); {
	case b == 0 || string(bytes.TrimSpace(raw)) == "null" || string(bytes.TrimSpace(raw)) == "false":
		v.warn(field+".id", nil, "ship without id was skipped")
		return "", false
	case b == '"' || b == '-' || (b >= '0' && b <= '9'):
	default:
		v.warn(field+".id", string(raw), "ship with incorrect id was skipped")
		return "", false
	}
	var id game.ShipID
	if err := json.Unmarshal(raw, &id); err != nil {
		v.warn(field+".id", string(raw), "ship with incorrect id was skipped")
		return "", false
	}
	if id == "" || id == "0" {
		v.warn(field+".id", nil, "ship without id was skipped")
		return "", false
	}
	return id, true
}

func (v *validator) ships(specs []game.ShipSpec, catalog game.Catalog) []game.ShipSpec {
	seen := make(map[game.ShipID]bool, len(specs))
	var out []game.ShipSpec
	for i, s := range specs {
		field := fmt.Sprintf("ships[%d]", i)
		if s.ID == "" || s.ID == "0" {
			v.warn(field+".id", nil, "ship without id was skipped")
			continue
		}
		if seen[s.ID] {
			v.warn(field+".id", string(s.ID), "ship with duplicate id was skipped")
			continue
		}
		seen[s.ID] = true
		if s.Type == "" {
			v.warn(field+".type", nil, "ship without type was skipped")
			continue
		}
		if _, known := catalog.Size(s.Type); !known {
			v.warn(field+".type", string(s.Type), "ship of unsupported type was skipped")
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		v.warn("ships", nil, "ships contains no usable entries, default ships configuration is used instead")
		return game.DefaultFleet()
	}
	return out
}
