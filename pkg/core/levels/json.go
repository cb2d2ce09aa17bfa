package levels

import (
	"math"

	json "github.com/goccy/go-json"
)

// levelJSON is the wire form of Level. Max is null for the unbounded top level.
type levelJSON struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Min        float64  `json:"min"`
	Max        *float64 `json:"max"`
	Badge      string   `json:"badge"`
	StyleClass string   `json:"styleClass"`
}

// MarshalJSON encodes an unbounded Max as null
func (l Level) MarshalJSON() ([]byte, error) {
	out := levelJSON{
		Slug:       l.Slug,
		Name:       l.Name,
		Min:        l.Min,
		Badge:      l.Badge,
		StyleClass: l.StyleClass,
	}
	if !l.IsTop() {
		max := l.Max
		out.Max = &max
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null or missing Max as unbounded
func (l *Level) UnmarshalJSON(data []byte) error {
	var in levelJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*l = Level{
		Slug:       in.Slug,
		Name:       in.Name,
		Min:        in.Min,
		Max:        math.Inf(1),
		Badge:      in.Badge,
		StyleClass: in.StyleClass,
	}
	if in.Max != nil {
		l.Max = *in.Max
	}
	return nil
}
