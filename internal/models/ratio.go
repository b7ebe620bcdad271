package models

import (
	"encoding/json"
	"strconv"
)

// Ratio is a derived value that may be undefined, such as a margin over zero
// sales. The zero value is undefined and encodes as JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

func NewRatio(v float64) Ratio {
	return Ratio{Value: v, Defined: true}
}

func (r Ratio) Get() (float64, bool) {
	return r.Value, r.Defined
}

// Or returns the value, or fallback when undefined.
func (r Ratio) Or(fallback float64) float64 {
	if !r.Defined {
		return fallback
	}
	return r.Value
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NewRatio(v)
	return nil
}

func (r Ratio) String() string {
	if !r.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}
