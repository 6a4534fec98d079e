package models

import (
	"encoding/json"
	"strconv"
)

// Coordinate is a latitude, longitude or accuracy value as received on the
// wire. Mobile clients send coordinates either as JSON numbers or as numeric
// strings, and outbound broadcasts must carry the value exactly as it arrived,
// so the raw bytes are kept alongside the parsed float.
type Coordinate struct {
	raw     json.RawMessage
	value   float64
	present bool
}

// NewCoordinate builds a Coordinate from a plain float value.
func NewCoordinate(v float64) Coordinate {
	return Coordinate{value: v, present: true}
}

func (c Coordinate) Float64() float64 {
	return c.value
}

// IsZero reports whether no value was supplied. Used by json omitzero.
func (c Coordinate) IsZero() bool {
	return !c.present
}

// Missing reports whether the coordinate should be treated as absent by the
// protocol. The clients use 0 as the unset value on the wire, so an exact 0
// counts as missing; equator and prime-meridian positions are rejected with it.
func (c Coordinate) Missing() bool {
	return !c.present || c.value == 0
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.present {
		return []byte("null"), nil
	}
	if c.raw != nil {
		return c.raw, nil
	}
	return json.Marshal(c.value)
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Coordinate{}
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*c = Coordinate{raw: append(json.RawMessage(nil), data...), value: num, present: true}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return ErrInvalidEvent
	}
	if str == "" {
		*c = Coordinate{}
		return nil
	}

	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return ErrInvalidEvent
	}

	*c = Coordinate{raw: append(json.RawMessage(nil), data...), value: num, present: true}
	return nil
}
