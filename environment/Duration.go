package environment

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that marshals to and from JSON as a
// string such as "1.5s"
type Duration time.Duration

// MarshalJSON implements the json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements the json.Unmarshaler interface. Plain
// numbers are read as nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil

	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("unmarshalJSON: %v", err)
		}
		*d = Duration(parsed)
		return nil

	default:
		return fmt.Errorf("unmarshalJSON: invalid duration %v", v)
	}
}

// String returns the duration formatted like time.Duration
func (d Duration) String() string {
	return time.Duration(d).String()
}
