package model

import (
	"fmt"
	"time"
)

// LocalTime marshals as "YYYY-MM-DD HH:MM:SS" in the server's local zone.
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Local().Format(timeFormat))
	return []byte(formatted), nil
}
