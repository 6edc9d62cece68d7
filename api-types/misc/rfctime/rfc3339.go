package rfctime

import (
	"bytes"
	"encoding/json"
	"time"
)

// Format string for date-time in RFC3339, with explicit numeric time-offset.
const RFC3339DateTimeFormat string = "2006-01-02T15:04:05.999-07:00"

// Format string for date-time in RFC3339, allowing Z as time-offset.
const RFC3339DateTimeFormatZ string = time.RFC3339Nano

// date-time in https://www.ietf.org/rfc/rfc3339.txt .
//
// This type is useful to interchange timestamps via network/file.
type RFC3339 time.Time

func (t RFC3339) Time() time.Time {
	return time.Time(t)
}

func (t RFC3339) Equal(other RFC3339) bool {
	return t.Time().Equal(other.Time())
}

// return true if this and other `.Time()` are equal.
// If other is nil, also return true.
func (t RFC3339) Equiv(other interface{ Time() time.Time }) bool {
	return other == nil || t.Time().Equal(other.Time())
}

// get string expression, formatted by RFC3339DateTimeFormat.
func (t RFC3339) String() string {
	return time.Time(t).Format(RFC3339DateTimeFormat)
}

// Parse string as RFC3339 date-time.
func ParseRFC3339DateTime(s string) (RFC3339, error) {
	t, err := time.Parse(RFC3339DateTimeFormatZ, s)
	if err != nil {
		return *new(RFC3339), err
	}
	return RFC3339(t), nil
}

func (t RFC3339) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *RFC3339) UnmarshalJSON(b []byte) error {
	s := new(string)
	if err := json.Unmarshal(bytes.TrimSpace(b), s); err != nil {
		return err
	}
	parsed, err := ParseRFC3339DateTime(*s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
