package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Wire layout shared with the web client: ISO-8601 with the zone designator
// stripped. Values are produced and consumed as naive local time; no zone
// conversion is ever re-applied.
const localTimeLayout = "2006-01-02T15:04:05"

var localTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	localTimeLayout,
	"2006-01-02 15:04:05",
	// Offset-suffixed forms written by the sqlite driver.
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
}

// LocalTime is a timestamp exchanged in the naive-local convention.
type LocalTime struct {
	tm time.Time
}

func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{tm: t.Truncate(time.Second)}
}

func (lt LocalTime) Time() time.Time { return lt.tm }

func (lt LocalTime) String() string { return lt.tm.Format(localTimeLayout) }

// ParseLocalTime decodes a naive-local timestamp. A trailing "Z" left over
// from upstream serializers is tolerated and ignored.
func ParseLocalTime(s string) (LocalTime, error) {
	clean := strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, clean, time.Local); err == nil {
			return LocalTime{tm: t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("invalid timestamp %q: want %s", s, localTimeLayout)
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + lt.tm.Format(localTimeLayout) + `"`), nil
}

func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("invalid timestamp: empty")
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}

func (lt LocalTime) Value() (driver.Value, error) {
	return lt.tm, nil
}

func (lt *LocalTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*lt = LocalTime{}
		return nil
	case time.Time:
		*lt = LocalTime{tm: v}
		return nil
	case string:
		parsed, err := ParseLocalTime(v)
		if err != nil {
			return err
		}
		*lt = parsed
		return nil
	case []byte:
		parsed, err := ParseLocalTime(string(v))
		if err != nil {
			return err
		}
		*lt = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalTime", value)
	}
}

// GormDataType keeps AutoMigrate from guessing at the column type.
func (LocalTime) GormDataType() string { return "timestamp" }
