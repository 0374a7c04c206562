// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Tod is a time-of-day value backed by a Postgres TIME column. The date and
// zone parts are always zeroed.
type Tod struct{ time.Time }

// From builds a Tod from a time.Time, keeping only HH:mm:ss.
func From(t time.Time) Tod {
	return Tod{
		Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
	}
}

// Parse builds a Tod from "HH:mm" or "HH:mm:ss".
func Parse(s string) (Tod, error) {
	var tt Tod
	return tt, tt.parse(s)
}

// Scan accepts time.Time or string ("HH:MM[:SS]").
func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*t = From(x)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 { // "HH:MM"
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return err
	}
	t.Time = time.Date(0, 1, 1, tt.Hour(), tt.Minute(), tt.Second(), 0, time.UTC)
	return nil
}

// Value sends "HH:MM:SS" so the Postgres TIME type understands it.
func (t Tod) Value() (driver.Value, error) {
	if t.Time.IsZero() {
		return nil, nil
	}
	return t.Format("15:04:05"), nil
}

// On combines this time-of-day with a calendar date in the local zone.
func (t Tod) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

func (t Tod) String() string { return t.Format("15:04") }

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format("15:04"))
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}

// GormDataType must not be "time": GORM treats that DataType as a bare
// time.Time field and binds the zero value instead of going through the
// Valuer. "text" keeps Value/Scan as the serialization path everywhere.
func (Tod) GormDataType() string { return "text" }

// GormDBDataType keeps the native TIME column on Postgres.
func (Tod) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "time"
	}
	return "text"
}
