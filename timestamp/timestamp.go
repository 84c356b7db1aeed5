package timestamp

import (
	"fmt"
	"time"
)

const displayTimestamp = "2006-01-02 15:04:05"

const (
	day   = time.Hour * 24
	week  = day * 7
	month = week * 4
	year  = month * 12
)

// Timestamp is a point in time stored as unix seconds in the database
type Timestamp time.Time

func FromUnix(sec int64) Timestamp {
	return Timestamp(time.Unix(sec, 0))
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) String() string {
	if t.Time().IsZero() {
		return ""
	}

	return t.Time().Format(displayTimestamp)
}

func (t *Timestamp) Scan(data any) (err error) {
	switch v := data.(type) {
	case nil:
	case int64:
		*t = FromUnix(v)
	case int32:
		*t = FromUnix(int64(v))
	case time.Time:
		*t = Timestamp(v)
	default:
		err = fmt.Errorf("timestamp incorrect type %T", data)
	}

	return
}

func (t Timestamp) MarshalText() ([]byte, error) {
	if t.Time().IsZero() {
		return []byte{}, nil
	}

	return []byte(t.Time().UTC().Format(time.RFC3339)), nil
}

// Elapsed describes the time since t in its two largest units
func (t Timestamp) Elapsed() string {
	return t.elapsedSince(time.Now())
}

func (t Timestamp) elapsedSince(now time.Time) string {
	if t.Time().IsZero() {
		return "~"
	}

	e := now.Sub(t.Time())

	type u struct {
		d time.Duration
		s string
	}

	str := func(un u, e time.Duration) string {
		if e-un.d < un.d {
			return un.s
		}
		return un.s + "s"
	}

	units := []u{
		{year, "Year"},
		{month, "Month"},
		{week, "Week"},
		{day, "Day"},
		{time.Hour, "Hour"},
		{time.Minute, "Minute"},
		{time.Second, "Second"},
	}

	var unit int
	for i := 0; i < len(units); i++ {
		unit = i
		if e >= units[i].d {
			break
		}
	}

	elapsed := fmt.Sprintf("%d %s", e/units[unit].d, str(units[unit], e))

	unit++
	if unit < len(units) {
		mod := e % units[unit-1].d / units[unit].d
		if mod > 0 {
			elapsed += fmt.Sprintf(" %d %s", mod, str(units[unit], mod*units[unit].d))
		}
	}

	return elapsed + " ago"
}
