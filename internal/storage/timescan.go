package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLite has no native time type; depending on how a value was written and
// whether the column type is known, the driver hands back time.Time or text.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

type timeScan struct {
	t *time.Time
}

func (s timeScan) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case nil:
		*s.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported time value %T", src)
}

func (s timeScan) parse(v string) error {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t
			return nil
		}
	}
	return fmt.Errorf("parse time %q", v)
}

type nullTimeScan struct {
	t *sql.NullTime
}

func (s nullTimeScan) Scan(src interface{}) error {
	if src == nil {
		*s.t = sql.NullTime{}
		return nil
	}
	if err := (timeScan{t: &s.t.Time}).Scan(src); err != nil {
		return err
	}
	s.t.Valid = true
	return nil
}
