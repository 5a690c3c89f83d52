package sqlstore

import (
	"fmt"
	"strconv"
	"time"
)

// dbTime lee instantes guardados como TIMESTAMPTZ (PostgreSQL) o milisegundos Unix (SQLite).
type dbTime struct {
	time.Time
}

// Scan implementa sql.Scanner. NULL deja el valor en cero.
func (t *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = x.UTC()
	case int64:
		t.Time = time.UnixMilli(x).UTC()
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	default:
		return fmt.Errorf("dbTime: tipo no soportado %T", v)
	}
	return nil
}

func (t *dbTime) parse(s string) error {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("dbTime: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

// ptr devuelve nil para el instante cero.
func (t dbTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
