package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the few places sqlite and postgres SQL differ.
type Dialect string

// Supported dialects. The value doubles as the database/sql driver name.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect validates a configured driver name.
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(strings.ToLower(driver)) {
	case SQLite:
		return SQLite, nil
	case Postgres, "postgresql", "pq":
		return Postgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inList renders "column IN (...)" for ids and returns the matching args.
// Postgres binds the whole list as one array parameter.
func (d Dialect) inList(column string, ids []string) (string, []any) {
	if d == Postgres {
		return column + " = ANY(?)", []any{pq.Array(ids)}
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return column + " IN (" + marks + ")", args
}

func (d Dialect) ddl(stmt string) string {
	r := strings.NewReplacer("{{float}}", "REAL", "{{time}}", "TIMESTAMP")
	if d == Postgres {
		r = strings.NewReplacer("{{float}}", "DOUBLE PRECISION", "{{time}}", "TIMESTAMPTZ")
	}
	return r.Replace(stmt)
}
