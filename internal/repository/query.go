package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrStaleRow is returned by conditional updates when the row no longer
// matches the state the caller read.
var ErrStaleRow = errors.New("row changed concurrently")

// updatedAt scans the RETURNING updated_at of a conditional update, mapping
// "no row matched" to ErrStaleRow.
func updatedAt(row pgx.Row) (time.Time, error) {
	var at time.Time
	if err := row.Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrStaleRow
		}
		return time.Time{}, err
	}
	return at, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// whereBuilder accumulates positional SQL conditions.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(format string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf(format, fmt.Sprintf("$%d", len(w.args))))
}

// addFold matches column against value ignoring case.
func (w *whereBuilder) addFold(column, value string) {
	w.add("LOWER("+column+")=LOWER(%s)", strings.TrimSpace(value))
}

func (w *whereBuilder) addIn(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

func (w *whereBuilder) addSearch(term *string, columns ...string) {
	if term == nil || strings.TrimSpace(*term) == "" {
		return
	}
	w.args = append(w.args, "%"+likeEscaper.Replace(strings.ToLower(strings.TrimSpace(*term)))+"%")
	placeholder := fmt.Sprintf("$%d", len(w.args))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, placeholder)
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) paginate(page Page) string {
	page = page.Normalize()
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, page.Offset)
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}
