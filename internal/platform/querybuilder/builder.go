package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects how bind parameters are rendered.
type Format int

const (
	// Dollar renders $1, $2 ... as Postgres expects.
	Dollar Format = iota
	// Question renders ? for SQLite.
	Question
)

// FormatForDriver maps a database/sql driver name to its placeholder format.
func FormatForDriver(driver string) Format {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return Question
	default:
		return Dollar
	}
}

type binder struct {
	format Format
	args   []any
}

func (b *binder) bind(value any) string {
	b.args = append(b.args, value)
	if b.format == Question {
		return "?"
	}
	return "$" + strconv.Itoa(len(b.args))
}

// Condition is one AND-ed term of a WHERE clause.
type Condition struct {
	column  string
	value   any
	literal bool
}

func Eq(column string, value any) Condition {
	return Condition{column: column, value: value}
}

// EqLiteral inlines value as a quoted literal instead of binding it. Poolers in transaction
// mode can drop prepared statements; a literal query survives that.
func EqLiteral(column, value string) Condition {
	return Condition{column: column, value: value, literal: true}
}

func (c Condition) write(buf *strings.Builder, b *binder) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	if c.literal {
		buf.WriteString(quoteLiteral(fmt.Sprint(c.value)))
		return
	}
	buf.WriteString(b.bind(c.value))
}

type SelectBuilder struct {
	format  Format
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) Format(format Format) *SelectBuilder {
	b.format = format
	return b
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	bound := &binder{format: b.format}
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	for i, c := range b.where {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		c.write(&buf, bound)
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return buf.String(), bound.args, nil
}

type InsertBuilder struct {
	format     Format
	table      string
	columns    []string
	values     []any
	conflict   []string
	updateCols []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Format(format Format) *InsertBuilder {
	b.format = format
	return b
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append([]any(nil), values...)
	return b
}

// OnConflictUpdate overwrites columns from the excluded row when keys collide. Postgres and
// SQLite share this syntax.
func (b *InsertBuilder) OnConflictUpdate(keys []string, columns ...string) *InsertBuilder {
	b.conflict = append([]string(nil), keys...)
	b.updateCols = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.values) != len(b.columns) {
		return "", nil, fmt.Errorf("insert into %s has %d values for %d columns", b.table, len(b.values), len(b.columns))
	}

	bound := &binder{format: b.format, args: make([]any, 0, len(b.values))}
	placeholders := make([]string, len(b.values))
	for i, value := range b.values {
		placeholders[i] = bound.bind(value)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.columns, ", "), strings.Join(placeholders, ", "))

	if len(b.conflict) > 0 {
		fmt.Fprintf(&buf, " ON CONFLICT (%s)", strings.Join(b.conflict, ", "))
		if len(b.updateCols) == 0 {
			buf.WriteString(" DO NOTHING")
		} else {
			sets := make([]string, len(b.updateCols))
			for i, col := range b.updateCols {
				sets[i] = col + " = excluded." + col
			}
			buf.WriteString(" DO UPDATE SET ")
			buf.WriteString(strings.Join(sets, ", "))
		}
	}
	return buf.String(), bound.args, nil
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
