package query

import (
	"fmt"
	"reflect"
	"strings"
)

type condition struct {
	clause string
	args   []any
}

// SortField is one ORDER BY column, named by view property and resolved
// through the projection. Descending false sorts ASC.
type SortField struct {
	Field      string
	Descending bool
}

// Builder accumulates conditions and ordering, then renders SELECT
// variants with sequential $n parameters.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sortFields  []SortField
	defaultSort []SortField
}

// NewBuilder starts a builder over projection. defaultSort applies when
// no explicit ordering is set.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		conditions:  make([]condition, 0),
		defaultSort: defaultSort,
	}
}

// ParseSortFields reads a comma-separated sort expression; a "-" prefix
// marks a field descending ("title,-gradedAt"). Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: field, Descending: desc})
	}

	return fields
}

// Build renders the full SELECT with conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(), b.projection.Table(), where, b.renderOrderBy(),
	)
	return sql, args
}

// BuildCount renders a COUNT(*) over the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.renderWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.Table(), where), args
}

// BuildPage renders the SELECT with LIMIT/OFFSET for the given page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(), b.projection.Table(), where, b.renderOrderBy(),
		pageSize, (page-1)*pageSize,
	)
	return sql, args
}

// BuildSingle renders a lookup by the given id field, ignoring any
// accumulated conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(), b.projection.Table(), b.projection.Column(idField),
	)
	return sql, []any{id}
}

// BuildSingleOrNull renders the conditioned SELECT capped at one row.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s LIMIT 1",
		b.projection.Columns(), b.projection.Table(), where,
	)
	return sql, args
}

// OrderByFields replaces the default sort with fields.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sortFields = fields
	return b
}

// WhereContains adds a substring ILIKE match. Nil or empty values are
// skipped so optional filters chain cleanly.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(
		fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field)),
		"%"+*value+"%",
	)
}

// WhereEquals adds an equality match, skipping nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(fmt.Sprintf("%s = $%%d", b.projection.Column(field)), value)
}

// WhereIn adds an IN match, skipping empty value sets.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}

	slots := make([]string, len(values))
	for i := range values {
		slots[i] = "$%d"
	}
	clause := fmt.Sprintf("%s IN (%s)", b.projection.Column(field), strings.Join(slots, ", "))
	return b.add(clause, values...)
}

// WhereNullable matches equality for a value or IS NULL for nil.
func (b *Builder) WhereNullable(column string, val any) *Builder {
	col := b.projection.Column(column)
	if isNil(val) {
		b.conditions = append(b.conditions, condition{clause: col + " IS NULL"})
		return b
	}
	return b.add(fmt.Sprintf("%s = $%%d", col), val)
}

// WhereSearch adds one parenthesized OR of ILIKE matches across fields.
// Skipped when search is nil or empty or no fields are given.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field))
		args[i] = pattern
	}

	return b.add("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) add(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) renderOrderBy() string {
	fields := b.sortFields
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", b.projection.Column(f.Field), dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// renderWhere joins conditions with AND, rewriting each $%d placeholder
// to the next sequential parameter number.
func (b *Builder) renderWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)
	param := 1

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", param), 1)
			args = append(args, arg)
			param++
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
