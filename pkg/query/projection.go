// Package query builds SELECT statements from projection maps, keeping
// column naming in one place per entity.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap ties view property names to alias-qualified columns on
// one table. Builders consult it so filters and sorts can be written
// against view names.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	columns    map[string]string
	columnList []string
}

// NewProjectionMap starts an empty projection over schema.table alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:     schema,
		table:      table,
		alias:      alias,
		columns:    make(map[string]string),
		columnList: make([]string, 0),
	}
}

// Project maps a database column to its view property name. Returns p
// for chaining.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns[viewName] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns "schema.table alias" for FROM clauses.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column resolves a view property to its qualified column. Unmapped
// names pass through unchanged.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Columns returns the projected columns joined for a SELECT list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}

// ColumnList returns the projected columns in registration order.
func (p *ProjectionMap) ColumnList() []string {
	return p.columnList
}
