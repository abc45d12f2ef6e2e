// Package query assembles the registry search SQL from typed predicates.
//
// Every identifier that reaches the SQL text (tables, aliases, columns,
// comparison operators, text-search functions) comes from the allow-listed
// values in this package. Request values are always bound as positional
// arguments ($1, $2, ...), never interpolated.
package query

import (
	"fmt"
	"strings"
)

// Predicate is one boolean condition of a WHERE clause.
type Predicate interface {
	render(p *params) string
}

// params collects positional arguments while predicates are rendered.
type params struct {
	args []interface{}
}

func (p *params) add(v interface{}) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// Join is an equality condition between two columns.
type Join struct {
	Left  Column
	Right Column
}

func (j Join) render(_ *params) string {
	return j.Left.String() + " = " + j.Right.String()
}

// TextSearch matches a column against a full-text query.
type TextSearch struct {
	Column Column
	Mode   Mode
	Term   string
}

func (t TextSearch) render(p *params) string {
	vec := t.Column.String()
	if !t.Column.vector {
		vec = fmt.Sprintf("to_tsvector('%s', %s)", textSearchConfig, vec)
	}
	return fmt.Sprintf("%s @@ %s('%s', %s)", vec, t.Mode.function(), textSearchConfig, p.add(Translate(t.Term, t.Mode == Boolean)))
}

// Membership restricts a column to a set of ids. An empty set matches nothing.
type Membership struct {
	Column Column
	IDs    []int64
}

func (m Membership) render(p *params) string {
	ids := m.IDs
	if ids == nil {
		ids = []int64{}
	}
	return fmt.Sprintf("%s = ANY(%s::bigint[])", m.Column.String(), p.add(ids))
}

// Range compares a numeric column against a value. The value is bound as
// bigint so inputs beyond the column's range compare instead of failing to
// encode.
type Range struct {
	Column Column
	Op     Op
	Value  int64
}

func (r Range) render(p *params) string {
	return fmt.Sprintf("%s %s %s::bigint", r.Column.String(), r.Op.String(), p.add(r.Value))
}

// Clause is the unit a single filter contributes: the tables it needs joined
// and the predicates that reference them.
type Clause struct {
	Tables []Table
	Where  []Predicate
}

// Query is a rendered SQL statement and its positional arguments.
type Query struct {
	SQL  string
	Args []interface{}
}

// Page bounds a selection. Zero values mean unbounded / no offset.
type Page struct {
	Limit  int
	Offset int
}

// Builder accumulates clauses over a fact table and renders a count query and
// a row-selection query that share the same FROM list and WHERE text.
type Builder struct {
	from    Table
	key     Column
	project []Column
	clauses []Clause
}

// NewBuilder returns a builder selecting project from the from table. key is
// counted and used to keep rows distinct and ordered.
func NewBuilder(from Table, key Column, project ...Column) *Builder {
	return &Builder{from: from, key: key, project: project}
}

// NewStudySearch returns the builder used by the registry search:
// (study_id, nct_id, official_title) over the study table.
func NewStudySearch() *Builder {
	return NewBuilder(Study, StudyID, StudyID, StudyNCTID, StudyOfficialTitle)
}

// Add appends a clause. Clauses without predicates are ignored.
func (b *Builder) Add(c Clause) {
	if len(c.Where) == 0 {
		return
	}
	b.clauses = append(b.clauses, c)
}

// Empty reports whether no clause has been added.
func (b *Builder) Empty() bool {
	return len(b.clauses) == 0
}

// Tables returns the fact table followed by every joined table, deduplicated
// in first-seen order.
func (b *Builder) Tables() []Table {
	tables := []Table{b.from}
	seen := map[Table]bool{b.from: true}
	for _, c := range b.clauses {
		for _, t := range c.Tables {
			if seen[t] {
				continue
			}
			seen[t] = true
			tables = append(tables, t)
		}
	}
	return tables
}

// Build renders the count and selection queries. The selection carries LIMIT
// and OFFSET only when page sets them. An empty builder renders queries that
// match nothing rather than a full-table scan.
func (b *Builder) Build(page Page) (count Query, rows Query) {
	p := &params{}
	var preds []string
	for _, c := range b.clauses {
		for _, w := range c.Where {
			preds = append(preds, w.render(p))
		}
	}
	where := "FALSE"
	if len(preds) > 0 {
		where = strings.Join(preds, "\n  AND ")
	}

	froms := make([]string, 0, len(b.clauses)+1)
	for _, t := range b.Tables() {
		froms = append(froms, t.SQL())
	}
	from := strings.Join(froms, ", ")

	count = Query{
		SQL:  fmt.Sprintf("SELECT COUNT(DISTINCT %s)\nFROM %s\nWHERE %s", b.key, from, where),
		Args: p.args,
	}

	cols := make([]string, 0, len(b.project))
	for _, c := range b.project {
		cols = append(cols, c.String())
	}
	sel := fmt.Sprintf("SELECT DISTINCT %s\nFROM %s\nWHERE %s\nORDER BY %s",
		strings.Join(cols, ", "), from, where, b.key)

	args := make([]interface{}, len(p.args), len(p.args)+2)
	copy(args, p.args)
	if page.Limit > 0 {
		args = append(args, page.Limit)
		sel += fmt.Sprintf("\nLIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		sel += fmt.Sprintf("\nOFFSET $%d", len(args))
	}
	rows = Query{SQL: sel, Args: args}
	return count, rows
}

// Where renders predicates joined with AND for use outside a Builder, e.g. in
// lookup listings. It returns "TRUE" when preds is empty.
func Where(preds ...Predicate) (string, []interface{}) {
	if len(preds) == 0 {
		return "TRUE", nil
	}
	p := &params{}
	parts := make([]string, 0, len(preds))
	for _, w := range preds {
		parts = append(parts, w.render(p))
	}
	return strings.Join(parts, " AND "), p.args
}
