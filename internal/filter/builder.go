package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/ticketq/internal/models"
)

var (
	ErrInvalidID   = errors.New("invalid ticket id")
	ErrInvalidTime = errors.New("invalid time")
)

// Table is the ticket table queried by the builder
const Table = "ticket"

// Builder generates SQL from filter forms. Clauses are OR'ed, the row groups
// of a clause AND'ed, and the rows of a group are alternatives.
type Builder struct {
	dialect Dialect
	now     func() time.Time
	loc     *time.Location
}

// NewBuilder creates a builder emitting SQL for dialect
func NewBuilder(d Dialect) *Builder {
	return &Builder{
		dialect: d,
		now:     time.Now,
		loc:     time.Local,
	}
}

// WithClock returns a copy of the builder that resolves relative times
// against now, in now's location.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	nb := *b
	nb.now = now
	nb.loc = now().Location()
	return &nb
}

// Dialect returns the SQL dialect of the builder
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// params collects bind arguments and hands out placeholders
type params struct {
	dialect Dialect
	args    []any
}

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return p.dialect.Placeholder(len(p.args))
}

// BuildWhere generates a WHERE clause from a form. A form with a clause that
// has no effective constraint matches every ticket and yields "".
func (b *Builder) BuildWhere(cat *models.Catalog, form models.Form) (string, []any, error) {
	p := &params{dialect: b.dialect}
	var clauses []string
	for _, c := range form.Clauses {
		conds, err := b.buildClause(cat, c, p)
		if err != nil {
			return "", nil, err
		}
		if len(conds) == 0 {
			return "", nil, nil
		}
		clauses = append(clauses, strings.Join(conds, " AND "))
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	if len(clauses) == 1 {
		return "WHERE " + clauses[0], p.args, nil
	}
	for i := range clauses {
		clauses[i] = "(" + clauses[i] + ")"
	}
	return "WHERE " + strings.Join(clauses, " OR "), p.args, nil
}

// SelectOptions controls the parts of a SELECT not carried by the form
type SelectOptions struct {
	Columns      []string
	DefaultOrder string
	DefaultLimit int
}

// BuildSelect generates a complete ticket query. The form's Order, Desc and
// Max take precedence over the defaults in opts.
func (b *Builder) BuildSelect(cat *models.Catalog, form models.Form, opts SelectOptions) (string, []any, error) {
	where, args, err := b.BuildWhere(cat, form)
	if err != nil {
		return "", nil, err
	}

	columns := opts.Columns
	if len(columns) == 0 {
		columns = models.DefaultColumns
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = b.dialect.Quote(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s\nFROM %s", strings.Join(quoted, ","), Table)
	if where != "" {
		sb.WriteString("\n" + where)
	}

	order := form.Order
	if order == "" {
		order = opts.DefaultOrder
	}
	dir := ""
	if form.Desc {
		dir = " DESC"
	}
	switch order {
	case "", "id":
		sb.WriteString("\nORDER BY " + b.dialect.Quote("id") + dir)
	default:
		fmt.Fprintf(&sb, "\nORDER BY %s%s,%s", b.dialect.Quote(order), dir, b.dialect.Quote("id"))
	}

	limit := form.Max
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if limit > 0 {
		sb.WriteString("\nLIMIT " + strconv.Itoa(limit))
	}
	return sb.String(), args, nil
}

func (b *Builder) buildClause(cat *models.Catalog, c models.Clause, p *params) ([]string, error) {
	var conds []string
	for _, g := range c.Groups {
		prop, ok := cat.Lookup(g.Property)
		if !ok {
			return nil, fmt.Errorf("unknown property %q", g.Property)
		}
		cond, err := b.buildGroup(cat, prop, g, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prop.Label, err)
		}
		if cond != "" {
			conds = append(conds, cond)
		}
	}
	return conds, nil
}

// buildGroup builds the condition of one row group, or "" when its rows
// carry no values.
func (b *Builder) buildGroup(cat *models.Catalog, prop models.Property, g models.RowGroup, p *params) (string, error) {
	column := b.dialect.Quote(prop.Name)
	text := "COALESCE(" + column + ",'')"

	switch prop.Type {
	case models.TypeTime:
		return b.buildTime(column, g.Rows, p)
	case models.TypeRadio:
		return in(text, false, g.Rows[0].Values, p), nil
	case models.TypeCheckbox:
		if v := firstValue(g.Rows[0]); v == "1" || v == "0" {
			return text + "=" + p.add(v), nil
		}
		return "", nil
	case models.TypeID:
		return buildIDs(column, g.Mode == "!", g.Rows, p)
	}

	var values []string
	for _, r := range g.Rows {
		if v := strings.TrimSpace(firstValue(r)); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", nil
	}

	mode := g.Mode
	if !hasMode(cat, prop.Type, mode) {
		mode = cat.ModesFor(prop.Type)[0].Value
	}
	switch mode {
	case "":
		return in(text, false, values, p), nil
	case "!":
		return in(text, true, values, p), nil
	case "~":
		return like(text, false, values, "%", "%", p), nil
	case "!~":
		return like(text, true, values, "%", "%", p), nil
	case "^":
		return like(text, false, values, "", "%", p), nil
	case "$":
		return like(text, false, values, "%", "", p), nil
	default:
		return "", fmt.Errorf("unsupported mode %q", mode)
	}
}

// in builds an equality or IN test, negated with != / NOT IN
func in(expr string, negate bool, values []string, p *params) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		op := "="
		if negate {
			op = "!="
		}
		return expr + op + p.add(values[0])
	}
	holders := make([]string, len(values))
	for i, v := range values {
		holders[i] = p.add(v)
	}
	op := " IN "
	if negate {
		op = " NOT IN "
	}
	return expr + op + "(" + strings.Join(holders, ",") + ")"
}

// like builds LIKE tests. Alternatives are OR'ed; negated tests must all
// hold and are AND'ed.
func like(expr string, negate bool, values []string, prefix, suffix string, p *params) string {
	op, join := " LIKE ", " OR "
	if negate {
		op, join = " NOT LIKE ", " AND "
	}
	conds := make([]string, len(values))
	for i, v := range values {
		conds[i] = expr + op + p.add(prefix+escapeLike(v)+suffix) + " ESCAPE '/'"
	}
	return group(conds, join)
}

var likeEscaper = strings.NewReplacer("/", "//", "%", "/%", "_", "/_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (b *Builder) buildTime(column string, rows []models.Row, p *params) (string, error) {
	var alts []string
	for _, r := range rows {
		var conds []string
		if len(r.Values) > 0 {
			start, err := b.parseTime(r.Values[0])
			if err != nil {
				return "", err
			}
			if !start.IsZero() {
				conds = append(conds, column+">="+p.add(start.Unix()))
			}
		}
		if len(r.Values) > 1 {
			end, err := b.parseTime(r.Values[1])
			if err != nil {
				return "", err
			}
			if !end.IsZero() {
				conds = append(conds, column+"<"+p.add(end.Unix()))
			}
		}
		if len(conds) > 0 {
			alts = append(alts, strings.Join(conds, " AND "))
		}
	}
	if len(alts) > 1 {
		for i := range alts {
			alts[i] = "(" + alts[i] + ")"
		}
	}
	return group(alts, " OR "), nil
}

func group(conds []string, join string) string {
	switch len(conds) {
	case 0:
		return ""
	case 1:
		return conds[0]
	default:
		return "(" + strings.Join(conds, join) + ")"
	}
}

func firstValue(r models.Row) string {
	if len(r.Values) == 0 {
		return ""
	}
	return r.Values[0]
}

func hasMode(cat *models.Catalog, t models.PropertyType, mode string) bool {
	for _, m := range cat.ModesFor(t) {
		if m.Value == mode {
			return true
		}
	}
	return false
}
