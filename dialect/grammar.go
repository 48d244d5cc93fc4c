package dialect

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

/*
 * ----------------------------------------------------------------------------
 * GRAMMAR
 * ----------------------------------------------------------------------------
 *
 * Grammar turns builder state into SQL text in a single pass. Statement layout:
 *
 *   SELECT: head, joins, WHERE, GROUP BY, ORDER BY, limit
 *   INSERT: INSERT INTO t (cols) VALUES (...)[,(...)]
 *   UPDATE: UPDATE t SET c=v,... WHERE
 *   DELETE: DELETE FROM t WHERE
 *
 * Every parameter a statement references, including the ones produced by nested
 * builders, is collected into the returned Fragment and checked for name clashes.
 * ----------------------------------------------------------------------------
 */

// Grammar renders builder state for one dialect.
type Grammar struct {
	d Dialect
}

// NewGrammar returns a Grammar for d.
func NewGrammar(d Dialect) *Grammar {
	return &Grammar{d: d}
}

// Dialect returns the profile the grammar renders for.
func (g *Grammar) Dialect() Dialect {
	return g.d
}

// CompileSelect renders a full SELECT (or raw head) statement.
func (g *Grammar) CompileSelect(b QueryBuilder) (Fragment, error) {
	head, err := g.compileHead(b)
	if err != nil {
		return Fragment{}, err
	}
	params, err := Merge(b.GetParams(), joinParams(b.GetJoins()), wherePredicateParams(b.GetWheres()))
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: head + g.CompileSuffix(b), Params: params}, nil
}

// CompileExists wraps the rendered SELECT so that it returns a row only when the
// inner query does.
func (g *Grammar) CompileExists(b QueryBuilder, alias string) (Fragment, error) {
	frag, err := g.CompileSelect(b)
	if err != nil {
		return Fragment{}, err
	}
	frag.SQL = "SELECT 1 FROM (" + frag.SQL + ") " + alias + " GROUP BY 1"
	return frag, nil
}

// CompileSuffix renders everything after the head: joins, where, group by, order
// by and limit, in that order.
//
// With strict paging a zero limit becomes an always-false condition and paging
// without ORDER BY is ordered by (SELECT NULL).
func (g *Grammar) CompileSuffix(b QueryBuilder) string {
	limit := b.GetLimit()
	wheres := g.CompileWheres(b.GetWheres())
	orders := g.CompileOrderBy(b.GetOrders(), b.GetDirection())
	if g.d.StrictPaging && limit != nil {
		switch {
		case *limit == 0:
			wheres = g.compileEmpty(b.GetWheres())
		case orders == "":
			orders = " ORDER BY (SELECT NULL)"
		}
	}

	var sb strings.Builder
	sb.WriteString(g.CompileJoins(b.GetJoins()))
	sb.WriteString(wheres)
	sb.WriteString(g.CompileGroupBy(b.GetGroupBy()))
	sb.WriteString(orders)
	sb.WriteString(g.CompileLimit(limit, b.GetOffset()))
	return sb.String()
}

func (g *Grammar) compileHead(b QueryBuilder) (string, error) {
	if head := b.GetHead(); head != "" {
		return head, nil
	}
	table := b.GetTable()
	if table == "" {
		return "", ErrNoTable
	}
	columns := b.GetColumns()
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	quoted := lo.Map(columns, func(c string, _ int) string {
		return g.d.QuoteColumn(c)
	})
	return "SELECT " + strings.Join(quoted, ",") + " FROM " + g.d.Quote(table, false), nil
}

// CompileJoins renders the join list in insertion order.
func (g *Grammar) CompileJoins(joins []Join) string {
	var sb strings.Builder
	for _, j := range joins {
		target := j.Table
		if !strings.HasPrefix(target, "(") {
			target = g.d.Quote(target, false)
		}
		sb.WriteString(" ")
		sb.WriteString(string(j.Kind))
		sb.WriteString(" JOIN ")
		sb.WriteString(target)
		sb.WriteString(" ON ")
		sb.WriteString(g.d.Quote(j.Left, false))
		sb.WriteString("=")
		sb.WriteString(g.d.Quote(j.Right, false))
	}
	return sb.String()
}

// CompileWheres renders " WHERE <conditions>", or nothing without predicates.
func (g *Grammar) CompileWheres(preds []Predicate) string {
	if len(preds) == 0 {
		return ""
	}
	return " WHERE " + g.CompileConditions(preds)
}

// CompileConditions renders predicates without the WHERE keyword. The first
// predicate never carries its connector.
func (g *Grammar) CompileConditions(preds []Predicate) string {
	var sb strings.Builder
	for i, p := range preds {
		if i > 0 {
			conn := p.Connector
			if conn == "" {
				conn = And
			}
			sb.WriteString(" ")
			sb.WriteString(string(conn))
			sb.WriteString(" ")
		}
		sb.WriteString(g.compilePredicate(p))
	}
	return sb.String()
}

// CompileGroup renders predicates for use inside parentheses and collects their
// parameters together with extra.
func (g *Grammar) CompileGroup(preds []Predicate, extra []Param) (Fragment, error) {
	params, err := Merge(extra, wherePredicateParams(preds))
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: g.CompileConditions(preds), Params: params}, nil
}

func (g *Grammar) compilePredicate(p Predicate) string {
	rhs := p.Text
	if p.Kind == PredicateBound {
		rhs = g.placeholder(p.Param.Name, p.Bind)
	}
	if p.Column == "" {
		if p.Kind == PredicateSub && p.Operator != "" {
			return p.Operator + " " + rhs
		}
		return rhs
	}
	op := p.Operator
	if op == "" {
		op = "="
	}
	return g.d.Quote(p.Column, false) + " " + op + " " + rhs
}

func (g *Grammar) placeholder(name string, bind BindFunc) string {
	ph := g.d.Placeholder(name)
	if bind != nil {
		return bind(ph)
	}
	return ph
}

// CompileGroupBy renders " GROUP BY a,b".
func (g *Grammar) CompileGroupBy(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	return " GROUP BY " + g.quoteList(columns)
}

// CompileOrderBy renders " ORDER BY a,b DIR". The direction applies once, after
// the whole list.
func (g *Grammar) CompileOrderBy(columns []string, dir OrderDirection) string {
	if len(columns) == 0 {
		return ""
	}
	out := " ORDER BY " + g.quoteList(columns)
	if dir != "" {
		out += " " + string(dir)
	}
	return out
}

// compileEmpty renders a WHERE clause that matches no rows.
func (g *Grammar) compileEmpty(preds []Predicate) string {
	if len(preds) == 0 {
		return " WHERE 1=0"
	}
	return " WHERE (" + g.CompileConditions(preds) + ") AND 1=0"
}

// CompileLimit renders the row limit. A nil limit renders nothing; a zero limit
// is rendered as is, except with strict paging where it renders nothing and
// CompileSuffix filters every row out instead.
func (g *Grammar) CompileLimit(limit, offset *int) string {
	if limit == nil || (*limit == 0 && g.d.StrictPaging) {
		return ""
	}
	if g.d.Limit == OffsetFetch {
		start := 0
		if offset != nil {
			start = *offset
		}
		return " OFFSET " + strconv.Itoa(start) + " ROWS FETCH NEXT " + strconv.Itoa(*limit) + " ROWS ONLY"
	}
	if offset == nil {
		return " LIMIT " + strconv.Itoa(*limit)
	}
	return " LIMIT " + strconv.Itoa(*limit) + " OFFSET " + strconv.Itoa(*offset)
}

func (g *Grammar) quoteList(columns []string) string {
	return strings.Join(lo.Map(columns, func(c string, _ int) string {
		return g.d.Quote(c, false)
	}), ",")
}

// ----------------------------------------------------------------------------
// INSERT / UPDATE / DELETE
// ----------------------------------------------------------------------------

// CompileInsert renders a single-row INSERT, or a multi-row one when the builder
// holds bulk rows.
func (g *Grammar) CompileInsert(b MutationBuilder) (Fragment, error) {
	table := b.GetTable()
	if table == "" {
		return Fragment{}, ErrNoTable
	}
	rows := b.GetRows()
	if len(rows) == 0 {
		values := b.GetValues()
		if len(values) == 0 {
			return Fragment{}, ErrNoColumns
		}
		rows = [][]Value{values}
	}

	columns := lo.Map(rows[0], func(v Value, _ int) string { return v.Column })
	if len(columns) == 0 {
		return Fragment{}, ErrNoColumns
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(g.d.Quote(table, false))
	sb.WriteString(" (")
	sb.WriteString(g.quoteList(columns))
	sb.WriteString(") VALUES ")

	lists := [][]Param{b.GetParams()}
	for i, row := range rows {
		if len(row) != len(columns) {
			return Fragment{}, ErrInconsistentRow
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for j, v := range row {
			if v.Column != columns[j] {
				return Fragment{}, ErrInconsistentRow
			}
			if j > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(g.compileValue(v))
		}
		sb.WriteString(")")
		lists = append(lists, valueParams(row))
	}

	params, err := Merge(lists...)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sb.String(), Params: params}, nil
}

// CompileUpdate renders UPDATE t SET a=@a,b=@b followed by the WHERE clause.
func (g *Grammar) CompileUpdate(b MutationBuilder) (Fragment, error) {
	table := b.GetTable()
	if table == "" {
		return Fragment{}, ErrNoTable
	}
	values := b.GetValues()
	if len(values) == 0 {
		return Fragment{}, ErrNoColumns
	}

	sets := lo.Map(values, func(v Value, _ int) string {
		return g.d.Quote(v.Column, false) + "=" + g.compileValue(v)
	})
	sql := "UPDATE " + g.d.Quote(table, false) + " SET " + strings.Join(sets, ",") + g.CompileWheres(b.GetWheres())

	params, err := Merge(b.GetParams(), valueParams(values), wherePredicateParams(b.GetWheres()))
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sql, Params: params}, nil
}

// CompileDelete renders DELETE FROM t followed by the WHERE clause.
func (g *Grammar) CompileDelete(b MutationBuilder) (Fragment, error) {
	table := b.GetTable()
	if table == "" {
		return Fragment{}, ErrNoTable
	}
	params, err := Merge(b.GetParams(), wherePredicateParams(b.GetWheres()))
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{
		SQL:    "DELETE FROM " + g.d.Quote(table, false) + g.CompileWheres(b.GetWheres()),
		Params: params,
	}, nil
}

func (g *Grammar) compileValue(v Value) string {
	if v.Raw {
		return v.Text
	}
	return g.placeholder(v.Param.Name, v.Bind)
}

func valueParams(values []Value) []Param {
	out := lo.Filter(values, func(v Value, _ int) bool { return !v.Raw })
	return lo.Map(out, func(v Value, _ int) Param { return v.Param })
}

func wherePredicateParams(preds []Predicate) []Param {
	return lo.FlatMap(preds, func(p Predicate, _ int) []Param { return p.Params() })
}

func joinParams(joins []Join) []Param {
	return lo.FlatMap(joins, func(j Join, _ int) []Param { return j.Params() })
}
