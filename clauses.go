package netql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/biyonik/go-netql/dialect"
	"github.com/biyonik/go-netql/internal/validation"
)

// SubQuery composes a nested builder. The builder it receives is fresh: it has
// its own identity and no predicates of the outer builder.
type SubQuery func(sub *Builder)

// clauses is the WHERE accumulator shared by Builder and Mutation.
//
// Nested builders never point back at their parent. Their output is rendered
// into a dialect.Fragment and stored by value on the predicate that uses it, and
// the renderer merges every fragment's parameters into the outer statement.
type clauses struct {
	db     *DB
	ident  string
	wheres []dialect.Predicate
	params []dialect.Param
	err    error
}

// fail records the first composition error of a chain.
func (c *clauses) fail(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

// nextName returns the parameter name of the next predicate on column:
// <column>_<identity>_<index>.
func (c *clauses) nextName(column string) string {
	return validation.BindName(column) + "_" + c.ident + "_" + strconv.Itoa(len(c.wheres))
}

func (c *clauses) operator(op string) (string, bool) {
	if op == "" {
		return "=", true
	}
	normalized, err := validation.NormalizeOperator(op)
	if err != nil {
		c.fail(fmt.Errorf("%w: %v (allowed: %s)", ErrInvalidOperator, err, strings.Join(validation.AllowedOperators(), ", ")))
		return "", false
	}
	return normalized, true
}

// where adds a bound predicate. A raw-marked string value is inserted verbatim.
func (c *clauses) where(conn dialect.Connector, column, op string, value any, typ dialect.ValueType, bind dialect.BindFunc) {
	op, ok := c.operator(op)
	if !ok {
		return
	}
	if value == nil && validation.IsNullOperator(op) {
		c.whereRawOp(conn, column, op, "NULL")
		return
	}
	if s, isString := value.(string); isString {
		if text, raw := dialect.IsRaw(s); raw {
			c.whereRawOp(conn, column, op, text)
			return
		}
	}
	c.wheres = append(c.wheres, dialect.Predicate{
		Connector: conn,
		Kind:      dialect.PredicateBound,
		Column:    column,
		Operator:  op,
		Param:     dialect.Param{Name: c.nextName(column), Value: value, Type: typ},
		Bind:      bind,
	})
}

// whereRaw adds a predicate rendered exactly as sql.
func (c *clauses) whereRaw(conn dialect.Connector, sql string) {
	if text, raw := dialect.IsRaw(sql); raw {
		sql = text
	}
	c.wheres = append(c.wheres, dialect.Predicate{Connector: conn, Kind: dialect.PredicateRaw, Text: sql})
}

// whereRawOp adds "<column> <op> <text>" with text inserted verbatim.
func (c *clauses) whereRawOp(conn dialect.Connector, column, op, text string) {
	op, ok := c.operator(op)
	if !ok {
		return
	}
	c.wheres = append(c.wheres, dialect.Predicate{
		Connector: conn,
		Kind:      dialect.PredicateRaw,
		Column:    column,
		Operator:  op,
		Text:      text,
	})
}

func (c *clauses) whereNull(conn dialect.Connector, column string, not bool) {
	op := "IS"
	if not {
		op = "IS NOT"
	}
	c.whereRawOp(conn, column, op, "NULL")
}

// whereLiteralIn renders values as a quoted literal list. Nothing is bound or
// escaped.
func (c *clauses) whereLiteralIn(conn dialect.Connector, column string, values []any, not bool) {
	if len(values) == 0 {
		c.fail(ErrEmptyWhereIn)
		return
	}
	op := "IN"
	if not {
		op = "NOT IN"
	}
	items := lo.Map(values, func(v any, _ int) string {
		return "'" + fmt.Sprint(v) + "'"
	})
	c.whereRawOp(conn, column, op, "("+strings.Join(items, ",")+")")
}

// whereSub adds "<column> <op> (<sub>)" and keeps the fragment for its parameters.
func (c *clauses) whereSub(conn dialect.Connector, column, op string, frag dialect.Fragment) {
	op, ok := c.operator(op)
	if !ok {
		return
	}
	c.wheres = append(c.wheres, dialect.Predicate{
		Connector: conn,
		Kind:      dialect.PredicateSub,
		Column:    column,
		Operator:  op,
		Text:      "(" + frag.SQL + ")",
		Child:     &frag,
	})
}

// child returns a fresh builder for nested composition.
func (c *clauses) child() *Builder {
	return newBuilder(c.db)
}

// subquery renders fn's SELECT and adds it as the right-hand side of column.
func (c *clauses) subquery(conn dialect.Connector, column, op string, fn SubQuery) {
	if fn == nil {
		return
	}
	sub := c.child()
	fn(sub)
	frag, err := sub.compile()
	if err != nil {
		c.fail(err)
		return
	}
	c.whereSub(conn, column, op, frag)
}

// wrap renders fn's predicates as one parenthesised group. A group without
// predicates adds nothing.
func (c *clauses) wrap(conn dialect.Connector, fn SubQuery) {
	if fn == nil {
		return
	}
	sub := c.child()
	fn(sub)
	c.group(conn, sub)
}

func (c *clauses) group(conn dialect.Connector, sub *Builder) {
	if sub.err != nil {
		c.fail(sub.err)
		return
	}
	if len(sub.wheres) == 0 {
		return
	}
	frag, err := sub.db.grammar.CompileGroup(sub.wheres, sub.params)
	if err != nil {
		c.fail(err)
		return
	}
	c.wheres = append(c.wheres, dialect.Predicate{
		Connector: conn,
		Kind:      dialect.PredicateSub,
		Text:      "(" + frag.SQL + ")",
		Child:     &frag,
	})
}

// whereStruct matches every writable field of record: equality for values, IS
// NULL for nil pointers. The conditions are grouped in parentheses.
func (c *clauses) whereStruct(conn dialect.Connector, record any) {
	rv, shape, err := recordOf(record)
	if err != nil {
		c.fail(err)
		return
	}
	sub := c.child()
	for _, cv := range shape.values(rv) {
		if cv.value == nil {
			sub.whereNull(dialect.And, cv.column, false)
			continue
		}
		sub.where(dialect.And, cv.column, "=", cv.value, dialect.TypeAuto, nil)
	}
	c.group(conn, sub)
}

func (c *clauses) param(name string, value any, typ dialect.ValueType) {
	if err := validation.ValidateAlias(name); err != nil {
		c.fail(NewValidationError(name, "parameter name", err.Error()))
		return
	}
	c.params = append(c.params, dialect.Param{Name: name, Value: value, Type: typ})
}

func (c *clauses) reset() {
	c.wheres = nil
	c.params = nil
	c.err = nil
}

// GetWheres returns the accumulated predicates.
func (c *clauses) GetWheres() []dialect.Predicate {
	return c.wheres
}

// GetParams returns the parameters registered with Param.
func (c *clauses) GetParams() []dialect.Param {
	return c.params
}

// splitColumns splits "a, b" into its names. Raw-marked text is kept whole.
func splitColumns(columns string) []string {
	if _, raw := dialect.IsRaw(columns); raw {
		return []string{columns}
	}
	parts := lo.Map(strings.Split(columns, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Filter(parts, func(s string, _ int) bool { return s != "" })
}
