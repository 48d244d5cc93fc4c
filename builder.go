package netql

import (
	"github.com/biyonik/go-netql/dialect"
	"github.com/biyonik/go-netql/internal/validation"
)

// Builder composes one SELECT at a time.
//
// Every fluent call records clause objects; nothing is rendered until ToSQL or a
// terminal operation (Read, IsExist, ReadAs...) runs. Terminal operations reset
// the builder on every exit path, so the same instance can be reused for the
// next statement. A held transaction survives the reset.
//
// Composition errors (invalid operator, bad alias, empty literal list) do not
// panic: the first one is kept and returned by the next render or terminal call.
//
// Builders are not safe for concurrent use.
//
//	n, err := db.Select("id,name", "users").
//	    Where("active", true).
//	    WhereIn("id", func(sub *netql.Builder) {
//	        sub.Select("user_id", "orders").Where("total", 100)
//	    }).
//	    OrderBy("name", dialect.OrderAsc).
//	    Limit(10).
//	    Read(func(r *netql.Row) error { ... })
type Builder struct {
	clauses

	head      string
	table     string
	columns   []string
	joins     []dialect.Join
	groupBy   []string
	orders    []string
	direction dialect.OrderDirection
	limit     *int
	offset    *int

	tx    *Transaction
	useTx bool
}

var _ dialect.QueryBuilder = (*Builder)(nil)

func newBuilder(db *DB) *Builder {
	return &Builder{clauses: clauses{db: db, ident: db.nextIdentity()}}
}

// ----------------------------------------------------------------------------
// Statement head
// ----------------------------------------------------------------------------

// Select sets the column list ("id,name", "u.id,u.name AS n" or "*") and the
// source table. The DB's table prefix is applied to table.
func (b *Builder) Select(columns, table string) *Builder {
	b.columns = splitColumns(columns)
	if len(b.columns) == 1 && b.columns[0] == "*" {
		b.columns = nil
	}
	b.table = b.prefixed(table)
	return b
}

// From selects every column of table.
func (b *Builder) From(table string) *Builder {
	return b.Select("*", table)
}

// Query uses sql as the statement head. Joins, predicates, ordering and limits
// are appended after it; parameters it references are registered with Param.
//
//	db.Query("SELECT COUNT(*) AS n FROM users WHERE age > @min").Param("min", 18)
func (b *Builder) Query(sql string) *Builder {
	if text, raw := dialect.IsRaw(sql); raw {
		sql = text
	}
	b.head = sql
	return b
}

// Param registers a caller-named parameter for placeholders written by hand.
func (b *Builder) Param(name string, value any) *Builder {
	b.param(name, value, dialect.TypeAuto)
	return b
}

// ParamAs registers a caller-named parameter bound as typ.
func (b *Builder) ParamAs(name string, value any, typ dialect.ValueType) *Builder {
	b.param(name, value, typ)
	return b
}

// Alias replaces the builder identity. Parameter names of later predicates carry
// it, and subquery joins use it as the table alias.
func (b *Builder) Alias(name string) *Builder {
	if err := validation.ValidateAlias(name); err != nil {
		b.fail(NewValidationError(name, "alias", err.Error()))
		return b
	}
	b.ident = name
	return b
}

// Identity returns the builder identity.
func (b *Builder) Identity() string {
	return b.ident
}

func (b *Builder) prefixed(table string) string {
	if b.db.prefix == "" || table == "" {
		return table
	}
	if _, raw := dialect.IsRaw(table); raw {
		return table
	}
	return b.db.prefix + table
}

// ----------------------------------------------------------------------------
// WHERE
// ----------------------------------------------------------------------------

// Where adds "column = value". A nil value binds NULL; use WhereNull for IS NULL.
func (b *Builder) Where(column string, value any) *Builder {
	b.where(dialect.And, column, "=", value, dialect.TypeAuto, nil)
	return b
}

// WhereOp adds "column op value".
func (b *Builder) WhereOp(column, op string, value any) *Builder {
	b.where(dialect.And, column, op, value, dialect.TypeAuto, nil)
	return b
}

// WhereAs adds "column = value" with value bound as typ.
func (b *Builder) WhereAs(column string, value any, typ dialect.ValueType) *Builder {
	b.where(dialect.And, column, "=", value, typ, nil)
	return b
}

// WhereBind adds "column op bind(placeholder)".
//
//	b.WhereBind("name", "=", "ann", func(p string) string { return "LOWER(" + p + ")" })
func (b *Builder) WhereBind(column, op string, value any, bind dialect.BindFunc) *Builder {
	b.where(dialect.And, column, op, value, dialect.TypeAuto, bind)
	return b
}

// OrWhere adds "OR column = value".
func (b *Builder) OrWhere(column string, value any) *Builder {
	b.where(dialect.Or, column, "=", value, dialect.TypeAuto, nil)
	return b
}

// OrWhereOp adds "OR column op value".
func (b *Builder) OrWhereOp(column, op string, value any) *Builder {
	b.where(dialect.Or, column, op, value, dialect.TypeAuto, nil)
	return b
}

// OrWhereBind is the OR form of WhereBind.
func (b *Builder) OrWhereBind(column, op string, value any, bind dialect.BindFunc) *Builder {
	b.where(dialect.Or, column, op, value, dialect.TypeAuto, bind)
	return b
}

// WhereRaw adds sql verbatim. Nothing is quoted or bound.
func (b *Builder) WhereRaw(sql string) *Builder {
	b.whereRaw(dialect.And, sql)
	return b
}

// OrWhereRaw adds "OR sql" verbatim.
func (b *Builder) OrWhereRaw(sql string) *Builder {
	b.whereRaw(dialect.Or, sql)
	return b
}

// WhereRawOp adds "column op text" with text inserted verbatim.
//
//	b.WhereRawOp("created_at", "<", "CURRENT_TIMESTAMP")
func (b *Builder) WhereRawOp(column, op, text string) *Builder {
	b.whereRawOp(dialect.And, column, op, text)
	return b
}

// OrWhereRawOp is the OR form of WhereRawOp.
func (b *Builder) OrWhereRawOp(column, op, text string) *Builder {
	b.whereRawOp(dialect.Or, column, op, text)
	return b
}

// WhereNull adds "column IS NULL".
func (b *Builder) WhereNull(column string) *Builder {
	b.whereNull(dialect.And, column, false)
	return b
}

// OrWhereNull adds "OR column IS NULL".
func (b *Builder) OrWhereNull(column string) *Builder {
	b.whereNull(dialect.Or, column, false)
	return b
}

// WhereNotNull adds "column IS NOT NULL".
func (b *Builder) WhereNotNull(column string) *Builder {
	b.whereNull(dialect.And, column, true)
	return b
}

// WhereInLiteral adds "column IN ('v1','v2',...)".
//
// The values are written into the SQL text as quoted literals. They are neither
// bound nor escaped, so they must never come from untrusted input. Use WhereIn
// with a subquery, or one bound predicate per value, for anything else.
func (b *Builder) WhereInLiteral(column string, values ...any) *Builder {
	b.whereLiteralIn(dialect.And, column, values, false)
	return b
}

// WhereNotInLiteral adds "column NOT IN ('v1','v2',...)". See WhereInLiteral.
func (b *Builder) WhereNotInLiteral(column string, values ...any) *Builder {
	b.whereLiteralIn(dialect.And, column, values, true)
	return b
}

// WhereIn adds "column IN (<subquery>)". The subquery's parameters are bound to
// the outer statement.
func (b *Builder) WhereIn(column string, fn SubQuery) *Builder {
	b.subquery(dialect.And, column, "IN", fn)
	return b
}

// WhereNotIn adds "column NOT IN (<subquery>)".
func (b *Builder) WhereNotIn(column string, fn SubQuery) *Builder {
	b.subquery(dialect.And, column, "NOT IN", fn)
	return b
}

// OrWhereIn adds "OR column IN (<subquery>)".
func (b *Builder) OrWhereIn(column string, fn SubQuery) *Builder {
	b.subquery(dialect.Or, column, "IN", fn)
	return b
}

// OrWhereNotIn adds "OR column NOT IN (<subquery>)".
func (b *Builder) OrWhereNotIn(column string, fn SubQuery) *Builder {
	b.subquery(dialect.Or, column, "NOT IN", fn)
	return b
}

// WhereSub adds "column op (<subquery>)" for any operator, e.g. "=" or ">".
// With an empty column it adds "op (<subquery>)", for EXISTS and NOT EXISTS.
func (b *Builder) WhereSub(column, op string, fn SubQuery) *Builder {
	b.subquery(dialect.And, column, op, fn)
	return b
}

// Wrap adds the predicates composed by fn as one parenthesised group.
//
//	b.Where("active", true).Wrap(func(g *netql.Builder) {
//	    g.Where("role", "admin").OrWhere("role", "owner")
//	})
//	// WHERE [active] = @active_1_0 AND ([role] = @role_2_0 OR [role] = @role_2_1)
func (b *Builder) Wrap(fn SubQuery) *Builder {
	b.wrap(dialect.And, fn)
	return b
}

// OrWrap is the OR form of Wrap.
func (b *Builder) OrWrap(fn SubQuery) *Builder {
	b.wrap(dialect.Or, fn)
	return b
}

// WhereStruct matches every mapped field of record. Nil pointer fields become
// IS NULL conditions.
func (b *Builder) WhereStruct(record any) *Builder {
	b.whereStruct(dialect.And, record)
	return b
}

// OrWhereStruct is the OR form of WhereStruct.
func (b *Builder) OrWhereStruct(record any) *Builder {
	b.whereStruct(dialect.Or, record)
	return b
}

// ----------------------------------------------------------------------------
// JOIN
// ----------------------------------------------------------------------------

// Join adds "INNER JOIN table ON left=right".
func (b *Builder) Join(table, left, right string) *Builder {
	return b.join(dialect.JoinInner, table, left, right)
}

// LeftJoin adds "LEFT JOIN table ON left=right".
func (b *Builder) LeftJoin(table, left, right string) *Builder {
	return b.join(dialect.JoinLeft, table, left, right)
}

// RightJoin adds "RIGHT JOIN table ON left=right".
func (b *Builder) RightJoin(table, left, right string) *Builder {
	return b.join(dialect.JoinRight, table, left, right)
}

// JoinSub adds "INNER JOIN (<subquery>) alias ON left=right". The subquery
// builder takes alias as its identity.
func (b *Builder) JoinSub(fn SubQuery, alias, left, right string) *Builder {
	return b.joinSub(dialect.JoinInner, fn, alias, left, right)
}

// LeftJoinSub is the LEFT form of JoinSub.
func (b *Builder) LeftJoinSub(fn SubQuery, alias, left, right string) *Builder {
	return b.joinSub(dialect.JoinLeft, fn, alias, left, right)
}

// RightJoinSub is the RIGHT form of JoinSub.
func (b *Builder) RightJoinSub(fn SubQuery, alias, left, right string) *Builder {
	return b.joinSub(dialect.JoinRight, fn, alias, left, right)
}

func (b *Builder) join(kind dialect.JoinKind, table, left, right string) *Builder {
	if !b.joinColumns(left, right) {
		return b
	}
	b.joins = append(b.joins, dialect.Join{
		Kind:  kind,
		Table: b.prefixed(table),
		Left:  left,
		Right: right,
	})
	return b
}

func (b *Builder) joinSub(kind dialect.JoinKind, fn SubQuery, alias, left, right string) *Builder {
	if fn == nil || !b.joinColumns(left, right) {
		return b
	}
	sub := b.child().Alias(alias)
	if sub.err != nil {
		b.fail(sub.err)
		return b
	}
	fn(sub)
	frag, err := sub.compile()
	if err != nil {
		b.fail(err)
		return b
	}
	b.joins = append(b.joins, dialect.Join{
		Kind:  kind,
		Table: "(" + frag.SQL + ") " + alias,
		Left:  left,
		Right: right,
		Child: &frag,
	})
	return b
}

// joinColumns checks the ON columns. Raw-marked text is not checked.
func (b *Builder) joinColumns(columns ...string) bool {
	for _, col := range columns {
		if _, raw := dialect.IsRaw(col); raw {
			continue
		}
		if err := validation.ValidateIdentifier(col); err != nil {
			b.fail(NewValidationError(col, "join column", err.Error()))
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// GROUP BY, ORDER BY, limits
// ----------------------------------------------------------------------------

// GroupBy appends columns ("a,b") to the GROUP BY list.
func (b *Builder) GroupBy(columns string) *Builder {
	b.groupBy = append(b.groupBy, splitColumns(columns)...)
	return b
}

// OrderBy sets the ORDER BY list and its direction. The direction applies to the
// list as a whole.
func (b *Builder) OrderBy(columns string, direction dialect.OrderDirection) *Builder {
	if direction != "" && !direction.IsValid() {
		b.fail(NewValidationError(string(direction), "order direction", "must be ASC or DESC"))
		return b
	}
	b.orders = splitColumns(columns)
	b.direction = direction
	return b
}

// Asc orders by columns ascending.
func (b *Builder) Asc(columns string) *Builder {
	return b.OrderBy(columns, dialect.OrderAsc)
}

// Desc orders by columns descending.
func (b *Builder) Desc(columns string) *Builder {
	return b.OrderBy(columns, dialect.OrderDesc)
}

// Limit returns at most n rows. Limit(0) renders a zero-row limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	b.offset = nil
	return b
}

// LimitRange skips start rows and returns at most length rows.
func (b *Builder) LimitRange(start, length int) *Builder {
	b.limit = &length
	b.offset = &start
	return b
}

// ForPage limits the result to page (1-based) of perPage rows.
func (b *Builder) ForPage(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	return b.LimitRange((page-1)*perPage, perPage)
}

// ----------------------------------------------------------------------------
// Transactions
// ----------------------------------------------------------------------------

// Transaction turns deferred mode on or off. In deferred mode the first
// statement begins a transaction that the builder keeps across statements; it
// is finished only by Commit or Rollback.
func (b *Builder) Transaction(enable bool) *Builder {
	b.useTx = enable
	return b
}

// UseTransaction runs the builder's statements inside tx. The builder never
// commits or rolls back tx on its own.
func (b *Builder) UseTransaction(tx *Transaction) *Builder {
	b.tx = tx
	b.useTx = tx != nil
	return b
}

// Commit commits the held transaction, if any, and turns deferred mode off:
// later statements commit on their own again.
func (b *Builder) Commit() error {
	tx := b.tx
	b.tx = nil
	b.useTx = false
	if tx == nil || tx.IsClosed() {
		return nil
	}
	return tx.Commit()
}

// Rollback rolls back the held transaction, if any. Deferred mode stays on.
func (b *Builder) Rollback() error {
	tx := b.tx
	b.tx = nil
	if tx == nil {
		return nil
	}
	return tx.Rollback()
}

// Tx returns the held transaction or nil.
func (b *Builder) Tx() *Transaction {
	return b.tx
}

// ----------------------------------------------------------------------------
// Rendering
// ----------------------------------------------------------------------------

func (b *Builder) compile() (dialect.Fragment, error) {
	if b.err != nil {
		return dialect.Fragment{}, b.err
	}
	return b.db.grammar.CompileSelect(b)
}

// Statement renders the SELECT and compiles it for the dialect's driver.
func (b *Builder) Statement() (Statement, error) {
	frag, err := b.compile()
	if err != nil {
		return Statement{}, err
	}
	return Compile(b.db.dialect, frag)
}

// ToSQL renders the SELECT in driver form. The builder is left untouched.
func (b *Builder) ToSQL() (string, []any, error) {
	st, err := b.Statement()
	if err != nil {
		return "", nil, err
	}
	return st.SQL, st.Args, nil
}

// Err returns the first composition error of the chain.
func (b *Builder) Err() error {
	return b.err
}

// Clone returns an independent copy of the builder, transaction included.
func (b *Builder) Clone() *Builder {
	out := *b
	out.columns = append([]string(nil), b.columns...)
	out.joins = append([]dialect.Join(nil), b.joins...)
	out.groupBy = append([]string(nil), b.groupBy...)
	out.orders = append([]string(nil), b.orders...)
	out.wheres = append([]dialect.Predicate(nil), b.wheres...)
	out.params = append([]dialect.Param(nil), b.params...)
	return &out
}

// Reset clears everything accumulated for the current statement. The identity
// and the transaction settings are kept.
func (b *Builder) Reset() *Builder {
	b.clauses.reset()
	b.head = ""
	b.table = ""
	b.columns = nil
	b.joins = nil
	b.groupBy = nil
	b.orders = nil
	b.direction = ""
	b.limit = nil
	b.offset = nil
	return b
}

// ----------------------------------------------------------------------------
// dialect.QueryBuilder
// ----------------------------------------------------------------------------

// GetHead returns the raw statement head set by Query.
func (b *Builder) GetHead() string { return b.head }

// GetTable returns the source table.
func (b *Builder) GetTable() string { return b.table }

// GetColumns returns the column list; empty means "*".
func (b *Builder) GetColumns() []string { return b.columns }

// GetJoins returns the joins in insertion order.
func (b *Builder) GetJoins() []dialect.Join { return b.joins }

// GetGroupBy returns the GROUP BY columns.
func (b *Builder) GetGroupBy() []string { return b.groupBy }

// GetOrders returns the ORDER BY columns.
func (b *Builder) GetOrders() []string { return b.orders }

// GetDirection returns the ORDER BY direction.
func (b *Builder) GetDirection() dialect.OrderDirection { return b.direction }

// GetLimit returns the row limit or nil.
func (b *Builder) GetLimit() *int { return b.limit }

// GetOffset returns the row offset or nil.
func (b *Builder) GetOffset() *int { return b.offset }
