package netql

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/samber/lo"

	"github.com/biyonik/go-netql/dialect"
	"github.com/biyonik/go-netql/internal/validation"
)

type mutationKind int

const (
	kindInsert mutationKind = iota
	kindUpdate
	kindDelete
)

func (k mutationKind) String() string {
	switch k {
	case kindInsert:
		return "insert"
	case kindUpdate:
		return "update"
	case kindDelete:
		return "delete"
	}
	return "unknown"
}

// Mutation composes an INSERT, UPDATE or DELETE. It runs through the execution
// scope of the builder that created it, so it shares that builder's transaction
// settings.
//
//	_, err := db.Insert("users").
//	    AddValue("name", "Ann").
//	    AddValue("age", 30).
//	    Execute(nil)
type Mutation struct {
	clauses

	src    *Builder
	kind   mutationKind
	table  string
	values []dialect.Value
	rows   [][]dialect.Value
}

var _ dialect.MutationBuilder = (*Mutation)(nil)

// Insert starts an INSERT into table.
func (b *Builder) Insert(table string) *Mutation {
	return b.mutation(kindInsert, table)
}

// Update starts an UPDATE of table.
func (b *Builder) Update(table string) *Mutation {
	return b.mutation(kindUpdate, table)
}

// Delete starts a DELETE from table.
func (b *Builder) Delete(table string) *Mutation {
	return b.mutation(kindDelete, table)
}

func (b *Builder) mutation(kind mutationKind, table string) *Mutation {
	return &Mutation{
		clauses: clauses{db: b.db, ident: b.ident, err: b.err},
		src:     b,
		kind:    kind,
		table:   b.prefixed(table),
	}
}

// ----------------------------------------------------------------------------
// Values
// ----------------------------------------------------------------------------

// valueName returns <column>_<identity>_v<index>.
func (m *Mutation) valueName(column string) string {
	return validation.BindName(column) + "_" + m.ident + "_v" + strconv.Itoa(len(m.values))
}

func (m *Mutation) addValue(column string, value any, typ dialect.ValueType, bind dialect.BindFunc) *Mutation {
	if value == nil {
		return m.AddRawValue(column, "NULL")
	}
	if s, ok := value.(string); ok {
		if text, raw := dialect.IsRaw(s); raw {
			return m.AddRawValue(column, text)
		}
	}
	m.values = append(m.values, dialect.Value{
		Column: column,
		Param:  dialect.Param{Name: m.valueName(column), Value: value, Type: typ},
		Bind:   bind,
	})
	return m
}

// AddValue sets column to value. A nil value is written as NULL.
func (m *Mutation) AddValue(column string, value any) *Mutation {
	return m.addValue(column, value, dialect.TypeAuto, nil)
}

// AddValueAs sets column to value bound as typ.
func (m *Mutation) AddValueAs(column string, value any, typ dialect.ValueType) *Mutation {
	return m.addValue(column, value, typ, nil)
}

// AddValueBind sets column to bind(placeholder).
//
//	m.AddValueBind("email", email, func(p string) string { return "LOWER(" + p + ")" })
func (m *Mutation) AddValueBind(column string, value any, bind dialect.BindFunc) *Mutation {
	return m.addValue(column, value, dialect.TypeAuto, bind)
}

// AddRawValue sets column to sql, written verbatim.
func (m *Mutation) AddRawValue(column, sql string) *Mutation {
	if text, raw := dialect.IsRaw(sql); raw {
		sql = text
	}
	m.values = append(m.values, dialect.Value{Column: column, Raw: true, Text: sql})
	return m
}

// SetValue is AddValue, for UPDATE chains.
func (m *Mutation) SetValue(column string, value any) *Mutation {
	return m.AddValue(column, value)
}

// SetRawValue is AddRawValue, for UPDATE chains.
func (m *Mutation) SetRawValue(column, sql string) *Mutation {
	return m.AddRawValue(column, sql)
}

// Bulk adds one VALUES tuple per record. records is a slice or array of
// structs (or pointers to them); a single struct adds a single tuple. Fields
// whose name or column starts with "_" are left out.
//
//	db.Insert("users").Bulk([]User{{Name: "Ann"}, {Name: "Bob"}}).Execute(nil)
func (m *Mutation) Bulk(records any) *Mutation {
	rv := reflect.ValueOf(records)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return m.bulkRow(records)
	}
	if rv.Len() == 0 {
		m.fail(dialect.ErrEmptyBatch)
		return m
	}
	for i := 0; i < rv.Len(); i++ {
		m.bulkRow(rv.Index(i).Interface())
	}
	return m
}

func (m *Mutation) bulkRow(record any) *Mutation {
	rv, shape, err := recordOf(record)
	if err != nil {
		m.fail(err)
		return m
	}
	suffix := "_" + m.ident + "_r" + strconv.Itoa(len(m.rows))
	row := lo.Map(shape.values(rv), func(cv columnValue, _ int) dialect.Value {
		return dialect.Value{
			Column: cv.column,
			Param:  dialect.Param{Name: validation.BindName(cv.column) + suffix, Value: cv.value},
		}
	})
	m.rows = append(m.rows, row)
	return m
}

// SetBulk sets one value per mapped field of record, for UPDATE ... SET. Passing
// a slice or array is a composition error (ErrBulkArray).
func (m *Mutation) SetBulk(record any) *Mutation {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		m.fail(ErrBulkArray)
		return m
	}
	rv, shape, err := recordOf(record)
	if err != nil {
		m.fail(err)
		return m
	}
	for _, cv := range shape.values(rv) {
		m.AddValue(cv.column, cv.value)
	}
	return m
}

// ----------------------------------------------------------------------------
// WHERE
// ----------------------------------------------------------------------------

// Where adds "column = value".
func (m *Mutation) Where(column string, value any) *Mutation {
	m.where(dialect.And, column, "=", value, dialect.TypeAuto, nil)
	return m
}

// WhereOp adds "column op value".
func (m *Mutation) WhereOp(column, op string, value any) *Mutation {
	m.where(dialect.And, column, op, value, dialect.TypeAuto, nil)
	return m
}

// WhereAs adds "column = value" with value bound as typ.
func (m *Mutation) WhereAs(column string, value any, typ dialect.ValueType) *Mutation {
	m.where(dialect.And, column, "=", value, typ, nil)
	return m
}

// WhereBind adds "column op bind(placeholder)".
func (m *Mutation) WhereBind(column, op string, value any, bind dialect.BindFunc) *Mutation {
	m.where(dialect.And, column, op, value, dialect.TypeAuto, bind)
	return m
}

// OrWhere adds "OR column = value".
func (m *Mutation) OrWhere(column string, value any) *Mutation {
	m.where(dialect.Or, column, "=", value, dialect.TypeAuto, nil)
	return m
}

// OrWhereOp adds "OR column op value".
func (m *Mutation) OrWhereOp(column, op string, value any) *Mutation {
	m.where(dialect.Or, column, op, value, dialect.TypeAuto, nil)
	return m
}

// WhereRaw adds sql verbatim.
func (m *Mutation) WhereRaw(sql string) *Mutation {
	m.whereRaw(dialect.And, sql)
	return m
}

// OrWhereRaw adds "OR sql" verbatim.
func (m *Mutation) OrWhereRaw(sql string) *Mutation {
	m.whereRaw(dialect.Or, sql)
	return m
}

// WhereRawOp adds "column op text" with text inserted verbatim.
func (m *Mutation) WhereRawOp(column, op, text string) *Mutation {
	m.whereRawOp(dialect.And, column, op, text)
	return m
}

// WhereNull adds "column IS NULL".
func (m *Mutation) WhereNull(column string) *Mutation {
	m.whereNull(dialect.And, column, false)
	return m
}

// WhereNotNull adds "column IS NOT NULL".
func (m *Mutation) WhereNotNull(column string) *Mutation {
	m.whereNull(dialect.And, column, true)
	return m
}

// WhereInLiteral adds "column IN ('v1',...)" with unbound, unescaped values.
// See Builder.WhereInLiteral.
func (m *Mutation) WhereInLiteral(column string, values ...any) *Mutation {
	m.whereLiteralIn(dialect.And, column, values, false)
	return m
}

// WhereNotInLiteral adds "column NOT IN ('v1',...)".
func (m *Mutation) WhereNotInLiteral(column string, values ...any) *Mutation {
	m.whereLiteralIn(dialect.And, column, values, true)
	return m
}

// WhereIn adds "column IN (<subquery>)".
func (m *Mutation) WhereIn(column string, fn SubQuery) *Mutation {
	m.subquery(dialect.And, column, "IN", fn)
	return m
}

// WhereNotIn adds "column NOT IN (<subquery>)".
func (m *Mutation) WhereNotIn(column string, fn SubQuery) *Mutation {
	m.subquery(dialect.And, column, "NOT IN", fn)
	return m
}

// Wrap adds the predicates composed by fn as one parenthesised group.
func (m *Mutation) Wrap(fn SubQuery) *Mutation {
	m.wrap(dialect.And, fn)
	return m
}

// OrWrap is the OR form of Wrap.
func (m *Mutation) OrWrap(fn SubQuery) *Mutation {
	m.wrap(dialect.Or, fn)
	return m
}

// WhereStruct matches every mapped field of record.
func (m *Mutation) WhereStruct(record any) *Mutation {
	m.whereStruct(dialect.And, record)
	return m
}

// ----------------------------------------------------------------------------
// Rendering and execution
// ----------------------------------------------------------------------------

func (m *Mutation) compile() (dialect.Fragment, error) {
	if m.err != nil {
		return dialect.Fragment{}, m.err
	}
	g := m.db.grammar
	switch m.kind {
	case kindInsert:
		return g.CompileInsert(m)
	case kindUpdate:
		return g.CompileUpdate(m)
	case kindDelete:
		return g.CompileDelete(m)
	}
	return dialect.Fragment{}, fmt.Errorf("netql: unknown statement kind %d", int(m.kind))
}

// Statement renders the statement and compiles it for the dialect's driver.
func (m *Mutation) Statement() (Statement, error) {
	frag, err := m.compile()
	if err != nil {
		return Statement{}, err
	}
	return Compile(m.db.dialect, frag)
}

// ToSQL renders the statement in driver form.
func (m *Mutation) ToSQL() (string, []any, error) {
	st, err := m.Statement()
	if err != nil {
		return "", nil, err
	}
	return st.SQL, st.Args, nil
}

// Err returns the first composition error of the chain.
func (m *Mutation) Err() error {
	return m.err
}

// ExecuteContext runs the statement inside a transaction: the held one when
// the builder has one, a new one otherwise. fn, when not nil, receives the
// result before the transaction is committed; an error from fn rolls it back.
//
// The returned transaction is the one the statement ran in. Unless the builder
// is in deferred mode it has already been committed or rolled back.
func (m *Mutation) ExecuteContext(ctx context.Context, fn func(*QueryResult) error) (*Transaction, error) {
	defer m.reset()

	st, err := m.Statement()
	if err != nil {
		m.src.Reset()
		return nil, WrapError(m.kind.String(), err)
	}
	return m.src.scope(ctx, true, func(ctx context.Context, q QueryExecutor) error {
		res, err := m.db.exec(ctx, q, st)
		if err != nil {
			return err
		}
		if fn != nil {
			return fn(res)
		}
		return nil
	})
}

// Execute is ExecuteContext with context.Background().
func (m *Mutation) Execute(fn func(*QueryResult) error) (*Transaction, error) {
	return m.ExecuteContext(context.Background(), fn)
}

func (m *Mutation) reset() {
	m.clauses.reset()
	m.values = nil
	m.rows = nil
}

// ----------------------------------------------------------------------------
// dialect.MutationBuilder
// ----------------------------------------------------------------------------

// GetTable returns the target table.
func (m *Mutation) GetTable() string { return m.table }

// GetValues returns the single-row values.
func (m *Mutation) GetValues() []dialect.Value { return m.values }

// GetRows returns the bulk rows.
func (m *Mutation) GetRows() [][]dialect.Value { return m.rows }
