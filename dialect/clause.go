package dialect

// ----------------------------------------------------------------------------
// Builder views (import cycle breakers)
// ----------------------------------------------------------------------------

// QueryBuilder is the read-only view of a SELECT builder the Grammar renders from.
type QueryBuilder interface {
	GetHead() string
	GetTable() string
	GetColumns() []string
	GetJoins() []Join
	GetWheres() []Predicate
	GetGroupBy() []string
	GetOrders() []string
	GetDirection() OrderDirection
	GetLimit() *int
	GetOffset() *int
	GetParams() []Param
}

// MutationBuilder is the read-only view of an INSERT/UPDATE/DELETE builder.
type MutationBuilder interface {
	GetTable() string
	GetValues() []Value
	GetRows() [][]Value
	GetWheres() []Predicate
	GetParams() []Param
}

// ----------------------------------------------------------------------------
// Parameters and fragments
// ----------------------------------------------------------------------------

// Param is a named bind parameter. A nil Value binds the engine's NULL.
type Param struct {
	Name  string
	Value any
	Type  ValueType
}

// BindFunc rewrites a placeholder before it is emitted, e.g. to wrap it in a
// function call: func(p string) string { return "LOWER(" + p + ")" }.
type BindFunc func(placeholder string) string

// Fragment is rendered SQL text together with every parameter it references.
// Nested builders hand their output to the parent as a Fragment.
type Fragment struct {
	SQL    string
	Params []Param
}

// Merge concatenates parameter lists in order and rejects a name that appears twice.
func Merge(lists ...[]Param) ([]Param, error) {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]Param, 0, n)
	seen := make(map[string]struct{}, n)
	for _, l := range lists {
		for _, p := range l {
			if _, dup := seen[p.Name]; dup {
				return nil, &DialectError{Message: "duplicate bind parameter " + p.Name, Err: ErrDuplicateParam}
			}
			seen[p.Name] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// WHERE predicates
// ----------------------------------------------------------------------------

// Connector joins a predicate to the one before it.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// PredicateKind tells how the right-hand side of a predicate is produced.
type PredicateKind int

const (
	// PredicateBound binds Param and renders its placeholder.
	PredicateBound PredicateKind = iota
	// PredicateRaw renders Text verbatim.
	PredicateRaw
	// PredicateSub renders Text, a nested statement, and carries the nested
	// statement's parameters in Child.
	PredicateSub
)

// Predicate is one WHERE condition. A predicate without Column renders only its
// right-hand side (raw text or a wrapped group), prefixed by Operator for
// subqueries such as EXISTS.
type Predicate struct {
	Connector Connector
	Kind      PredicateKind
	Column    string
	Operator  string
	Param     Param
	Bind      BindFunc
	Text      string
	Child     *Fragment
}

// Params returns the parameters the predicate contributes to its statement.
func (p Predicate) Params() []Param {
	switch p.Kind {
	case PredicateBound:
		return []Param{p.Param}
	case PredicateSub:
		if p.Child != nil {
			return p.Child.Params
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// ORDER BY
// ----------------------------------------------------------------------------

// OrderDirection is the sort direction applied to the whole ORDER BY list.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// IsValid reports whether d is ASC or DESC.
func (d OrderDirection) IsValid() bool {
	return d == OrderAsc || d == OrderDesc
}

// ----------------------------------------------------------------------------
// JOIN
// ----------------------------------------------------------------------------

// JoinKind is the join keyword.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
)

// Join renders as " <KIND> JOIN <Table> ON <Left>=<Right>". When Child is set,
// Table already holds "(<subquery>) <alias>".
type Join struct {
	Kind  JoinKind
	Table string
	Left  string
	Right string
	Child *Fragment
}

// Params returns the parameters of a subquery join.
func (j Join) Params() []Param {
	if j.Child == nil {
		return nil
	}
	return j.Child.Params
}

// ----------------------------------------------------------------------------
// INSERT / UPDATE values
// ----------------------------------------------------------------------------

// Value is one column of an INSERT or UPDATE payload.
type Value struct {
	Column string
	Raw    bool
	Text   string
	Param  Param
	Bind   BindFunc
}
