package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	netql "github.com/biyonik/go-netql"
)

// selectFlags describes a SELECT on the command line.
type selectFlags struct {
	table   string
	columns string
	where   []string
	orWhere []string
	order   string
	desc    bool
	limit   int
	offset  int
}

func (s *selectFlags) register(f *pflag.FlagSet) {
	f.StringVar(&s.table, "table", "", "source table")
	f.StringVar(&s.columns, "columns", "*", "column list, e.g. id,name")
	f.StringArrayVar(&s.where, "where", nil, "condition column<op>value, e.g. id=5 or age>=18 (repeatable)")
	f.StringArrayVar(&s.orWhere, "or-where", nil, "OR condition, same syntax as --where (repeatable)")
	f.StringVar(&s.order, "order", "", "ORDER BY column list")
	f.BoolVar(&s.desc, "desc", false, "order descending")
	f.IntVar(&s.limit, "limit", -1, "row limit")
	f.IntVar(&s.offset, "offset", 0, "rows to skip (with --limit)")
}

// apply builds the SELECT on b.
func (s *selectFlags) apply(b *netql.Builder) (*netql.Builder, error) {
	if s.table == "" {
		return nil, fmt.Errorf("--table is required")
	}
	b.Select(s.columns, s.table)

	for _, cond := range s.where {
		column, op, value, err := parseCondition(cond)
		if err != nil {
			return nil, err
		}
		switch {
		case value == nil && op == "=":
			b.WhereNull(column)
		case value == nil && (op == "!=" || op == "<>"):
			b.WhereNotNull(column)
		default:
			b.WhereOp(column, op, value)
		}
	}
	for _, cond := range s.orWhere {
		column, op, value, err := parseCondition(cond)
		if err != nil {
			return nil, err
		}
		if value == nil && op == "=" {
			b.OrWhereNull(column)
			continue
		}
		b.OrWhereOp(column, op, value)
	}

	if s.order != "" {
		if s.desc {
			b.Desc(s.order)
		} else {
			b.Asc(s.order)
		}
	}
	if s.limit >= 0 {
		if s.offset > 0 {
			b.LimitRange(s.offset, s.limit)
		} else {
			b.Limit(s.limit)
		}
	}
	return b, b.Err()
}

// operators are matched longest first.
var operators = []string{">=", "<=", "!=", "<>", "=", ">", "<"}

// parseCondition splits "age>=18" into its parts. The value is typed when it
// looks like an integer, a float or a boolean; "null" is nil.
func parseCondition(cond string) (string, string, any, error) {
	for i := 0; i < len(cond); i++ {
		for _, op := range operators {
			if !strings.HasPrefix(cond[i:], op) {
				continue
			}
			column := strings.TrimSpace(cond[:i])
			if column == "" {
				return "", "", nil, fmt.Errorf("condition %q has no column", cond)
			}
			return column, op, typedValue(strings.TrimSpace(cond[i+len(op):])), nil
		}
	}
	return "", "", nil, fmt.Errorf("condition %q has no operator", cond)
}

func typedValue(s string) any {
	if strings.EqualFold(s, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (strings.EqualFold(s, "true") || strings.EqualFold(s, "false")) {
		return b
	}
	return strings.Trim(s, `'"`)
}
