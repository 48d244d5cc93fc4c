package netql

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/mitranim/sqlp"

	"github.com/biyonik/go-netql/dialect"
)

// Statement is a rendered statement ready for database/sql.
//
// Named holds the text as rendered (with "@name" or ":name" placeholders) and
// Params the parameters it references. SQL and Args are the same statement in
// the placeholder form the dialect's driver accepts.
type Statement struct {
	Named  string
	Params []dialect.Param
	SQL    string
	Args   []any
}

// Compile converts a rendered fragment into a Statement for d. Placeholders
// inside quoted literals and comments are left alone, and so are placeholders
// that do not name a parameter of the fragment (e.g. "@@IDENTITY").
func Compile(d dialect.Dialect, frag dialect.Fragment) (st Statement, err error) {
	c := argCompiler{
		d:       d,
		byName:  make(map[string]dialect.Param, len(frag.Params)),
		ordinal: make(map[string]int, len(frag.Params)),
	}
	for _, p := range frag.Params {
		c.byName[p.Name] = p
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("netql: cannot tokenize statement %q: %v", frag.SQL, r)
		}
	}()

	tokenizer := sqlp.Tokenizer{Source: frag.SQL}
	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeNamedParam:
			p, ok := c.byName[string(node)]
			if ok && d.BindSymbol == ":" {
				if err := c.emit(p); err != nil {
					return Statement{}, err
				}
				continue
			}
			node.Append(&c.out)

		case sqlp.NodeText:
			if err := c.text(string(node)); err != nil {
				return Statement{}, err
			}

		default:
			node.Append(&c.out)
		}
	}

	return Statement{
		Named:  frag.SQL,
		Params: frag.Params,
		SQL:    string(c.out),
		Args:   c.args,
	}, nil
}

type argCompiler struct {
	d       dialect.Dialect
	byName  map[string]dialect.Param
	ordinal map[string]int
	out     []byte
	args    []any
}

// text copies a plain-text node, replacing "<symbol><name>" occurrences that
// name a known parameter. Only single-character bind symbols other than ":" are
// looked for here; ":name" arrives as its own node.
func (c *argCompiler) text(s string) error {
	sym := c.d.BindSymbol
	if len(sym) != 1 || sym == ":" {
		c.out = append(c.out, s...)
		return nil
	}
	for i := 0; i < len(s); {
		if s[i] != sym[0] {
			c.out = append(c.out, s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		p, ok := c.byName[s[i+1:j]]
		if j == i+1 || !ok {
			c.out = append(c.out, s[i])
			i++
			continue
		}
		if err := c.emit(p); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func (c *argCompiler) emit(p dialect.Param) error {
	value, err := bindValue(p)
	if err != nil {
		return err
	}
	switch c.d.Args {
	case dialect.ArgQuestion:
		c.out = append(c.out, '?')
		c.args = append(c.args, value)
	case dialect.ArgDollar:
		n, seen := c.ordinal[p.Name]
		if !seen {
			c.args = append(c.args, value)
			n = len(c.args)
			c.ordinal[p.Name] = n
		}
		c.out = append(c.out, '$')
		c.out = strconv.AppendInt(c.out, int64(n), 10)
	default:
		c.out = append(c.out, c.d.BindSymbol...)
		c.out = append(c.out, p.Name...)
		if _, seen := c.ordinal[p.Name]; !seen {
			c.ordinal[p.Name] = len(c.args)
			c.args = append(c.args, sql.Named(p.Name, value))
		}
	}
	return nil
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
