package main

import (
	"github.com/spf13/cobra"

	"github.com/biyonik/go-netql/dialect"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the supported dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeYAML(dialectTable())
	},
}

type dialectInfo struct {
	Name        string `yaml:"name"`
	Quote       string `yaml:"quote"`
	Bind        string `yaml:"bind"`
	Placeholder string `yaml:"placeholder"`
	Paging      string `yaml:"paging"`
}

func dialectTable() []dialectInfo {
	var out []dialectInfo
	for _, p := range dialect.Providers() {
		d := dialect.MustFor(p)
		info := dialectInfo{
			Name:   d.Name(),
			Quote:  d.StartQuote + "name" + d.EndQuote,
			Bind:   d.Placeholder("name"),
			Paging: "LIMIT n OFFSET m",
		}
		switch d.Args {
		case dialect.ArgQuestion:
			info.Placeholder = "?"
		case dialect.ArgDollar:
			info.Placeholder = "$n"
		default:
			info.Placeholder = d.Placeholder("name")
		}
		if d.Limit == dialect.OffsetFetch {
			info.Paging = "OFFSET m ROWS FETCH NEXT n ROWS ONLY"
		}
		out = append(out, info)
	}
	return out
}
