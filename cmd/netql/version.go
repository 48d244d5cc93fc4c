package main

import (
	"fmt"

	"github.com/spf13/cobra"

	netql "github.com/biyonik/go-netql"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netql %s\n", netql.Version)
	},
}
