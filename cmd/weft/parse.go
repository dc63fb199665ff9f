package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/parser"
)

func newParseCmd(a *app) *cobra.Command {
	var this string

	cmd := &cobra.Command{
		Use:   "parse <pointcut>",
		Short: "Parse a pointcut and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if this != "" {
				src = parser.Substitute(src, this)
			}
			expr, err := parser.Parse(src)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, expr.String())
			for _, ref := range ast.Refs(expr) {
				fmt.Fprintf(out, "  references %s\n", ref)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&this, "this", "", "Aspect id substituted for $this")
	return cmd
}
