package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	symex "github.com/jilvan1234/VTIL-SymEx"
)

func newInspectCommand(opt *Options) *cobra.Command {
	var dump, simplify bool
	cmd := &cobra.Command{
		Use:   "inspect <expr>",
		Short: "Print the derived properties of an expression.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opt.parse(args[0])
			if err != nil {
				return err
			}
			if simplify {
				r.Simplify(opt.config.Prettify)
			}

			w := cmd.OutOrStdout()
			printExpr(w, r.Get())
			if dump {
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
				cfg.Fdump(w, r.Get())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the tree")
	cmd.Flags().BoolVarP(&simplify, "simplify", "s", false, "simplify before inspecting")
	return cmd
}

func printExpr(w io.Writer, e *symex.Expr) {
	label := color.New(color.FgCyan).SprintFunc()
	field := func(name string, format string, args ...interface{}) {
		fmt.Fprintf(w, "%s %s\n", label(fmt.Sprintf("%-11s", name)), fmt.Sprintf(format, args...))
	}

	set := symex.NewVariableSet()
	unique := e.CountUniqueVariables(set)
	names := make([]string, 0, unique)
	for _, id := range set.Identifiers() {
		names = append(names, id.Name())
	}

	field("expression", "%s", e)
	field("size", "%d", e.Size())
	field("depth", "%d", e.Depth())
	field("complexity", "%g", e.Complexity())
	field("hash", "%016x", e.Hash())
	field("value", "%s", e.Value())
	field("constants", "%d", e.CountConstants())
	field("variables", "%d", e.CountVariables())
	field("unique", "%d [%s]", unique, strings.Join(names, " "))
}
