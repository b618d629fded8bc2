package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSimplifyCommand(opt *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "simplify <expr>...",
		Short: "Simplify expressions.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := color.New(color.FgGreen).SprintFunc()
			for _, src := range args {
				r, err := opt.parse(src)
				if err != nil {
					return err
				}
				before := r.Get().Complexity()
				r.Simplify(opt.config.Prettify)

				log.WithFields(log.Fields{
					"before": before,
					"after":  r.Get().Complexity(),
				}).Debugf("simplified %s", src)
				fmt.Fprintln(cmd.OutOrStdout(), result(r.String()))
				r.Release()
			}

			st := opt.simplifier.Stats()
			log.WithFields(log.Fields{
				"hits":     st.Hits,
				"misses":   st.Misses,
				"rewrites": st.Rewrites,
			}).Debug("simplifier stats")
			return nil
		},
	}
}

func newResizeCommand(opt *Options) *cobra.Command {
	var signed bool
	cmd := &cobra.Command{
		Use:   "resize <expr> <width>",
		Short: "Change the width of an expression.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil || w == 0 || w > 64 {
				return errors.Errorf("invalid width: %s", args[1])
			}

			r, err := opt.parse(args[0])
			if err != nil {
				return err
			}
			r.Own().Resize(uint(w), signed)
			r.Simplify(opt.config.Prettify)

			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprint(r.String()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&signed, "signed", "s", false, "sign extend")
	return cmd
}

func newEqualsCommand(opt *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "equals <expr> <expr>",
		Short: "Compare two expressions structurally.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opt.parse(args[0])
			if err != nil {
				return err
			}
			b, err := opt.parse(args[1])
			if err != nil {
				return err
			}
			a.Simplify(opt.config.Prettify)
			b.Simplify(opt.config.Prettify)

			if a.Equals(b) {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprint("true"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgRed).Sprint("false"))
			}
			return nil
		},
	}
}
