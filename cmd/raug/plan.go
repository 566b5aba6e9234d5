package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "plan PATCH",
		Short: "Print the compiled schedule of a patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.build(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, r.Plan())
			if dump {
				cfg := spew.ConfigState{
					Indent:                  "  ",
					DisablePointerAddresses: true,
					DisableCapacities:       true,
					SortKeys:                true,
				}
				cfg.Fdump(out, r.Plan().Steps)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the resolved steps")
	return cmd
}

func newParamsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "params PATCH",
		Short: "List the parameters of a patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.build(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVALUE\tSMOOTHING\tRANGE")
			for _, name := range r.ParamNames() {
				p, err := r.ParamNamed(name)
				if err != nil {
					return err
				}
				d, policy := p.Smoothing()
				rng := "-"
				if lo, hi, ok := p.Range(); ok {
					rng = fmt.Sprintf("[%g, %g]", lo, hi)
				}
				fmt.Fprintf(w, "%s\t%g\t%v %v\t%s\n", name, p.Get(), d, policy, rng)
			}
			return w.Flush()
		},
	}
}
