package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newWeaveCmd(a *app) *cobra.Command {
	var (
		in      inputs
		outPath string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "weave",
		Short: "Weave aspects against a model and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.weave(&in)
			if err != nil {
				return err
			}

			if summary {
				out := cmd.OutOrStdout()
				for _, c := range w.report.Chains {
					fmt.Fprintf(out, "%s\n", c.Key)
					for _, ref := range c.Advice {
						fmt.Fprintf(out, "  %-13s %s (order %d)\n", ref.Kind, ref, ref.Order)
					}
				}
				fmt.Fprintf(out, "\n%d woven, %d unwoven, digest %s\n", len(w.report.Chains), len(w.report.Unwoven), w.report.Digest())
				return nil
			}

			data, err := w.report.Encode()
			if err != nil {
				return err
			}
			if outPath != "" {
				return os.WriteFile(outPath, data, 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report here instead of stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a readable summary instead of JSON")
	return cmd
}
