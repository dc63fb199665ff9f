package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/weft/pkg/store"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the report cache",
	}

	open := func() (*store.Store, error) {
		if a.cfg.CachePath == "" {
			return nil, errors.New("no report cache configured (set cache_path or WEFT_CACHE)")
		}
		return store.New(&store.Config{DBPath: a.cfg.CachePath, Logger: a.logger})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached report digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			digests, err := s.Digests()
			if err != nil {
				return err
			}
			for _, d := range digests {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	})

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached reports older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Prune(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d reports\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Age of reports to delete")
	cmd.AddCommand(prune)

	return cmd
}
