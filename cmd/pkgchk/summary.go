package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pkgchk/pkgenv"
	"pkgchk/pkglog"
	"pkgchk/summary"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Inspect the binary package summary",
	}
	cmd.AddCommand(newSummaryShowCmd())
	cmd.AddCommand(newSummaryRefreshCmd())
	return cmd
}

func newSummaryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every PKGNAME currently present in the binary package summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportEnvFlags(); err != nil {
				return err
			}
			env := pkgenv.New(&pkglog.StdoutLogger{})
			sum, err := env.BinPkgSummary.Get(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(sum))
			for name := range sum {
				names = append(names, name.String())
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func newSummaryRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute the summary straight from the binary packages, bypassing any cached pkg_summary file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportEnvFlags(); err != nil {
				return err
			}
			env := pkgenv.New(&pkglog.StdoutLogger{})
			packages, err := env.Packages.Get(cmd.Context())
			if err != nil {
				return err
			}
			pkgInfo, err := env.PkgInfo.Get(cmd.Context())
			if err != nil {
				return err
			}
			pkgSufx, err := env.PkgSufx.Get(cmd.Context())
			if err != nil {
				return err
			}
			sum, err := summary.Refresh(packages, pkgInfo, pkgSufx)
			if err != nil {
				return err
			}
			fmt.Printf("refreshed summary: %d packages\n", len(sum))
			return nil
		},
	}
}
