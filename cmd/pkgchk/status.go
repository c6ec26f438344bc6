package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgchk/builddb"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a `pkgchk check` run is still in progress (finished runs are not listed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("builddb")
			if path == "" {
				return fmt.Errorf("status requires --builddb (or $PKGCHK_BUILDDB) to be set")
			}

			db, err := builddb.OpenDB(path)
			if err != nil {
				return err
			}
			defer db.Close()

			if runID, rec, err := db.ActiveInvocation(); err != nil {
				return err
			} else if rec != nil {
				fmt.Printf("run %s started %s is still in progress\n", runID, rec.StartTime.Format("2006-01-02 15:04:05"))
				return nil
			}

			fmt.Println("no run is currently in progress")
			return nil
		},
	}
}
