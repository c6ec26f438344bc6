package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgchk/builddb"
	"pkgchk/check"
	"pkgchk/pkgenv"
	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/pkgopts"
)

func newCheckCmd() *cobra.Command {
	var opts pkgopts.Options

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare installed packages against source or binary packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportEnvFlags(); err != nil {
				return err
			}

			log := &pkglog.StdoutLogger{VerboseEnabled: opts.Verbose}
			env := pkgenv.New(log)
			ctx := context.Background()

			var recordRun bool
			var db *builddb.DB
			if path := viper.GetString("builddb"); path != "" {
				var err error
				db, err = builddb.OpenDB(path)
				if err != nil {
					return fmt.Errorf("open run history database: %w", err)
				}
				defer db.Close()
				recordRun = true
			}

			runID := uuid.New().String()
			if recordRun {
				if err := db.StartInvocation(runID, time.Now()); err != nil {
					return fmt.Errorf("record run start: %w", err)
				}
			}

			res, err := check.Run(ctx, opts, env, log, func(p pkgname.Pkgpath) {
				fmt.Println(p.String())
			})
			if err != nil {
				return err
			}
			if res == nil {
				return nil
			}

			if recordRun {
				if err := recordInvocation(db, runID, res); err != nil {
					log.Warn("failed to record run history: %v", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.DeleteMismatched, "delete", "r", false, "limit to installed pkgpaths, reporting mismatches for deletion")
	cmd.Flags().BoolVarP(&opts.Update, "update", "u", false, "limit to installed pkgpaths, reporting mismatches for in-place update")
	cmd.Flags().BoolVarP(&opts.AddMissing, "add", "a", false, "also pull in pkgpaths named by the tag-filtered config file")
	cmd.Flags().BoolVarP(&opts.BuildFromSource, "build-from-source", "s", false, "extract the latest PKGNAME per pkgpath from source (spawns make)")
	cmd.Flags().BoolVarP(&opts.CheckBuildVersion, "check-build-version", "B", false, "also flag installed packages newer than what source/binary provides")
	cmd.Flags().BoolVar(&opts.PrintPkgpathsToCheck, "print-pkgpaths-to-check", false, "print the resolved pkgpath set and exit without checking")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

func recordInvocation(db *builddb.DB, runID string, res *check.Result) error {
	missingDone := res.MissingDone()
	missingTodo := res.MissingTodo()
	mismatchTodo := res.MismatchTodo()

	stats := builddb.InvocationStats{
		Total:        len(missingDone) + len(missingTodo) + len(mismatchTodo),
		MissingDone:  len(missingDone),
		MissingTodo:  len(missingTodo),
		MismatchTodo: len(mismatchTodo),
	}

	for path := range missingDone {
		rec := &builddb.InvocationPkgpathRecord{Pkgpath: path.String(), Status: builddb.PkgpathStatusMissingDone}
		if err := db.PutInvocationPkgpath(runID, rec); err != nil {
			return err
		}
	}
	for _, path := range missingTodo {
		rec := &builddb.InvocationPkgpathRecord{Pkgpath: path.String(), Status: builddb.PkgpathStatusMissingTodo}
		if err := db.PutInvocationPkgpath(runID, rec); err != nil {
			return err
		}
	}
	for name := range mismatchTodo {
		rec := &builddb.InvocationPkgpathRecord{Pkgpath: string(name.Base), Status: builddb.PkgpathStatusMismatchTodo}
		if err := db.PutInvocationPkgpath(runID, rec); err != nil {
			return err
		}
	}

	return db.FinishInvocation(runID, stats, time.Now(), false)
}
