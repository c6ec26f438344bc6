// Command pkgchk compares a pkgsrc installation's installed packages
// against what the pkgsrc tree (or a binary package repository)
// currently provides, reporting packages that are missing, obsolete,
// or out of date.
//
// Grounded on the teacher's go-synth/main.go: one root *cobra.Command
// with persistent flags bound through viper, each overridable by an
// environment variable of the same name, and one subcommand per
// top-level operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var envFlags = []struct {
	name string
	env  string
	def  string
}{
	{"pkgsrcdir", "PKGSRCDIR", "/usr/pkgsrc"},
	{"packages", "PACKAGES", ""},
	{"pkg-dbdir", "PKG_DBDIR", "/var/db/pkg"},
	{"pkgchk-conf", "PKGCHK_CONF", "/usr/pkg/etc/pkgchk.conf"},
	{"pkgchk-tags", "PKGCHK_TAGS", ""},
	{"pkgchk-notags", "PKGCHK_NOTAGS", ""},
	{"pkg-info", "PKG_INFO", "pkg_info"},
	{"pkg-add", "PKG_ADD", "pkg_add"},
	{"pkg-admin", "PKG_ADMIN", "pkg_admin"},
	{"pkg-delete", "PKG_DELETE", "pkg_delete"},
	{"builddb", "PKGCHK_BUILDDB", ""},
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pkgchk",
		Short: "Check installed pkgsrc packages against source or binary packages",
	}

	for _, f := range envFlags {
		root.PersistentFlags().String(f.name, f.def, fmt.Sprintf("overrides $%s", f.env))
		viper.BindPFlag(f.name, root.PersistentFlags().Lookup(f.name))
		viper.BindEnv(f.name, f.env)
		viper.SetDefault(f.name, f.def)
	}

	root.AddCommand(newCheckCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newStatusCmd())

	return root
}

// exportEnvFlags pushes viper's resolved values (flag, then env var,
// then default, in that order of precedence) back into the process
// environment so pkgenv.New, which reads os.Getenv directly the way
// original pkg_chk reads its environment, sees whatever the CLI
// resolved regardless of whether it came from a flag or the
// environment already.
func exportEnvFlags() error {
	for _, f := range envFlags {
		v := viper.GetString(f.name)
		if v == "" {
			continue
		}
		if err := os.Setenv(f.env, v); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
