package pkgenv

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"pkgchk/harness"
	"pkgchk/pkgdb"
	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/strutil"
	"pkgchk/summary"
	"pkgchk/xargsfold"
)

// Environment is the full set of facts a check run may need, each
// held behind a Future so that asking for one never forces the
// others to be computed. Construct with New; the zero value has no
// working Futures.
type Environment struct {
	PkgPath          *Future[[]pkgname.Pkgpath]
	MachineArch      *Future[string]
	Makeconf         *Future[string]
	Opsys            *Future[string]
	OSVersion        *Future[string]
	Pkgsrcdir        *Future[string]
	Packages         *Future[string]
	PkgAdd           *Future[string]
	PkgAdmin         *Future[string]
	PkgDBDir         *Future[string]
	PkgDelete        *Future[string]
	PkgInfo          *Future[string]
	PkgSufx          *Future[string]
	PkgchkConf       *Future[string]
	PkgchkNotags     *Future[string]
	PkgchkTags       *Future[string]
	PkgchkUpdateConf *Future[string]
	SuCmd            *Future[string]

	BinPkgSummary                 *Future[summary.Summary]
	BinPkgMap                     *Future[summary.Pkgmap]
	InstalledPkgnames             *Future[[]pkgname.Pkgname]
	InstalledPkgpaths             *Future[[]pkgname.Pkgpath]
	InstalledPkgSummary           *Future[summary.Summary]
	InstalledPkgbases             *Future[[]pkgname.Pkgbase]
	InstalledPkgpathsWithPkgnames *Future[map[pkgname.Pkgpath][]pkgname.Pkgname]
	IncludedTags                  *Future[pkgname.Tagset]
	ExcludedTags                  *Future[pkgname.Tagset]
}

// New builds an Environment whose scalar fields read from the OS
// environment (falling back to the same defaults original pkg_chk
// uses) and whose derived fields chain off them and off pkgdb/summary
// queries run through harness. log receives the diagnostic messages
// that reading the environment can itself produce (e.g. BinPkgSummary
// falling back past a stale local summary file).
func New(log pkglog.Logger) *Environment {
	e := &Environment{}

	e.MachineArch = NewFuture(func(ctx context.Context) (string, error) {
		v, err := unameField(ctx, "-p")
		if err != nil {
			return "", &FatalEnvironmentError{Field: "MACHINE_ARCH", Err: err}
		}
		return v, nil
	})
	e.Opsys = NewFuture(func(ctx context.Context) (string, error) {
		v, err := unameField(ctx, "-s")
		if err != nil {
			return "", &FatalEnvironmentError{Field: "OPSYS", Err: err}
		}
		return v, nil
	})
	e.OSVersion = NewFuture(func(ctx context.Context) (string, error) {
		v, err := unameField(ctx, "-r")
		if err != nil {
			return "", &FatalEnvironmentError{Field: "OS_VERSION", Err: err}
		}
		return v, nil
	})

	e.Pkgsrcdir = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKGSRCDIR", "/usr/pkgsrc"), nil
	})
	e.Makeconf = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("MAKECONF", "/etc/mk.conf"), nil
	})
	e.Packages = NewFuture(func(ctx context.Context) (string, error) {
		if v := os.Getenv("PACKAGES"); v != "" {
			return v, nil
		}
		dir, err := e.Pkgsrcdir.Get(ctx)
		if err != nil {
			return "", err
		}
		arch, err := e.MachineArch.Get(ctx)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "packages", arch), nil
	})

	e.PkgAdd = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_ADD", "pkg_add"), nil
	})
	e.PkgAdmin = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_ADMIN", "pkg_admin"), nil
	})
	e.PkgDelete = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_DELETE", "pkg_delete"), nil
	})
	e.PkgInfo = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_INFO", "pkg_info"), nil
	})
	e.PkgDBDir = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_DBDIR", "/var/db/pkg"), nil
	})
	e.PkgSufx = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKG_SUFX", ".tgz"), nil
	})
	e.PkgchkConf = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKGCHK_CONF", "/usr/pkg/etc/pkgchk.conf"), nil
	})
	e.PkgchkNotags = NewFuture(func(ctx context.Context) (string, error) {
		return os.Getenv("PKGCHK_NOTAGS"), nil
	})
	e.PkgchkTags = NewFuture(func(ctx context.Context) (string, error) {
		return os.Getenv("PKGCHK_TAGS"), nil
	})
	e.PkgchkUpdateConf = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("PKGCHK_UPDATE_CONF", "/usr/pkg/etc/pkgchk_update.conf"), nil
	})
	e.SuCmd = NewFuture(func(ctx context.Context) (string, error) {
		return getenvDefault("SU_CMD", "su root -c"), nil
	})

	e.PkgPath = NewFuture(func(ctx context.Context) ([]pkgname.Pkgpath, error) {
		raw := os.Getenv("PKG_PATH")
		var out []pkgname.Pkgpath
		for _, seg := range strutil.All(raw, ":") {
			p, err := pkgname.ParsePkgpath(seg)
			if err != nil {
				continue
			}
			out = append(out, p)
		}
		return out, nil
	})

	e.IncludedTags = NewFuture(func(ctx context.Context) (pkgname.Tagset, error) {
		tags, err := e.PkgchkTags.Get(ctx)
		if err != nil {
			return nil, err
		}
		return tagsetFromWords(tags), nil
	})
	e.ExcludedTags = NewFuture(func(ctx context.Context) (pkgname.Tagset, error) {
		tags, err := e.PkgchkNotags.Get(ctx)
		if err != nil {
			return nil, err
		}
		return tagsetFromWords(tags), nil
	})

	e.BinPkgSummary = NewFuture(func(ctx context.Context) (summary.Summary, error) {
		packages, err := e.Packages.Get(ctx)
		if err != nil {
			return nil, err
		}
		pkgInfo, err := e.PkgInfo.Get(ctx)
		if err != nil {
			return nil, err
		}
		pkgSufx, err := e.PkgSufx.Get(ctx)
		if err != nil {
			return nil, err
		}
		return summary.ReadLocal(packages, pkgInfo, pkgSufx, log)
	})
	e.BinPkgMap = NewFuture(func(ctx context.Context) (summary.Pkgmap, error) {
		sum, err := e.BinPkgSummary.Get(ctx)
		if err != nil {
			return nil, err
		}
		return summary.NewPkgmap(sum), nil
	})

	e.InstalledPkgnames = NewFuture(func(ctx context.Context) ([]pkgname.Pkgname, error) {
		pkgInfo, err := e.PkgInfo.Get(ctx)
		if err != nil {
			return nil, err
		}
		return pkgdb.All(pkgInfo)
	})
	e.InstalledPkgbases = NewFuture(func(ctx context.Context) ([]pkgname.Pkgbase, error) {
		names, err := e.InstalledPkgnames.Get(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[pkgname.Pkgbase]bool)
		var out []pkgname.Pkgbase
		for _, n := range names {
			if !seen[n.Base] {
				seen[n.Base] = true
				out = append(out, n.Base)
			}
		}
		return out, nil
	})

	e.InstalledPkgSummary = NewFuture(func(ctx context.Context) (summary.Summary, error) {
		names, err := e.InstalledPkgnames.Get(ctx)
		if err != nil {
			return nil, err
		}
		pkgInfo, err := e.PkgInfo.Get(ctx)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return make(summary.Summary), nil
		}
		return xargsfold.Fold(
			pkgInfo,
			[]string{"-X"},
			make(summary.Summary),
			func(yield func(string)) {
				for _, n := range names {
					yield(n.String())
				}
			},
			summary.Read,
			mergeSummaries,
		)
	})

	e.InstalledPkgpaths = NewFuture(func(ctx context.Context) ([]pkgname.Pkgpath, error) {
		sum, err := e.InstalledPkgSummary.Get(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[pkgname.Pkgpath]bool)
		var out []pkgname.Pkgpath
		for _, vars := range sum {
			p, err := vars.Pkgpath()
			if err != nil {
				continue
			}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
		return out, nil
	})
	e.InstalledPkgpathsWithPkgnames = NewFuture(func(ctx context.Context) (map[pkgname.Pkgpath][]pkgname.Pkgname, error) {
		sum, err := e.InstalledPkgSummary.Get(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[pkgname.Pkgpath][]pkgname.Pkgname)
		for name, vars := range sum {
			p, err := vars.Pkgpath()
			if err != nil {
				continue
			}
			out[p] = append(out[p], name)
		}
		return out, nil
	})

	return e
}

func mergeSummaries(acc, next summary.Summary) summary.Summary {
	for name, vars := range next {
		acc[name] = vars
	}
	return acc
}

func tagsetFromWords(s string) pkgname.Tagset {
	words := strutil.All(s, ", \t")
	tags := make([]pkgname.Tag, len(words))
	for i, w := range words {
		tags[i] = pkgname.Tag(w)
	}
	return pkgname.NewTagset(tags...)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func unameField(ctx context.Context, flag string) (string, error) {
	h, err := harness.New("/usr/bin/uname", []string{flag})
	if err != nil {
		return "", err
	}
	defer h.Close()

	stdout, err := h.Stdout()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(stdout)
	if err != nil {
		return "", err
	}
	return trimNewline(string(data)), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
