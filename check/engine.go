package check

import (
	"context"

	"pkgchk/nursery"
	"pkgchk/pkgenv"
	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/pkgopts"
)

// CheckInstalledPackages is the slowest part of a check run: for
// every candidate pkgpath it must extract the PKGNAME(s) it currently
// provides, which (in source mode) means spawning make(1) against its
// Makefile. Each pkgpath's check is independent of every other's, so
// they run concurrently inside a nursery, matching original pkg_chk's
// use of a nursery around exactly this loop.
func CheckInstalledPackages(ctx context.Context, opts pkgopts.Options, env *pkgenv.Environment, log pkglog.Logger, pkgpaths map[pkgname.Pkgpath]struct{}) (*Result, error) {
	installedNames, err := env.InstalledPkgnames.Get(ctx)
	if err != nil {
		return nil, err
	}
	installedByBase := make(map[pkgname.Pkgbase]pkgname.Pkgname, len(installedNames))
	for _, n := range installedNames {
		if existing, ok := installedByBase[n.Base]; !ok || n.Compare(existing) < 0 {
			installedByBase[n.Base] = n
		}
	}

	res := NewResult()
	n := nursery.New(ctx)

	for path := range pkgpaths {
		path := path
		n.Go(func(ctx context.Context) error {
			return checkOnePkgpath(ctx, n, opts, env, log, res, installedByBase, path)
		})
	}

	if err := n.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

func checkOnePkgpath(
	ctx context.Context,
	n *nursery.Nursery,
	opts pkgopts.Options,
	env *pkgenv.Environment,
	log pkglog.Logger,
	res *Result,
	installedByBase map[pkgname.Pkgbase]pkgname.Pkgname,
	path pkgname.Pkgpath,
) error {
	var latest []pkgname.Pkgname
	var err error
	if opts.BuildFromSource {
		latest, err = LatestPkgnamesFromSource(ctx, n, opts, env, log, path)
	} else {
		latest, err = LatestPkgnamesFromBinary(ctx, env, path)
	}
	if err != nil {
		return err
	}

	if len(latest) == 0 {
		res.addMissingDone(path)
		return nil
	}

	for _, name := range latest {
		installed, ok := installedByBase[name.Base]
		if !ok {
			log.Msg("%s - %s missing%s", path, name, binaryAnnotation(ctx, env, name))
			res.addMissingTodo(name, path)
			continue
		}

		switch installed.Version.Compare(name.Version) {
		case 0:
			if opts.CheckBuildVersion {
				return ErrCheckBuildVersionUnsupported
			}
			log.Verbose("%s - %s OK", path, name)
		case -1:
			log.Msg("%s - %s < %s%s", path, installed, name, binaryAnnotation(ctx, env, name))
			res.addMismatchTodo(installed)
		default:
			if opts.CheckBuildVersion {
				log.Msg("%s - %s > %s%s", path, installed, name, binaryAnnotation(ctx, env, name))
				res.addMismatchTodo(installed)
			} else {
				log.Msg("%s - %s > %s - ignoring%s", path, installed, name, binaryAnnotation(ctx, env, name))
			}
		}
	}
	return nil
}

func binaryAnnotation(ctx context.Context, env *pkgenv.Environment, name pkgname.Pkgname) string {
	sum, err := env.BinPkgSummary.Get(ctx)
	if err != nil {
		return ""
	}
	if _, ok := sum[name]; ok {
		return " (has binary package)"
	}
	return ""
}

// Run resolves the pkgpaths to check, classifies them, and reports a
// summary to log. When opts.PrintPkgpathsToCheck is set it prints the
// resolved set and returns without checking anything, matching
// original pkg_chk's --print-pkgpaths-to-check.
func Run(ctx context.Context, opts pkgopts.Options, env *pkgenv.Environment, log pkglog.Logger, printPkgpath func(pkgname.Pkgpath)) (*Result, error) {
	pkgpaths, err := PkgpathsToCheck(ctx, opts, env, log)
	if err != nil {
		return nil, err
	}

	if opts.PrintPkgpathsToCheck {
		for path := range pkgpaths {
			printPkgpath(path)
		}
		return nil, nil
	}

	res, err := CheckInstalledPackages(ctx, opts, env, log, pkgpaths)
	if err != nil {
		return res, err
	}

	if missing := res.MissingDone(); len(missing) > 0 {
		msg := "Missing:"
		for path := range missing {
			msg += " " + path.String()
		}
		log.Msg(msg)
	}

	return res, nil
}
