// Package check implements the core comparison between what's
// installed and what pkgsrc currently provides: resolving which
// pkgpaths to look at, finding the latest PKGNAME each one provides,
// and classifying every installed package as fine, missing, or
// mismatched.
//
// Grounded directly on original_source/src/check.cxx, which this
// package's PkgpathsToCheck / LatestPkgnamesFromSource /
// LatestPkgnamesFromBinary / CheckInstalledPackages follow
// function-for-function; treat check.cxx as the canonical source of
// truth whenever this package's behavior is in question.
package check

import (
	"context"

	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/pkgenv"
	"pkgchk/pkgopts"
	"pkgchk/tagexpr"
)

// PkgpathsToCheck resolves the set of pkgpaths a run should look at:
// every currently-installed pkgpath when -r/-u is given, plus every
// pkgpath selected by the tag-filtered PKGCHK_CONF when -a is given.
func PkgpathsToCheck(ctx context.Context, opts pkgopts.Options, env *pkgenv.Environment, log pkglog.Logger) (map[pkgname.Pkgpath]struct{}, error) {
	result := make(map[pkgname.Pkgpath]struct{})

	if opts.DeleteMismatched || opts.Update {
		installed, err := env.InstalledPkgpaths.Get(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range installed {
			result[p] = struct{}{}
		}
	}

	if opts.AddMissing {
		confPath, err := env.PkgchkConf.Get(ctx)
		if err != nil {
			return nil, err
		}
		log.Verbose("append to pkgpath list based on config %s", confPath)

		included, err := env.IncludedTags.Get(ctx)
		if err != nil {
			return nil, err
		}
		excluded, err := env.ExcludedTags.Get(ctx)
		if err != nil {
			return nil, err
		}

		cfg, err := loadConfig(confPath)
		if err != nil {
			return nil, err
		}
		for _, p := range cfg.ApplyTags(included, excluded) {
			result[p] = struct{}{}
		}
	}

	return result, nil
}

func loadConfig(path string) (*tagexpr.Config, error) {
	f, err := openConfig(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tagexpr.Parse(f)
}
