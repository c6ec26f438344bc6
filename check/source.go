package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkgchk/harness"
	"pkgchk/nursery"
	"pkgchk/pkgenv"
	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/pkgopts"
)

// makeBin is the make(1) binary used to extract PKGNAME from a
// package Makefile. pkgsrc Makefiles require BSD make; on a NetBSD
// or pkgsrc-bootstrapped system this is just "make" on $PATH.
const makeBin = "make"

// LatestPkgnamesFromSource extracts the PKGNAME(s) that path's
// Makefile currently provides. There is no way to enumerate every
// PKGNAME a PKGPATH can provide in general, so it extracts the
// default PKGNAME, then — only when a delete/update run needs it —
// asks make again for each distinct PKGBASE already installed from
// this path, via PKGNAME_REQD, to discover whether an alternate
// PKGBASE variant (a py-* style package) still exists.
func LatestPkgnamesFromSource(ctx context.Context, n *nursery.Nursery, opts pkgopts.Options, env *pkgenv.Environment, log pkglog.Logger, path pkgname.Pkgpath) ([]pkgname.Pkgname, error) {
	pkgsrcdir, err := env.Pkgsrcdir.Get(ctx)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(pkgsrcdir, path.Category, path.Name)

	if _, err := os.Stat(filepath.Join(dir, "Makefile")); err != nil {
		log.Warn("%v", &ObsoletePathError{Path: path})
		return nil, nil
	}

	defaultName, err := extractPkgname(n, dir, nil)
	if err != nil {
		return nil, fmt.Errorf("check: unable to extract PKGNAME for %s: %w", path, err)
	}

	names := []pkgname.Pkgname{defaultName}
	if !opts.Update && !opts.DeleteMismatched {
		return names, nil
	}

	byPath, err := env.InstalledPkgpathsWithPkgnames.Get(ctx)
	if err != nil {
		return nil, err
	}
	installedHere, ok := byPath[path]
	if !ok {
		return names, nil
	}

	seenBase := map[pkgname.Pkgbase]bool{defaultName.Base: true}
	for _, installed := range installedHere {
		if seenBase[installed.Base] {
			continue
		}
		seenBase[installed.Base] = true

		alt, err := extractPkgname(n, dir, map[string]string{
			"PKGNAME_REQD": string(installed.Base) + "-[0-9]*",
		})
		if err != nil {
			return nil, err
		}
		if alt.Base != installed.Base {
			log.Warn("%v. The installed package %s cannot be updated. Delete it and re-run the command.",
				&ProvidesMismatchError{Path: path, Base: installed.Base}, installed,
			)
			return nil, nil
		}
		names = append(names, alt)
	}

	return names, nil
}

func extractPkgname(n *nursery.Nursery, dir string, extraVars map[string]string) (pkgname.Pkgname, error) {
	argv := []string{"show-var", "VARNAME=PKGNAME"}
	for k, v := range extraVars {
		argv = append(argv, k+"="+v)
	}

	h, err := harness.New(makeBin, argv, harness.WithCwd(dir))
	if err != nil {
		return pkgname.Pkgname{}, err
	}
	defer h.Close()
	n.Track(h)

	stdout, err := h.Stdout()
	if err != nil {
		return pkgname.Pkgname{}, err
	}
	data, err := io.ReadAll(stdout)
	if err != nil {
		return pkgname.Pkgname{}, err
	}

	return pkgname.ParsePkgname(strings.TrimSpace(string(data)))
}
