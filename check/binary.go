package check

import (
	"context"

	"pkgchk/pkgenv"
	"pkgchk/pkgname"
)

// LatestPkgnamesFromBinary extracts the PKGNAME(s) path currently
// provides by consulting the binary package summary's pkgpath index
// instead of spawning make(1): for every PKGBASE recorded under path,
// it returns whichever PKGNAME in the binary repository carries the
// highest PKGVERSION.
//
// The original implementation left this unimplemented ("-b" always
// threw), since a binary repository can't be asked "what would you
// build right now" the way a source tree's Makefile can — it can
// only be asked what it already built. This reconstructs the closest
// available answer, "the newest version already built for this
// PKGPATH", which is the correct binary-mode analogue of
// LatestPkgnamesFromSource's default-PKGNAME extraction.
func LatestPkgnamesFromBinary(ctx context.Context, env *pkgenv.Environment, path pkgname.Pkgpath) ([]pkgname.Pkgname, error) {
	pkgmap, err := env.BinPkgMap.Get(ctx)
	if err != nil {
		return nil, err
	}

	byBase, ok := pkgmap[path]
	if !ok {
		return nil, nil
	}

	var out []pkgname.Pkgname
	for _, versions := range byBase {
		var latest pkgname.Pkgname
		first := true
		for name := range versions {
			if first || name.Compare(latest) > 0 {
				latest = name
				first = false
			}
		}
		out = append(out, latest)
	}
	return out, nil
}
