package summary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pkgchk/compstream"
	"pkgchk/pkglog"
	"pkgchk/xargsfold"
)

// localCandidates lists the summary file names ReadLocal looks for
// directly under PACKAGES, in preference order: original pkg_chk
// prefers the most compressed form available, since an up-to-date
// bz2 is cheaper to ship than regenerating a text summary from
// scratch.
var localCandidates = []struct {
	name   string
	decomp func(io.Reader) (io.Reader, error)
}{
	{"pkg_summary.bz2", compstream.Bunzip2},
	{"pkg_summary.gz", compstream.Gunzip},
	{"pkg_summary.txt", compstream.Identity},
}

// ReadLocal reads the binary package summary for a local PACKAGES
// directory tree. It first looks for a pkg_summary.{bz2,gz,txt} file
// directly under PACKAGES no older than the newest file anywhere in
// that same directory (the freshness test the original applies: a
// summary is trusted unless some binary package already in PACKAGES
// is newer than it). If no candidate is fresh, it falls back to
// deriving the summary directly from every *<pkgSufx> file under
// PACKAGES by invoking pkgInfoPath -X in xargs-fold-chunked batches.
func ReadLocal(packagesDir, pkgInfoPath, pkgSufx string, log pkglog.Logger) (Summary, error) {
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		return nil, fmt.Errorf("summary: read %s: %w", packagesDir, err)
	}

	var newest time.Time
	for _, ent := range entries {
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	for _, cand := range localCandidates {
		path := filepath.Join(packagesDir, cand.name)
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if fi.ModTime().Before(newest) {
			log.Msg("Ignoring %s as there are newer packages in %s", path, packagesDir)
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			continue
		}
		sum, err := readCompressed(f, cand.decomp)
		f.Close()
		if err != nil {
			continue
		}
		return sum, nil
	}

	return readFromBinaryPackages(packagesDir, pkgInfoPath, pkgSufx)
}

// Refresh rebuilds the summary directly from every *<pkgSufx> file
// under packagesDir, bypassing any pkg_summary.{bz2,gz,txt} file that
// ReadLocal would otherwise trust. Useful for `pkgchk summary
// refresh`, when a caller suspects the shipped summary is stale but
// nothing in PACKAGES looks newer than it.
func Refresh(packagesDir, pkgInfoPath, pkgSufx string) (Summary, error) {
	return readFromBinaryPackages(packagesDir, pkgInfoPath, pkgSufx)
}

func readCompressed(f io.Reader, decomp func(io.Reader) (io.Reader, error)) (Summary, error) {
	r, err := decomp(f)
	if err != nil {
		return nil, err
	}
	return Read(r)
}

// readFromBinaryPackages rebuilds a summary by running `pkg_info -X`
// over every *<pkgSufx> file directly under dir, chunked through
// xargsfold so an arbitrarily large repository never exceeds the
// platform's argv length limit in a single invocation.
func readFromBinaryPackages(dir, pkgInfoPath, pkgSufx string) (Summary, error) {
	pkgs, err := filepath.Glob(filepath.Join(dir, "*"+pkgSufx))
	if err != nil {
		return nil, fmt.Errorf("summary: glob %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return make(Summary), nil
	}

	return xargsfold.Fold(
		pkgInfoPath,
		[]string{"-X"},
		make(Summary),
		func(yield func(string)) {
			for _, p := range pkgs {
				yield(p)
			}
		},
		Read,
		mergeSummaries,
	)
}

func mergeSummaries(acc, next Summary) Summary {
	for name, vars := range next {
		acc[name] = vars
	}
	return acc
}
