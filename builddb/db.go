// Package builddb persists check-run history in a bbolt database:
// one record per pkgpath classified by a `pkgchk check` invocation
// (OK, missing, or mismatched, and when), plus a CRC32 index over
// each pkgpath's Makefile tree so a repeated run can skip
// reclassifying a pkgpath whose source hasn't changed since the last
// time it was looked at.
//
// Adapted from the teacher's build-tracking store (builddb/db.go in
// the original go-synth layout): same bbolt-backed design and
// CRC-based change detection, retargeted from "has this port's source
// changed since the last successful build" to "has this pkgpath's
// source changed since the last time pkgchk classified it". Unlike
// the teacher, per-pkgpath history here is keyed directly by pkgpath
// plus timestamp instead of through a side index bucket pointing at a
// UUID, borrowing the prefix-scan key layout this package already
// uses for per-invocation pkgpath records.
package builddb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketPkgpathRuns = "pkgpath_runs"
	bucketCRCIndex    = "crc_index"
)

// DB wraps a bbolt database holding check-run history and the CRC
// index used to skip unchanged pkgpaths.
type DB struct {
	db   *bolt.DB
	path string
}

// PkgpathRun is one pkgchk classification of a single pkgpath.
type PkgpathRun struct {
	Pkgpath   string    `json:"pkgpath"`
	Status    string    `json:"status"` // one of the PkgpathStatus* constants
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// OpenDB opens or creates a bbolt database at path, initializing
// every bucket builddb needs if it doesn't already exist.
func OpenDB(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &OpError{Op: "open", Err: err}
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketPkgpathRuns, bucketCRCIndex, bucketInvocations, bucketInvocationPkgpaths} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return &OpError{Op: "create bucket", Subject: name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{db: bdb, path: path}, nil
}

// Close closes the database connection. Safe to call multiple times.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

// RecordRun stores one pkgpath classification under a key ordered by
// pkgpath then start time, so LatestRun can find the newest entry for
// a pkgpath with a single cursor scan instead of maintaining a
// separate pkgpath-to-UUID index.
func (db *DB) RecordRun(run *PkgpathRun) error {
	if run.Pkgpath == "" {
		return &OpError{Op: "record run", Err: ErrEmptyPkgpath}
	}

	data, err := json.Marshal(run)
	if err != nil {
		return &OpError{Op: "marshal run", Subject: run.Pkgpath, Err: err}
	}

	key := pkgpathRunKey(run.Pkgpath, run.StartTime)
	err = db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPkgpathRuns))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketPkgpathRuns, Err: ErrBucketMissing}
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return &OpError{Op: "record run", Subject: run.Pkgpath, Err: err}
	}
	return nil
}

// LatestRun returns the most recently recorded run for pkgpath, or
// nil with no error if pkgpath has never been checked.
func (db *DB) LatestRun(pkgpath string) (*PkgpathRun, error) {
	if pkgpath == "" {
		return nil, &OpError{Op: "latest run", Err: ErrEmptyPkgpath}
	}

	prefix := pkgpathRunPrefix(pkgpath)
	var latest []byte

	err := db.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPkgpathRuns))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketPkgpathRuns, Err: ErrBucketMissing}
		}
		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			latest = v
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "latest run", Subject: pkgpath, Err: err}
	}
	if latest == nil {
		return nil, nil
	}

	var run PkgpathRun
	if err := json.Unmarshal(latest, &run); err != nil {
		return nil, &OpError{Op: "unmarshal run", Subject: pkgpath, Err: err}
	}
	return &run, nil
}

func pkgpathRunPrefix(pkgpath string) []byte {
	return []byte(pkgpath + "\x00")
}

// pkgpathRunKeyLayout is RFC3339 with a fixed nine-digit fraction.
// Unlike time.RFC3339Nano it never drops trailing zeros, so every key
// has the same width.
const pkgpathRunKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// pkgpathRunKey orders lexically by time because a fixed-width UTC
// timestamp preserves chronological order as a byte-string comparison.
func pkgpathRunKey(pkgpath string, t time.Time) []byte {
	return append(pkgpathRunPrefix(pkgpath), []byte(t.UTC().Format(pkgpathRunKeyLayout))...)
}

// NeedsRecheck reports whether pkgpath's Makefile tree has changed
// since the CRC last recorded for it, meaning a fresh classification
// is warranted rather than trusting the last run's result.
func (db *DB) NeedsRecheck(pkgpath string, currentCRC uint32) (bool, error) {
	storedCRC, exists, err := db.GetCRC(pkgpath)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	return storedCRC != currentCRC, nil
}

// UpdateCRC records pkgpath's current CRC32, to be compared against
// on a future run by NeedsRecheck.
func (db *DB) UpdateCRC(pkgpath string, crc uint32) error {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, crc)

	err := db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCRCIndex))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketCRCIndex, Err: ErrBucketMissing}
		}
		return bucket.Put([]byte(pkgpath), value)
	})
	if err != nil {
		return &OpError{Op: "update crc", Subject: pkgpath, Err: err}
	}
	return nil
}

// GetCRC retrieves the CRC32 last recorded for pkgpath. found is
// false if pkgpath has never been recorded.
func (db *DB) GetCRC(pkgpath string) (crc uint32, found bool, err error) {
	err = db.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCRCIndex))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketCRCIndex, Err: ErrBucketMissing}
		}

		value := bucket.Get([]byte(pkgpath))
		if value == nil {
			return nil
		}
		if len(value) != 4 {
			return &OpError{Op: "get crc", Subject: pkgpath, Err: ErrCorruptCRC}
		}
		crc = binary.BigEndian.Uint32(value)
		found = true
		return nil
	})
	if err != nil {
		return 0, false, &OpError{Op: "get crc", Subject: pkgpath, Err: err}
	}
	return crc, found, nil
}

// ComputePkgpathCRC hashes every regular file's relative path and
// contents under pkgpathDir (a pkgsrc category/name directory),
// skipping work directories and version control metadata, so a
// pkgpath's CRC changes whenever its Makefile, patches, or distinfo
// change but not when only its timestamps do.
func ComputePkgpathCRC(pkgpathDir string) (uint32, error) {
	hash := crc32.NewIEEE()

	err := filepath.Walk(pkgpathDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if base == ".git" || base == "work" || base == ".svn" || base == "CVS" {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(pkgpathDir, path)
		if err != nil {
			return err
		}
		hash.Write([]byte(relPath))
		hash.Write([]byte{0})

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hash.Write(data)
		return nil
	})
	if err != nil {
		return 0, &OpError{Op: "compute crc", Subject: pkgpathDir, Err: err}
	}
	return hash.Sum32(), nil
}
