package builddb

import (
	"bytes"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names and the pointer key for per-invocation history,
// distinct from the per-pkgpath runs/crc_index buckets in db.go:
// these record one entry per `pkgchk check` invocation as a whole, so
// `pkgchk status` can report what the last few runs found without
// re-reading every individual pkgpath record.
const (
	bucketInvocations        = "invocations"
	bucketInvocationPkgpaths = "invocation_pkgpaths"

	// activeInvocationKey holds the run ID of the invocation that has
	// been started but not yet finished, if any. Tracking it as a
	// dedicated pointer avoids scanning every invocation to find the
	// unfinished one.
	activeInvocationKey = "\x00active"
)

const (
	PkgpathStatusOK           = "ok"
	PkgpathStatusMissingTodo  = "missing_todo"
	PkgpathStatusMismatchTodo = "mismatch_todo"
	PkgpathStatusMissingDone  = "missing_done"
)

// InvocationStats aggregates pkgpath outcomes for one check run.
type InvocationStats struct {
	Total        int `json:"total"`
	OK           int `json:"ok"`
	MissingTodo  int `json:"missing_todo"`
	MismatchTodo int `json:"mismatch_todo"`
	MissingDone  int `json:"missing_done"`
}

// InvocationRecord captures metadata for one `pkgchk check` invocation.
type InvocationRecord struct {
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Aborted   bool            `json:"aborted"`
	Stats     InvocationStats `json:"stats"`
}

// InvocationPkgpathRecord is the per-pkgpath outcome within a single
// invocation, keyed so ListInvocationPkgpaths can recover the full
// breakdown for a run.
type InvocationPkgpathRecord struct {
	Pkgpath string `json:"pkgpath"`
	Status  string `json:"status"`
}

// StartInvocation writes a new invocation entry and marks it active.
func (db *DB) StartInvocation(runID string, startTime time.Time) error {
	if runID == "" {
		return &OpError{Op: "start invocation", Err: ErrEmptyRunID}
	}

	rec := InvocationRecord{StartTime: startTime}
	data, err := json.Marshal(&rec)
	if err != nil {
		return &OpError{Op: "marshal invocation", Subject: runID, Err: err}
	}

	err = db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocations))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocations, Err: ErrBucketMissing}
		}
		if err := bucket.Put([]byte(runID), data); err != nil {
			return err
		}
		return bucket.Put([]byte(activeInvocationKey), []byte(runID))
	})
	if err != nil {
		return &OpError{Op: "start invocation", Subject: runID, Err: err}
	}
	return nil
}

// FinishInvocation updates an existing invocation with stats, end
// time, and abortion flag, and clears it as the active invocation.
func (db *DB) FinishInvocation(runID string, stats InvocationStats, endTime time.Time, aborted bool) error {
	if runID == "" {
		return &OpError{Op: "finish invocation", Err: ErrEmptyRunID}
	}

	err := db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocations))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocations, Err: ErrBucketMissing}
		}

		data := bucket.Get([]byte(runID))
		if data == nil {
			return &OpError{Op: "finish invocation", Subject: runID, Err: ErrNotFound}
		}

		var rec InvocationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return &OpError{Op: "unmarshal invocation", Subject: runID, Err: err}
		}
		rec.EndTime = endTime
		rec.Aborted = aborted
		rec.Stats = stats

		updated, err := json.Marshal(&rec)
		if err != nil {
			return &OpError{Op: "marshal invocation", Subject: runID, Err: err}
		}
		if err := bucket.Put([]byte(runID), updated); err != nil {
			return err
		}

		if active := bucket.Get([]byte(activeInvocationKey)); active != nil && string(active) == runID {
			return bucket.Delete([]byte(activeInvocationKey))
		}
		return nil
	})
	if err != nil {
		return &OpError{Op: "finish invocation", Subject: runID, Err: err}
	}
	return nil
}

// GetInvocation fetches an invocation record by its run ID.
func (db *DB) GetInvocation(runID string) (*InvocationRecord, error) {
	if runID == "" {
		return nil, &OpError{Op: "get invocation", Err: ErrEmptyRunID}
	}

	var rec InvocationRecord
	err := db.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocations))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocations, Err: ErrBucketMissing}
		}

		data := bucket.Get([]byte(runID))
		if data == nil {
			return &OpError{Op: "get invocation", Subject: runID, Err: ErrNotFound}
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ActiveInvocation returns the invocation marked active, if any,
// meaning a prior `pkgchk check` run never finished.
func (db *DB) ActiveInvocation() (string, *InvocationRecord, error) {
	var runID string
	err := db.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocations))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocations, Err: ErrBucketMissing}
		}
		if active := bucket.Get([]byte(activeInvocationKey)); active != nil {
			runID = string(active)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if runID == "" {
		return "", nil, nil
	}

	rec, err := db.GetInvocation(runID)
	if err != nil {
		return "", nil, err
	}
	return runID, rec, nil
}

// PutInvocationPkgpath writes or updates a pkgpath outcome for the
// given invocation.
func (db *DB) PutInvocationPkgpath(runID string, rec *InvocationPkgpathRecord) error {
	if runID == "" {
		return &OpError{Op: "put invocation pkgpath", Err: ErrEmptyRunID}
	}
	if rec == nil {
		return &OpError{Op: "put invocation pkgpath", Subject: runID, Err: ErrEmptyPkgpath}
	}

	key := invocationPkgpathKey(runID, rec.Pkgpath)
	data, err := json.Marshal(rec)
	if err != nil {
		return &OpError{Op: "marshal invocation pkgpath", Subject: runID, Err: err}
	}

	err = db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocationPkgpaths))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocationPkgpaths, Err: ErrBucketMissing}
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return &OpError{Op: "put invocation pkgpath", Subject: runID, Err: err}
	}
	return nil
}

// ListInvocationPkgpaths returns all pkgpath outcomes recorded for
// the given invocation.
func (db *DB) ListInvocationPkgpaths(runID string) ([]InvocationPkgpathRecord, error) {
	if runID == "" {
		return nil, &OpError{Op: "list invocation pkgpaths", Err: ErrEmptyRunID}
	}

	prefix := invocationPkgpathPrefix(runID)
	var records []InvocationPkgpathRecord

	err := db.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketInvocationPkgpaths))
		if bucket == nil {
			return &OpError{Op: "get bucket", Subject: bucketInvocationPkgpaths, Err: ErrBucketMissing}
		}

		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec InvocationPkgpathRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "list invocation pkgpaths", Subject: runID, Err: err}
	}
	return records, nil
}

func invocationPkgpathKey(runID, pkgpath string) []byte {
	return append(invocationPkgpathPrefix(runID), []byte(pkgpath)...)
}

func invocationPkgpathPrefix(runID string) []byte {
	return []byte(runID + "\x00")
}
