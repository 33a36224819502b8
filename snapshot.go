package datablocks

import (
	"github.com/boltdb/bolt"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// snapshotBucket is the single bolt bucket SnapshotToFile and
// RestoreSnapshotFromFile read and write, keyed by node id.
var snapshotBucket = []byte("snapshots")

// snapshotTable is the wire shape for one cached table: compact enough
// for msgpack and independent of table.Cell's internal layout.
type snapshotTable struct {
	Columns []string
	Rows    [][]any
}

// Snapshot dumps the engine's output cache to a compact binary blob: a
// caller-invoked format for inter-process hand-off of a completed
// run's results, distinct from the CSV/JSON export path.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := make(map[string]snapshotTable, len(e.cache))
	for nodeID, t := range e.cache {
		rows := make([][]any, len(t.Rows))
		for i, row := range t.Rows {
			r := make([]any, len(row))
			for j, c := range row {
				if c.IsNull() {
					r[j] = nil
				} else {
					r[j] = c.Value()
				}
			}
			rows[i] = r
		}
		snap[nodeID] = snapshotTable{Columns: t.Columns, Rows: rows}
	}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, errs.ErrExecution.New("snapshot: %s", err)
	}
	return data, nil
}

// RestoreSnapshot replaces the engine's output cache with the contents
// of a blob produced by Snapshot. Node statuses are set to success for
// every restored node so a caller can resume downstream work without
// re-running upstream nodes.
func (e *Engine) RestoreSnapshot(data []byte) error {
	var snap map[string]snapshotTable
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return errs.ErrExecution.New("restore snapshot: %s", err)
	}

	cache := make(map[string]*table.Table, len(snap))
	statuses := make(map[string]NodeStatus, len(snap))
	for nodeID, st := range snap {
		t, err := table.FromRows(st.Columns, st.Rows)
		if err != nil {
			return errs.ErrExecution.New("restore snapshot: node %s: %s", nodeID, err)
		}
		cache[nodeID] = t
		statuses[nodeID] = StatusSuccess
	}

	e.mu.Lock()
	e.cache = cache
	e.nodeStatus = statuses
	e.nodeErrors = make(map[string]*errs.AppError)
	e.mu.Unlock()
	return nil
}

// SnapshotToFile is Snapshot's on-disk counterpart: each node's output
// is written to its own key in an embedded bolt database at path
// instead of into one in-memory blob, so a run's cache can outlive the
// process without the caller having to hold the whole thing in
// memory at once.
func (e *Engine) SnapshotToFile(path string) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errs.ErrExecution.New("snapshot to file: open %s: %s", path, err)
	}
	defer db.Close()

	e.mu.RLock()
	cache := make(map[string]*table.Table, len(e.cache))
	for nodeID, t := range e.cache {
		cache[nodeID] = t
	}
	e.mu.RUnlock()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(snapshotBucket)
		if err != nil {
			return errs.ErrExecution.New("snapshot to file: create bucket: %s", err)
		}
		for nodeID, t := range cache {
			rows := make([][]any, len(t.Rows))
			for i, row := range t.Rows {
				r := make([]any, len(row))
				for j, c := range row {
					if c.IsNull() {
						r[j] = nil
					} else {
						r[j] = c.Value()
					}
				}
				rows[i] = r
			}
			data, err := msgpack.Marshal(snapshotTable{Columns: t.Columns, Rows: rows})
			if err != nil {
				return errs.ErrExecution.New("snapshot to file: node %s: %s", nodeID, err)
			}
			if err := b.Put([]byte(nodeID), data); err != nil {
				return errs.ErrExecution.New("snapshot to file: node %s: %s", nodeID, err)
			}
		}
		return nil
	})
}

// RestoreSnapshotFromFile replaces the engine's output cache with the
// contents of a bolt database produced by SnapshotToFile, the same way
// RestoreSnapshot does for an in-memory blob.
func (e *Engine) RestoreSnapshotFromFile(path string) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errs.ErrExecution.New("restore snapshot from file: open %s: %s", path, err)
	}
	defer db.Close()

	cache := make(map[string]*table.Table)
	statuses := make(map[string]NodeStatus)

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			nodeID := string(k)
			var st snapshotTable
			if err := msgpack.Unmarshal(v, &st); err != nil {
				return errs.ErrExecution.New("restore snapshot from file: node %s: %s", nodeID, err)
			}
			t, err := table.FromRows(st.Columns, st.Rows)
			if err != nil {
				return errs.ErrExecution.New("restore snapshot from file: node %s: %s", nodeID, err)
			}
			cache[nodeID] = t
			statuses[nodeID] = StatusSuccess
			return nil
		})
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.cache = cache
	e.nodeStatus = statuses
	e.nodeErrors = make(map[string]*errs.AppError)
	e.mu.Unlock()
	return nil
}
