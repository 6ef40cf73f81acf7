package batch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

// ErrClosed is returned when a committed or discarded batch is used again.
var ErrClosed = errors.New("batch already committed or discarded")

type pendingOp struct {
	value   []byte
	deleted bool
}

// Batch buffers writes in memory with read-your-writes semantics and makes
// them durable in one Pebble batch commit. A Batch is owned by a single
// goroutine.
type Batch struct {
	db      *db.DB
	pending map[string]pendingOp
	closed  bool
}

// New starts an empty mutation unit on d.
func New(d *db.DB) *Batch {
	return &Batch{db: d, pending: make(map[string]pendingOp)}
}

// Len is the number of buffered keys.
func (b *Batch) Len() int {
	return len(b.pending)
}

// Get returns the pending value for key, or the committed one.
func (b *Batch) Get(key []byte) ([]byte, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if op, ok := b.pending[string(key)]; ok {
		if op.deleted {
			return nil, db.ErrNotFound
		}
		return append([]byte(nil), op.value...), nil
	}
	return b.db.Get(key)
}

func (b *Batch) Set(key, value []byte) {
	if b.closed {
		return
	}
	b.pending[string(key)] = pendingOp{value: append([]byte(nil), value...)}
}

func (b *Batch) Delete(key []byte) {
	if b.closed {
		return
	}
	b.pending[string(key)] = pendingOp{deleted: true}
}

// Scan merges pending writes over committed state and visits the result in
// ascending key order.
func (b *Batch) Scan(prefix []byte, fn func(k, v []byte) error) error {
	return b.scan(prefix, false, fn)
}

// ScanReverse is Scan in descending key order.
func (b *Batch) ScanReverse(prefix []byte, fn func(k, v []byte) error) error {
	return b.scan(prefix, true, fn)
}

func (b *Batch) scan(prefix []byte, reverse bool, fn func(k, v []byte) error) error {
	if b.closed {
		return ErrClosed
	}
	merged := make(map[string][]byte)
	err := b.db.Scan(prefix, func(k, v []byte) error {
		merged[string(k)] = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return err
	}
	p := string(prefix)
	for k, op := range b.pending {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if op.deleted {
			delete(merged, k)
			continue
		}
		merged[k] = op.value
	}
	ordered := make([]string, 0, len(merged))
	for k := range merged {
		ordered = append(ordered, k)
	}
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(ordered)))
	} else {
		sort.Strings(ordered)
	}
	for _, k := range ordered {
		if err := fn([]byte(k), merged[k]); err != nil {
			return err
		}
	}
	return nil
}

// Commit writes every buffered operation in a single Pebble batch. Either
// all of them become durable or none do.
func (b *Batch) Commit() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	if len(b.pending) == 0 {
		return nil
	}

	ordered := make([]string, 0, len(b.pending))
	for k := range b.pending {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	pb, err := b.db.NewBatch()
	if err != nil {
		return err
	}
	defer pb.Close()

	for _, k := range ordered {
		op := b.pending[k]
		if op.deleted {
			err = pb.Delete([]byte(k), nil)
		} else {
			err = pb.Set([]byte(k), op.value, nil)
		}
		if err != nil {
			logger.Error("batch_stage_failed", "key", k, "error", err)
			return fmt.Errorf("stage %s: %w", k, err)
		}
	}
	if err := pb.Commit(b.db.WriteOpt(true)); err != nil {
		logger.Error("batch_commit_failed", "keys", len(ordered), "error", err)
		return fmt.Errorf("commit batch: %w", err)
	}
	logger.Debug("batch_committed", "keys", len(ordered))
	b.pending = nil
	return nil
}

// Discard drops every buffered operation.
func (b *Batch) Discard() {
	b.closed = true
	b.pending = nil
}

// Pending reports whether key has a buffered write.
func (b *Batch) Pending(key []byte) bool {
	_, ok := b.pending[string(key)]
	return ok
}

