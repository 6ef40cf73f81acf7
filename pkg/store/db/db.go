package db

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = pebble.ErrNotFound

// Options tunes the underlying Pebble instance.
type Options struct {
	CacheSize  int64
	DisableWAL bool
	// ReadOnly opens an existing database without taking the write lock
	// path; used by offline tooling.
	ReadOnly bool
}

// DB is a Pebble handle. Several may be open in one process.
type DB struct {
	client      *pebble.DB
	path        string
	walDisabled bool
}

// Open opens or creates a Pebble database at path.
func Open(path string, o Options) (*DB, error) {
	opts := &pebble.Options{
		DisableWAL: o.DisableWAL,
		ReadOnly:   o.ReadOnly,
	}
	if o.CacheSize > 0 {
		cache := pebble.NewCache(o.CacheSize)
		defer cache.Unref()
		opts.Cache = cache
	}
	if o.DisableWAL {
		logger.Warn("durability_disabled", "durability", "pebble WAL disabled", "path", path)
	}
	client, err := pebble.Open(path, opts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &DB{client: client, path: path, walDisabled: o.DisableWAL}, nil
}

// OpenInMemory opens a Pebble database backed by an in-memory filesystem.
func OpenInMemory() (*DB, error) {
	client, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &DB{client: client, path: ":memory:"}, nil
}

// Close closes the handle. Closing twice is a no-op.
func (d *DB) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	if err := d.client.Close(); err != nil {
		return err
	}
	d.client = nil
	return nil
}

// Ready reports whether the handle is open.
func (d *DB) Ready() bool {
	return d != nil && d.client != nil
}

func (d *DB) Path() string {
	return d.path
}

// Flush forces memtables to disk.
func (d *DB) Flush() error {
	if !d.Ready() {
		return errNotOpen
	}
	return d.client.Flush()
}

// IsNotFound returns true if err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

var errNotOpen = fmt.Errorf("pebble not opened; call db.Open first")

// WriteOpt returns Sync when durability was requested and the WAL is on.
func (d *DB) WriteOpt(requestSync bool) *pebble.WriteOptions {
	if requestSync && !d.walDisabled {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Get returns a copy of the value stored at key.
func (d *DB) Get(key []byte) ([]byte, error) {
	if !d.Ready() {
		return nil, errNotOpen
	}
	v, closer, err := d.client.Get(key)
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			logger.Error("get_key_failed", "key", string(key), "error", err)
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		closer.Close()
	}
	return out, nil
}

// Set writes a single key outside of any batch.
func (d *DB) Set(key, value []byte) error {
	if !d.Ready() {
		return errNotOpen
	}
	if err := d.client.Set(key, value, d.WriteOpt(true)); err != nil {
		logger.Error("save_key_failed", "key", string(key), "error", err)
		return err
	}
	return nil
}

// Delete removes a single key outside of any batch.
func (d *DB) Delete(key []byte) error {
	if !d.Ready() {
		return errNotOpen
	}
	if err := d.client.Delete(key, d.WriteOpt(true)); err != nil {
		logger.Error("delete_key_failed", "key", string(key), "error", err)
		return err
	}
	return nil
}

// Scan calls fn for every key with the given prefix in ascending key order.
// Keys and values passed to fn are only valid for the duration of the call.
// Returning a non-nil error from fn stops the scan and is returned.
func (d *DB) Scan(prefix []byte, fn func(k, v []byte) error) error {
	return d.scan(prefix, false, fn)
}

// ScanReverse is Scan from the last key with the prefix down to the first.
func (d *DB) ScanReverse(prefix []byte, fn func(k, v []byte) error) error {
	return d.scan(prefix, true, fn)
}

func (d *DB) scan(prefix []byte, reverse bool, fn func(k, v []byte) error) error {
	if !d.Ready() {
		return errNotOpen
	}
	opts := &pebble.IterOptions{}
	if len(prefix) > 0 {
		opts.LowerBound = prefix
		opts.UpperBound = prefixUpperBound(prefix)
	}
	iter, err := d.client.NewIter(opts)
	if err != nil {
		return err
	}
	defer iter.Close()

	var valid bool
	step := iter.Next
	if reverse {
		valid, step = iter.Last(), iter.Prev
	} else {
		valid = iter.First()
	}
	for ; valid; valid = step() {
		if len(prefix) > 0 && !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// NewBatch returns a raw Pebble write batch on this handle.
func (d *DB) NewBatch() (*pebble.Batch, error) {
	if !d.Ready() {
		return nil, errNotOpen
	}
	return d.client.NewBatch(), nil
}

// Metrics exposes the Pebble metrics snapshot.
func (d *DB) Metrics() *pebble.Metrics {
	if !d.Ready() {
		return nil
	}
	return d.client.Metrics()
}

// prefixUpperBound returns the smallest key greater than every key with
// the prefix, or nil when no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
