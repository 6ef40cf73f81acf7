// Package store defines the keyed access the aggregation packages need from
// the persistence substrate, plus typed helpers on top of it.
//
// A Reader is either the committed database (*db.DB) or an open mutation
// unit (*batch.Batch); a Writer is always a mutation unit, so nothing but a
// batch commit ever makes a write visible.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

type Reader interface {
	// Get returns db.ErrNotFound when the key is absent.
	Get(key []byte) ([]byte, error)
	// Scan visits keys with prefix in ascending byte order.
	Scan(prefix []byte, fn func(k, v []byte) error) error
	// ScanReverse is Scan in descending order.
	ScanReverse(prefix []byte, fn func(k, v []byte) error) error
}

type Writer interface {
	Reader
	Set(key, value []byte)
	Delete(key []byte)
}

// GetUint64 reads a big-endian counter. Absent keys read as 0.
func GetUint64(r Reader, key string) (uint64, error) {
	v, err := r.Get([]byte(key))
	if err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return DecodeUint64(v)
}

func SetUint64(w Writer, key string, n uint64) {
	w.Set([]byte(key), EncodeUint64(n))
}

// AddUint64 increments the counter at key by delta and returns the new value.
func AddUint64(w Writer, key string, delta uint64) (uint64, error) {
	cur, err := GetUint64(w, key)
	if err != nil {
		return 0, err
	}
	cur += delta
	SetUint64(w, key, cur)
	return cur, nil
}

func EncodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func DecodeUint64(v []byte) (uint64, error) {
	if len(v) != 8 {
		return 0, fmt.Errorf("counter value has %d bytes, want 8", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

// GetJSON decodes the value at key into out. It reports false, and leaves
// out untouched, when the key is absent.
func GetJSON(r Reader, key string, out any) (bool, error) {
	v, err := r.Get([]byte(key))
	if err != nil {
		if db.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(w Writer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	w.Set([]byte(key), data)
	return nil
}

// GetBool reads a one-byte flag. Absent keys read as false.
func GetBool(r Reader, key string) (bool, error) {
	v, err := r.Get([]byte(key))
	if err != nil {
		if db.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(v) == 1 && v[0] == 1, nil
}

func SetBool(w Writer, key string, b bool) {
	if b {
		w.Set([]byte(key), []byte{1})
		return
	}
	w.Set([]byte(key), []byte{0})
}
