package api

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodeValue serializes a value with encoding/gob. Values must be
// gob-encodable.
func EncodeValue[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, fmt.Errorf("gob encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// DecodeValue reads a value written by EncodeValue. Empty input yields the
// zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("gob decode %T: %w", v, err)
	}
	return v, nil
}

// GobSnapshot returns a lazy Snapshot of v encoded with EncodeValue.
func GobSnapshot[T any](v T) *Snapshot {
	return LazySnapshot(func() ([]byte, error) { return EncodeValue(v) })
}
