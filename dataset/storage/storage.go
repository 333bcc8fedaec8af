package storage

import (
	"context"
	"errors"
)

// Source yields the raw bytes of a dataset (CSV table or YAML catalog).
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestSource is a simple in-memory implementation for testing. It counts loads.
type TestSource struct {
	data  []byte
	err   error
	Loads int
}

func NewTestSource(data []byte) *TestSource {
	return &TestSource{data: data}
}

func NewTestSourceWithError() *TestSource {
	return &TestSource{err: errors.New("not found")}
}

func (t *TestSource) Load(ctx context.Context) ([]byte, error) {
	t.Loads++
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// BytesSource serves a fixed byte slice, e.g. a dataset compiled into the binary.
type BytesSource []byte

func (b BytesSource) Load(ctx context.Context) ([]byte, error) {
	return b, nil
}
