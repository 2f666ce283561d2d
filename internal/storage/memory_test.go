package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/solmirre/ally/internal/domain"
)

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()

	// Absent key.
	if _, err := kv.Get(KeyMessages); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Set then get.
	if err := kv.Set(KeyMessages, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := kv.Get(KeyMessages)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`[]`)) {
		t.Fatalf("got %q", got)
	}

	// Overwrite.
	if err := kv.Set(KeyMessages, []byte(`[1]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = kv.Get(KeyMessages)
	if !bytes.Equal(got, []byte(`[1]`)) {
		t.Fatalf("after overwrite got %q", got)
	}
}

func TestMemoryKVCopies(t *testing.T) {
	kv := NewMemoryKV()

	val := []byte("original")
	kv.Set(KeyWritings, val)
	val[0] = 'X' // caller mutation must not leak into the store

	got, _ := kv.Get(KeyWritings)
	if string(got) != "original" {
		t.Fatalf("store should hold a copy, got %q", got)
	}

	got[0] = 'Y' // reader mutation must not leak either
	again, _ := kv.Get(KeyWritings)
	if string(again) != "original" {
		t.Fatalf("get should return a copy, got %q", again)
	}
}
