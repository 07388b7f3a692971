package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// backendTestSuite runs the same checks against any Backend implementation
func backendTestSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("CreateBucket", func(t *testing.T) {
		backend := newBackend(t)

		if err := backend.CreateBucket([]byte("runs")); err != nil {
			t.Fatalf("CreateBucket failed: %v", err)
		}

		exists, err := backend.BucketExists([]byte("runs"))
		if err != nil {
			t.Fatalf("BucketExists failed: %v", err)
		}
		if !exists {
			t.Error("Bucket should exist after creation")
		}

		// Idempotent
		if err := backend.CreateBucket([]byte("runs")); err != nil {
			t.Errorf("CreateBucket should be idempotent: %v", err)
		}
	})

	t.Run("PutAndGet", func(t *testing.T) {
		backend := newBackend(t)
		backend.CreateBucket([]byte("runs"))

		value := []byte("value1")
		if err := backend.Put([]byte("runs"), []byte("key1"), value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		// the backend must not alias the caller's slice
		value[0] = 'X'

		got, err := backend.Get([]byte("runs"), []byte("key1"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte("value1")) {
			t.Errorf("Get returned %s, want value1", got)
		}

		got, err = backend.Get([]byte("runs"), []byte("nonexistent"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Errorf("Get should return nil for non-existent key, got %s", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		backend := newBackend(t)
		backend.CreateBucket([]byte("runs"))
		backend.Put([]byte("runs"), []byte("key1"), []byte("value1"))

		if err := backend.Delete([]byte("runs"), []byte("key1")); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		got, _ := backend.Get([]byte("runs"), []byte("key1"))
		if got != nil {
			t.Error("Key should not exist after deletion")
		}
	})

	t.Run("ForEachSorted", func(t *testing.T) {
		backend := newBackend(t)
		backend.CreateBucket([]byte("runs"))

		for _, k := range []string{"c", "a", "b"} {
			backend.Put([]byte("runs"), []byte(k), []byte("v"+k))
		}

		var keys []string
		err := backend.ForEach([]byte("runs"), func(k, v []byte) error {
			keys = append(keys, string(k))
			if string(v) != "v"+string(k) {
				t.Errorf("value for %s = %s", k, v)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach failed: %v", err)
		}

		if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
			t.Errorf("ForEach visited %v, want [a b c]", keys)
		}
	})

	t.Run("MissingBucket", func(t *testing.T) {
		backend := newBackend(t)

		if err := backend.Put([]byte("nope"), []byte("k"), []byte("v")); !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("Put error = %v, want ErrBucketNotFound", err)
		}
		if _, err := backend.Get([]byte("nope"), []byte("k")); !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("Get error = %v, want ErrBucketNotFound", err)
		}
		if err := backend.Delete([]byte("nope"), []byte("k")); !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("Delete error = %v, want ErrBucketNotFound", err)
		}
		err := backend.ForEach([]byte("nope"), func(k, v []byte) error { return nil })
		if !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("ForEach error = %v, want ErrBucketNotFound", err)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		backend := newBackend(t)
		backend.CreateBucket([]byte("runs"))

		type record struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}

		if err := PutJSON(backend, []byte("runs"), []byte("r1"), record{Name: "one", Count: 1}); err != nil {
			t.Fatalf("PutJSON failed: %v", err)
		}
		PutJSON(backend, []byte("runs"), []byte("r2"), record{Name: "two", Count: 2})

		var got record
		found, err := GetJSON(backend, []byte("runs"), []byte("r1"), &got)
		if err != nil || !found {
			t.Fatalf("GetJSON = %v, %v", found, err)
		}
		if got.Name != "one" || got.Count != 1 {
			t.Errorf("GetJSON decoded %+v", got)
		}

		found, err = GetJSON(backend, []byte("runs"), []byte("missing"), &got)
		if err != nil || found {
			t.Errorf("GetJSON(missing) = %v, %v, want false, nil", found, err)
		}

		total := 0
		err = ForEachJSON(backend, []byte("runs"), func(_ []byte, r record) error {
			total += r.Count
			return nil
		})
		if err != nil {
			t.Fatalf("ForEachJSON failed: %v", err)
		}
		if total != 3 {
			t.Errorf("ForEachJSON total = %d, want 3", total)
		}

		backend.Put([]byte("runs"), []byte("bad"), []byte("{not json"))
		err = ForEachJSON(backend, []byte("runs"), func(_ []byte, r record) error { return nil })
		if err == nil {
			t.Error("ForEachJSON should fail on invalid JSON")
		}
	})
}

func TestMemoryBackend(t *testing.T) {
	backendTestSuite(t, func(t *testing.T) Backend {
		return NewMemoryBackend()
	})
}

func TestBboltBackend(t *testing.T) {
	backendTestSuite(t, func(t *testing.T) Backend {
		backend, err := NewBboltBackend(filepath.Join(t.TempDir(), "nested", "test.db"), time.Second)
		if err != nil {
			t.Fatalf("failed to create backend: %v", err)
		}
		t.Cleanup(func() { backend.Close() })

		return backend
	})
}

func TestBboltBackend_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	backend, err := NewBboltBackend(path, time.Second)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	backend.CreateBucket([]byte("runs"))
	backend.Put([]byte("runs"), []byte("k"), []byte("v"))
	backend.Close()

	reopened, err := Open(path, time.Second)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get([]byte("runs"), []byte("k"))
	if err != nil || string(got) != "v" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestOpen_Memory(t *testing.T) {
	backend, err := Open(MemoryPath, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := backend.(*MemoryBackend); !ok {
		t.Errorf("Open(%q) returned %T", MemoryPath, backend)
	}
}
