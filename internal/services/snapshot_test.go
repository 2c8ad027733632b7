package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryObjects struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	bucketReady  bool
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryObjects) EnsureBucket(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucketReady = true
	return nil
}

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memoryObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) Bucket() string { return "test-bucket" }

func TestSnapshotExportLoadRemove(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		if _, err := svc.Create(ctx, author, validInput(title, "2024-04-01")); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	objects := newMemoryObjects()
	snapshots := NewSnapshotService(repo, objects, "snapshots/announcements", nil)
	snapshots.now = fixedClock(now)

	result, err := snapshots.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !objects.bucketReady {
		t.Fatalf("bucket was not ensured")
	}
	if result.Bucket != "test-bucket" || result.Count != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.HasPrefix(result.Key, "snapshots/announcements/20240301T100000Z-") || !strings.HasSuffix(result.Key, ".json") {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if objects.contentTypes[result.Key] != "application/json" {
		t.Fatalf("content type = %q", objects.contentTypes[result.Key])
	}

	var raw map[string]any
	if err := json.Unmarshal(objects.objects[result.Key], &raw); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if raw["generated_at"] != "2024-03-01T10:00:00Z" {
		t.Fatalf("generated_at = %v", raw["generated_at"])
	}

	loaded, err := snapshots.Load(ctx, result.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count != 2 || len(loaded.Announcements) != 2 {
		t.Fatalf("unexpected snapshot %+v", loaded)
	}

	if err := snapshots.Remove(ctx, result.Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := snapshots.Load(ctx, result.Key); err == nil {
		t.Fatalf("Load after Remove should fail")
	}
}

func TestSnapshotRequiresKey(t *testing.T) {
	snapshots := NewSnapshotService(nil, newMemoryObjects(), "p", nil)
	if _, err := snapshots.Load(context.Background(), " "); err == nil {
		t.Fatalf("Load with blank key should fail")
	}
	if err := snapshots.Remove(context.Background(), ""); err == nil {
		t.Fatalf("Remove with blank key should fail")
	}
}
