package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mergington/announcements/internal/store"
	"github.com/mergington/announcements/types"
	"go.uber.org/zap"
)

const snapshotContentType = "application/json"

// ObjectStore reads and writes objects in a bucket.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Snapshot is the document written by SnapshotService.
type Snapshot struct {
	GeneratedAt   string               `json:"generated_at"`
	Count         int                  `json:"count"`
	Announcements []types.Announcement `json:"announcements"`
}

// SnapshotResult describes an uploaded snapshot.
type SnapshotResult struct {
	Bucket string
	Key    string
	Count  int
	Size   int64
}

// SnapshotService exports every announcement to object storage as one JSON
// document.
type SnapshotService struct {
	repo    AnnouncementRepository
	objects ObjectStore
	prefix  string
	logger  *zap.Logger
	now     func() time.Time
}

func NewSnapshotService(repo AnnouncementRepository, objects ObjectStore, prefix string, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		repo:    repo,
		objects: objects,
		prefix:  prefix,
		logger:  logger,
		now:     time.Now,
	}
}

// Export uploads every announcement, newest first.
func (s *SnapshotService) Export(ctx context.Context) (SnapshotResult, error) {
	items, err := s.repo.Find(ctx, store.AnnouncementFilter{})
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("list announcements: %w", err)
	}
	sortNewestFirst(items)

	now := s.now().UTC()
	data, err := json.MarshalIndent(Snapshot{
		GeneratedAt:   now.Format(time.RFC3339),
		Count:         len(items),
		Announcements: items,
	}, "", "  ")
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.objects.EnsureBucket(ctx); err != nil {
		return SnapshotResult{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := path.Join(s.prefix, fmt.Sprintf("%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), snapshotContentType); err != nil {
		return SnapshotResult{}, fmt.Errorf("upload snapshot: %w", err)
	}

	result := SnapshotResult{
		Bucket: s.objects.Bucket(),
		Key:    key,
		Count:  len(items),
		Size:   int64(len(data)),
	}
	s.logger.Info("announcement snapshot uploaded",
		zap.String("bucket", result.Bucket),
		zap.String("key", result.Key),
		zap.Int("count", result.Count),
	)
	return result, nil
}

// Load reads a previously exported snapshot.
func (s *SnapshotService) Load(ctx context.Context, key string) (Snapshot, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Snapshot{}, errors.New("snapshot key is required")
	}

	body, err := s.objects.Get(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open snapshot %s: %w", key, err)
	}
	defer body.Close()

	var snapshot Snapshot
	if err := json.NewDecoder(body).Decode(&snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snapshot, nil
}

// Remove deletes an exported snapshot.
func (s *SnapshotService) Remove(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("snapshot key is required")
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	s.logger.Info("announcement snapshot deleted", zap.String("bucket", s.objects.Bucket()), zap.String("key", key))
	return nil
}
