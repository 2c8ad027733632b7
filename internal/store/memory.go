package store

import (
	"context"
	"sync"

	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryAnnouncementRepository keeps announcements in process memory. It
// follows the document store's update semantics: an update that writes the
// stored values again matches the record but modifies nothing.
type MemoryAnnouncementRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]types.Announcement
}

func NewMemoryAnnouncementRepository() *MemoryAnnouncementRepository {
	return &MemoryAnnouncementRepository{items: map[primitive.ObjectID]types.Announcement{}}
}

func (r *MemoryAnnouncementRepository) Insert(_ context.Context, announcement types.Announcement) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := primitive.NewObjectID()
	announcement.ID = id
	announcement.StartDate = cloneString(announcement.StartDate)
	r.items[id] = announcement
	return id, nil
}

func (r *MemoryAnnouncementRepository) FindOne(_ context.Context, id primitive.ObjectID) (types.Announcement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	announcement, ok := r.items[id]
	if !ok {
		return types.Announcement{}, ErrNotFound
	}
	announcement.StartDate = cloneString(announcement.StartDate)
	return announcement, nil
}

func (r *MemoryAnnouncementRepository) Find(_ context.Context, filter AnnouncementFilter) ([]types.Announcement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	announcements := make([]types.Announcement, 0, len(r.items))
	for _, announcement := range r.items {
		if filter.ExpiresAfter != "" && !(announcement.ExpirationDate > filter.ExpiresAfter) {
			continue
		}
		announcement.StartDate = cloneString(announcement.StartDate)
		announcements = append(announcements, announcement)
	}
	return announcements, nil
}

func (r *MemoryAnnouncementRepository) UpdateOne(_ context.Context, id primitive.ObjectID, patch types.AnnouncementPatch) (UpdateResult, error) {
	if patch.IsEmpty() {
		return UpdateResult{}, ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return UpdateResult{}, nil
	}
	next := patch.Apply(current)
	if sameAnnouncement(current, next) {
		return UpdateResult{Matched: 1}, nil
	}
	r.items[id] = next
	return UpdateResult{Matched: 1, Modified: 1}, nil
}

func (r *MemoryAnnouncementRepository) DeleteOne(_ context.Context, id primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return 0, nil
	}
	delete(r.items, id)
	return 1, nil
}

// MemoryTeacherRepository keeps teachers in process memory.
type MemoryTeacherRepository struct {
	mu       sync.RWMutex
	teachers map[string]types.Teacher
}

func NewMemoryTeacherRepository(teachers ...types.Teacher) *MemoryTeacherRepository {
	repo := &MemoryTeacherRepository{teachers: map[string]types.Teacher{}}
	for _, teacher := range teachers {
		repo.teachers[teacher.Username] = teacher
	}
	return repo
}

func (r *MemoryTeacherRepository) GetByUsername(_ context.Context, username string) (types.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teacher, ok := r.teachers[username]
	if !ok {
		return types.Teacher{}, ErrNotFound
	}
	return teacher, nil
}

func (r *MemoryTeacherRepository) Create(_ context.Context, teacher types.Teacher) (types.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teachers[teacher.Username]; exists {
		return types.Teacher{}, ErrAlreadyExists
	}
	r.teachers[teacher.Username] = teacher
	return teacher, nil
}

func sameAnnouncement(a, b types.Announcement) bool {
	if a.Title != b.Title || a.Message != b.Message || a.ExpirationDate != b.ExpirationDate {
		return false
	}
	if (a.StartDate == nil) != (b.StartDate == nil) {
		return false
	}
	return a.StartDate == nil || *a.StartDate == *b.StartDate
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
