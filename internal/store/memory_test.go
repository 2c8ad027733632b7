package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func TestMemoryAnnouncementRepositoryFindFiltersByExpiration(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnnouncementRepository()

	for _, expiration := range []string{"2020-01-01T00:00:00", "2030-01-01T00:00:00", "2025-06-01T12:00:00"} {
		if _, err := repo.Insert(ctx, types.Announcement{Title: expiration, Message: "m", ExpirationDate: expiration}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all, err := repo.Find(ctx, AnnouncementFilter{})
	if err != nil {
		t.Fatalf("Find all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 announcements, got %d", len(all))
	}

	active, err := repo.Find(ctx, AnnouncementFilter{ExpiresAfter: "2025-06-01T12:00:00"})
	if err != nil {
		t.Fatalf("Find active: %v", err)
	}
	if len(active) != 1 || active[0].ExpirationDate != "2030-01-01T00:00:00" {
		t.Fatalf("expected only the 2030 announcement, got %+v", active)
	}
}

func TestMemoryAnnouncementRepositoryUpdateOne(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnnouncementRepository()

	id, err := repo.Insert(ctx, types.Announcement{Title: "Old", Message: "m", ExpirationDate: "2030-01-01"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	result, err := repo.UpdateOne(ctx, id, types.AnnouncementPatch{Title: strPtr("New")})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if result != (UpdateResult{Matched: 1, Modified: 1}) {
		t.Fatalf("unexpected result %+v", result)
	}

	result, err = repo.UpdateOne(ctx, id, types.AnnouncementPatch{Title: strPtr("New")})
	if err != nil {
		t.Fatalf("UpdateOne same value: %v", err)
	}
	if result != (UpdateResult{Matched: 1}) {
		t.Fatalf("same value update: got %+v, want matched only", result)
	}

	result, err = repo.UpdateOne(ctx, primitive.NewObjectID(), types.AnnouncementPatch{Title: strPtr("x")})
	if err != nil {
		t.Fatalf("UpdateOne missing: %v", err)
	}
	if result != (UpdateResult{}) {
		t.Fatalf("missing record: got %+v", result)
	}

	if _, err := repo.UpdateOne(ctx, id, types.AnnouncementPatch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("empty patch error = %v, want ErrEmptyPatch", err)
	}

	stored, err := repo.FindOne(ctx, id)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if stored.Title != "New" || stored.Message != "m" || stored.ExpirationDate != "2030-01-01" {
		t.Fatalf("unexpected stored record %+v", stored)
	}
}

func TestMemoryAnnouncementRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnnouncementRepository()

	start := "2024-01-01"
	id, err := repo.Insert(ctx, types.Announcement{Title: "t", Message: "m", StartDate: &start, ExpirationDate: "2030-01-01"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	start = "changed"

	got, err := repo.FindOne(ctx, id)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.StartDate == nil || *got.StartDate != "2024-01-01" {
		t.Fatalf("stored start_date changed through caller pointer: %v", got.StartDate)
	}
	*got.StartDate = "mutated"

	again, _ := repo.FindOne(ctx, id)
	if *again.StartDate != "2024-01-01" {
		t.Fatalf("stored start_date changed through returned pointer: %s", *again.StartDate)
	}
}

func TestMemoryAnnouncementRepositoryDeleteOne(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnnouncementRepository()

	id, _ := repo.Insert(ctx, types.Announcement{Title: "t", Message: "m", ExpirationDate: "2030-01-01"})

	deleted, err := repo.DeleteOne(ctx, id)
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteOne = %d, %v", deleted, err)
	}
	deleted, err = repo.DeleteOne(ctx, id)
	if err != nil || deleted != 0 {
		t.Fatalf("second DeleteOne = %d, %v", deleted, err)
	}
	if _, err := repo.FindOne(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindOne after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryTeacherRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTeacherRepository(types.Teacher{Username: "mrodriguez", PasswordHash: "hash"})

	teacher, err := repo.GetByUsername(ctx, "mrodriguez")
	if err != nil || teacher.PasswordHash != "hash" {
		t.Fatalf("GetByUsername = %+v, %v", teacher, err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Create(ctx, types.Teacher{Username: "mrodriguez"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want ErrAlreadyExists", err)
	}
	if _, err := repo.Create(ctx, types.Teacher{Username: "mchen"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}
