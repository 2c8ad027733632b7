package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/mergington/announcements/internal/metrics"
	"github.com/mergington/announcements/internal/store"
	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxTitleLength   = 200
	maxMessageLength = 2000

	// TimestampLayout is the layout of created_at and of the "now" value the
	// active filter compares expiration dates against.
	TimestampLayout = "2006-01-02T15:04:05.000000"
)

// AnnouncementRepository defines persistence operations for announcements.
type AnnouncementRepository interface {
	Insert(ctx context.Context, announcement types.Announcement) (primitive.ObjectID, error)
	FindOne(ctx context.Context, id primitive.ObjectID) (types.Announcement, error)
	Find(ctx context.Context, filter store.AnnouncementFilter) ([]types.Announcement, error)
	UpdateOne(ctx context.Context, id primitive.ObjectID, patch types.AnnouncementPatch) (store.UpdateResult, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// CreateAnnouncementInput is the payload of Create. Nil means the field was
// not sent.
type CreateAnnouncementInput struct {
	Title          *string `json:"title"`
	Message        *string `json:"message"`
	StartDate      *string `json:"start_date"`
	ExpirationDate *string `json:"expiration_date"`
}

// AnnouncementService encapsulates announcement use-cases.
type AnnouncementService struct {
	repo   AnnouncementRepository
	events *EventEmitter
	logger *zap.Logger
	now    func() time.Time
}

// AnnouncementOption configures an AnnouncementService.
type AnnouncementOption func(*AnnouncementService)

func WithLogger(logger *zap.Logger) AnnouncementOption {
	return func(s *AnnouncementService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEvents(events *EventEmitter) AnnouncementOption {
	return func(s *AnnouncementService) {
		s.events = events
	}
}

func WithClock(now func() time.Time) AnnouncementOption {
	return func(s *AnnouncementService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAnnouncementService(repo AnnouncementRepository, opts ...AnnouncementOption) *AnnouncementService {
	s := &AnnouncementService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActive returns announcements that have not expired yet, newest first.
// start_date is not consulted.
func (s *AnnouncementService) ListActive(ctx context.Context) ([]types.Announcement, error) {
	now := s.timestamp()
	items, err := s.repo.Find(ctx, store.AnnouncementFilter{ExpiresAfter: now})
	if err != nil {
		metrics.IncOperation("list_active", "error")
		return nil, fmt.Errorf("list active announcements: %w", err)
	}
	sortNewestFirst(items)
	metrics.IncOperation("list_active", "ok")
	return items, nil
}

// ListAll returns every announcement, newest first.
func (s *AnnouncementService) ListAll(ctx context.Context) ([]types.Announcement, error) {
	items, err := s.repo.Find(ctx, store.AnnouncementFilter{})
	if err != nil {
		metrics.IncOperation("list_all", "error")
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	sortNewestFirst(items)
	metrics.IncOperation("list_all", "ok")
	return items, nil
}

// Create validates and stores a new announcement on behalf of author.
func (s *AnnouncementService) Create(ctx context.Context, author types.Teacher, input CreateAnnouncementInput) (types.Announcement, error) {
	announcement, err := s.buildForCreate(author, input)
	if err != nil {
		metrics.IncOperation("create", outcomeOf(err))
		return types.Announcement{}, err
	}

	id, err := s.repo.Insert(ctx, announcement)
	if err != nil {
		metrics.IncOperation("create", "error")
		return types.Announcement{}, fmt.Errorf("insert announcement: %w", err)
	}
	announcement.ID = id

	s.logger.Info("announcement created",
		zap.String("id", id.Hex()),
		zap.String("created_by", author.Username),
	)
	s.events.Emit(ctx, EventCreated, author.Username, id, &announcement)
	metrics.IncOperation("create", "ok")
	return announcement, nil
}

// Update applies a partial update to the announcement identified by rawID.
// Writing values equal to the stored ones is a successful no-op.
func (s *AnnouncementService) Update(ctx context.Context, actor types.Teacher, rawID string, patch types.AnnouncementPatch) (types.Announcement, error) {
	updated, err := s.update(ctx, actor, rawID, patch)
	metrics.IncOperation("update", outcomeOf(err))
	return updated, err
}

func (s *AnnouncementService) update(ctx context.Context, actor types.Teacher, rawID string, patch types.AnnouncementPatch) (types.Announcement, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return types.Announcement{}, err
		}
	}
	if patch.Message != nil {
		if err := validateMessage(*patch.Message); err != nil {
			return types.Announcement{}, err
		}
	}

	id, err := store.ParseKey(rawID)
	if err != nil {
		return types.Announcement{}, invalidInput(FieldID, "Invalid announcement ID")
	}

	if _, err := s.find(ctx, id); err != nil {
		return types.Announcement{}, err
	}

	if patch.StartDate != nil && !IsValidTimestamp(*patch.StartDate) {
		return types.Announcement{}, invalidInput(FieldStartDate, "Invalid start_date format")
	}
	if patch.ExpirationDate != nil && !IsValidTimestamp(*patch.ExpirationDate) {
		return types.Announcement{}, invalidInput(FieldExpirationDate, "Invalid expiration_date format")
	}
	if patch.IsEmpty() {
		return types.Announcement{}, invalidInput(FieldEmpty, "No fields to update")
	}

	result, err := s.repo.UpdateOne(ctx, id, patch)
	if err != nil {
		return types.Announcement{}, fmt.Errorf("update announcement: %w", err)
	}
	if result.Matched == 0 {
		// Deleted between the existence check and the update.
		return types.Announcement{}, internalError(FieldUpdateNotApplied, "Failed to update announcement", nil)
	}

	updated, err := s.repo.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Announcement{}, internalError(FieldUpdateNotApplied, "Failed to update announcement", err)
		}
		return types.Announcement{}, fmt.Errorf("reload announcement: %w", err)
	}

	if result.Modified == 0 {
		s.logger.Debug("announcement update changed nothing", zap.String("id", id.Hex()))
		return updated, nil
	}

	s.logger.Info("announcement updated",
		zap.String("id", id.Hex()),
		zap.String("updated_by", actor.Username),
	)
	s.events.Emit(ctx, EventUpdated, actor.Username, id, &updated)
	return updated, nil
}

// Delete removes the announcement identified by rawID.
func (s *AnnouncementService) Delete(ctx context.Context, actor types.Teacher, rawID string) error {
	err := s.delete(ctx, actor, rawID)
	metrics.IncOperation("delete", outcomeOf(err))
	return err
}

func (s *AnnouncementService) delete(ctx context.Context, actor types.Teacher, rawID string) error {
	id, err := store.ParseKey(rawID)
	if err != nil {
		return invalidInput(FieldID, "Invalid announcement ID")
	}

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteOne(ctx, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if deleted == 0 {
		return internalError(FieldDeleteNotApplied, "Failed to delete announcement", nil)
	}

	s.logger.Info("announcement deleted",
		zap.String("id", id.Hex()),
		zap.String("deleted_by", actor.Username),
	)
	s.events.Emit(ctx, EventDeleted, actor.Username, id, nil)
	return nil
}

func (s *AnnouncementService) find(ctx context.Context, id primitive.ObjectID) (types.Announcement, error) {
	announcement, err := s.repo.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Announcement{}, notFound("Announcement not found")
		}
		return types.Announcement{}, fmt.Errorf("find announcement: %w", err)
	}
	return announcement, nil
}

func (s *AnnouncementService) buildForCreate(author types.Teacher, input CreateAnnouncementInput) (types.Announcement, error) {
	if input.Title == nil {
		return types.Announcement{}, invalidInput(FieldTitle, "title is required")
	}
	if err := validateTitle(*input.Title); err != nil {
		return types.Announcement{}, err
	}
	if input.Message == nil {
		return types.Announcement{}, invalidInput(FieldMessage, "message is required")
	}
	if err := validateMessage(*input.Message); err != nil {
		return types.Announcement{}, err
	}

	// An empty start_date skips validation and is stored as given.
	var startDate *string
	if input.StartDate != nil {
		if *input.StartDate != "" && !IsValidTimestamp(*input.StartDate) {
			return types.Announcement{}, invalidInput(FieldStartDate, "Invalid start_date format")
		}
		value := *input.StartDate
		startDate = &value
	}

	if input.ExpirationDate == nil {
		return types.Announcement{}, invalidInput(FieldExpirationDate, "expiration_date is required")
	}
	if !IsValidTimestamp(*input.ExpirationDate) {
		return types.Announcement{}, invalidInput(FieldExpirationDate, "Invalid expiration_date format")
	}

	return types.Announcement{
		Title:          *input.Title,
		Message:        *input.Message,
		StartDate:      startDate,
		ExpirationDate: *input.ExpirationDate,
		CreatedBy:      author.Username,
		CreatedAt:      s.timestamp(),
	}, nil
}

func (s *AnnouncementService) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n < 1 || n > maxTitleLength {
		return invalidInput(FieldTitle, fmt.Sprintf("title must be between 1 and %d characters", maxTitleLength))
	}
	return nil
}

func validateMessage(message string) error {
	if n := utf8.RuneCountInString(message); n < 1 || n > maxMessageLength {
		return invalidInput(FieldMessage, fmt.Sprintf("message must be between 1 and %d characters", maxMessageLength))
	}
	return nil
}

// sortNewestFirst orders by created_at descending. Records without
// created_at compare as the empty string and end up last.
func sortNewestFirst(items []types.Announcement) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}
