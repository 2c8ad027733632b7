package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const announcementColumns = `id, title, message, start_date, expiration_date, created_by, created_at`

// PostgresAnnouncementRepository handles persistence for announcements in
// Postgres. Ids are ObjectIDs stored as hex text so that keys look the same
// as with the document store.
type PostgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) *PostgresAnnouncementRepository {
	return &PostgresAnnouncementRepository{db: db}
}

func (r *PostgresAnnouncementRepository) Insert(ctx context.Context, announcement types.Announcement) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()

	const query = `
		INSERT INTO announcements (` + announcementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		id.Hex(),
		announcement.Title,
		announcement.Message,
		nullString(announcement.StartDate),
		announcement.ExpirationDate,
		announcement.CreatedBy,
		announcement.CreatedAt,
	)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

func (r *PostgresAnnouncementRepository) FindOne(ctx context.Context, id primitive.ObjectID) (types.Announcement, error) {
	const query = `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE id = $1`
	announcement, err := scanAnnouncement(r.db.QueryRowContext(ctx, query, id.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Announcement{}, ErrNotFound
		}
		return types.Announcement{}, err
	}
	return announcement, nil
}

func (r *PostgresAnnouncementRepository) Find(ctx context.Context, filter AnnouncementFilter) ([]types.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	var args []any
	if filter.ExpiresAfter != "" {
		query += ` WHERE expiration_date > $1`
		args = append(args, filter.ExpiresAfter)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]types.Announcement, 0)
	for rows.Next() {
		announcement, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, announcement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *PostgresAnnouncementRepository) UpdateOne(ctx context.Context, id primitive.ObjectID, patch types.AnnouncementPatch) (UpdateResult, error) {
	var (
		assignments []string
		args        []any
	)
	add := func(column string, value string) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Message != nil {
		add("message", *patch.Message)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.ExpirationDate != nil {
		add("expiration_date", *patch.ExpirationDate)
	}
	if len(assignments) == 0 {
		return UpdateResult{}, ErrEmptyPatch
	}

	args = append(args, id.Hex())
	query := fmt.Sprintf(
		`UPDATE announcements SET %s WHERE id = $%d`,
		strings.Join(assignments, ", "),
		len(args),
	)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return UpdateResult{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return UpdateResult{}, err
	}
	// Postgres counts matched rows, changed or not.
	return UpdateResult{Matched: affected, Modified: affected}, nil
}

func (r *PostgresAnnouncementRepository) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	const query = `DELETE FROM announcements WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id.Hex())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(src rowScanner) (types.Announcement, error) {
	var (
		announcement types.Announcement
		rawID        string
		startDate    sql.NullString
	)
	if err := src.Scan(
		&rawID,
		&announcement.Title,
		&announcement.Message,
		&startDate,
		&announcement.ExpirationDate,
		&announcement.CreatedBy,
		&announcement.CreatedAt,
	); err != nil {
		return types.Announcement{}, err
	}

	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return types.Announcement{}, fmt.Errorf("corrupt announcement id %q: %w", rawID, err)
	}
	announcement.ID = id
	if startDate.Valid {
		value := startDate.String
		announcement.StartDate = &value
	}
	return announcement, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
