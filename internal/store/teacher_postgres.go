package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mergington/announcements/types"
)

const uniqueViolation = "23505"

// PostgresTeacherRepository reads and writes teacher accounts in Postgres.
type PostgresTeacherRepository struct {
	db *sql.DB
}

func NewPostgresTeacherRepository(db *sql.DB) *PostgresTeacherRepository {
	return &PostgresTeacherRepository{db: db}
}

func (r *PostgresTeacherRepository) GetByUsername(ctx context.Context, username string) (types.Teacher, error) {
	const query = `
		SELECT username, display_name, role, password_hash
		FROM teachers
		WHERE username = $1`
	var teacher types.Teacher
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&teacher.Username,
		&teacher.DisplayName,
		&teacher.Role,
		&teacher.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Teacher{}, ErrNotFound
		}
		return types.Teacher{}, err
	}
	return teacher, nil
}

func (r *PostgresTeacherRepository) Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	const query = `
		INSERT INTO teachers (username, display_name, role, password_hash)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		teacher.Username,
		teacher.DisplayName,
		teacher.Role,
		teacher.PasswordHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.Teacher{}, ErrAlreadyExists
		}
		return types.Teacher{}, err
	}
	return teacher, nil
}
