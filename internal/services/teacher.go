package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mergington/announcements/types"
)

const defaultTeacherRole = "teacher"

// CreateTeacherInput holds the details of a new staff account.
type CreateTeacherInput struct {
	Username    string
	DisplayName string
	Role        string
	Password    string
}

// TeacherService encapsulates staff account use-cases.
type TeacherService struct {
	repo       TeacherRepository
	bcryptCost int
}

// NewTeacherService constructs a TeacherService. A bcryptCost of zero
// selects bcrypt.DefaultCost.
func NewTeacherService(repo TeacherRepository, bcryptCost int) *TeacherService {
	return &TeacherService{repo: repo, bcryptCost: bcryptCost}
}

func (s *TeacherService) GetByUsername(ctx context.Context, username string) (types.Teacher, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Create hashes the password and stores the account.
func (s *TeacherService) Create(ctx context.Context, input CreateTeacherInput) (types.Teacher, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return types.Teacher{}, errors.New("username is required")
	}
	if strings.Contains(username, ":") {
		return types.Teacher{}, errors.New("username must not contain ':'")
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = defaultTeacherRole
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hashed, err := HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return types.Teacher{}, err
	}

	return s.repo.Create(ctx, types.Teacher{
		Username:     username,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: hashed,
	})
}
