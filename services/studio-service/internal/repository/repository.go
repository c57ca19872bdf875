package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrNoUpdate       = errors.New("no user fields to update")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)
	// GetUserByResetToken only matches tokens whose expiry is after now.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
	// ListUsers returns users ordered by join date, newest first.
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated. The Clear flags unset
// the single-use tokens and take precedence over the matching value fields.
type UpdateUserParams struct {
	PasswordHash                *string
	Role                        *model.Role
	Status                      *model.Status
	IsEmailVerified             *bool
	EmailVerificationToken      *string
	ClearEmailVerificationToken bool
	ResetPasswordToken          *string
	ResetPasswordExpires        *time.Time
	ClearResetPassword          bool
}

func (p UpdateUserParams) empty() bool {
	return p.PasswordHash == nil &&
		p.Role == nil &&
		p.Status == nil &&
		p.IsEmailVerified == nil &&
		p.EmailVerificationToken == nil &&
		!p.ClearEmailVerificationToken &&
		p.ResetPasswordToken == nil &&
		p.ResetPasswordExpires == nil &&
		!p.ClearResetPassword
}

// FilterUsersParams defines the parameters for filtering and paginating users.
// A zero Limit returns every matching user.
type FilterUsersParams struct {
	Status *model.Status
	Limit  uint64
	Offset uint64
}

// HistoryRepository stores the append-only log of AI operations.
type HistoryRepository interface {
	CreateEntry(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error)
	// ListEntriesByUser returns the user's entries, newest first.
	ListEntriesByUser(ctx context.Context, userID string) ([]*model.HistoryEntry, error)
}
