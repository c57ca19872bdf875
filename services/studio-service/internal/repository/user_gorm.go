package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

type userRecord struct {
	ID                     string  `gorm:"primaryKey;type:varchar(36)"`
	Name                   string  `gorm:"not null"`
	Email                  string  `gorm:"uniqueIndex;not null"`
	PasswordHash           string  `gorm:"column:password;not null"`
	Phone                  *string
	Role                   string  `gorm:"not null"`
	Status                 string  `gorm:"not null;index"`
	IsEmailVerified        bool    `gorm:"not null"`
	EmailVerificationToken *string `gorm:"index"`
	ResetPasswordToken     *string `gorm:"index"`
	ResetPasswordExpires   *time.Time
	JoinDate               time.Time `gorm:"not null;index"`
}

func (userRecord) TableName() string { return "users" }

func (m *userRecord) toModel() *model.User {
	return &model.User{
		ID:                     m.ID,
		Name:                   m.Name,
		Email:                  m.Email,
		PasswordHash:           m.PasswordHash,
		Phone:                  m.Phone,
		Role:                   model.Role(m.Role),
		Status:                 model.Status(m.Status),
		IsEmailVerified:        m.IsEmailVerified,
		EmailVerificationToken: m.EmailVerificationToken,
		ResetPasswordToken:     m.ResetPasswordToken,
		ResetPasswordExpires:   m.ResetPasswordExpires,
		JoinDate:               m.JoinDate,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type userGormRepository struct {
	db *gorm.DB
}

// NewUserGormRepository migrates the users table and returns a gorm backed UserRepository.
func NewUserGormRepository(logger *zerolog.Logger, db *gorm.DB) UserRepository {
	if err := db.AutoMigrate(&userRecord{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate users table")
	}

	return &userGormRepository{db: db}
}

func (r *userGormRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.JoinDate.IsZero() {
		user.JoinDate = time.Now()
	}
	user.JoinDate = user.JoinDate.UTC()

	m := &userRecord{
		ID:                     uuid.NewString(),
		Name:                   user.Name,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		Phone:                  user.Phone,
		Role:                   string(user.Role),
		Status:                 string(user.Status),
		IsEmailVerified:        user.IsEmailVerified,
		EmailVerificationToken: user.EmailVerificationToken,
		ResetPasswordToken:     user.ResetPasswordToken,
		ResetPasswordExpires:   utcPtr(user.ResetPasswordExpires),
		JoinDate:               user.JoinDate,
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	user.ID = m.ID
	return user, nil
}

func (r *userGormRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGormRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userGormRepository) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "email_verification_token = ?", token)
}

func (r *userGormRepository) GetUserByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "reset_password_token = ? AND reset_password_expires > ?", token, now.UTC())
}

func (r *userGormRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoUpdate
	}

	updates := map[string]any{}
	if params.PasswordHash != nil {
		updates["password"] = *params.PasswordHash
	}
	if params.Role != nil {
		updates["role"] = string(*params.Role)
	}
	if params.Status != nil {
		updates["status"] = string(*params.Status)
	}
	if params.IsEmailVerified != nil {
		updates["is_email_verified"] = *params.IsEmailVerified
	}

	if params.ClearEmailVerificationToken {
		updates["email_verification_token"] = nil
	} else if params.EmailVerificationToken != nil {
		updates["email_verification_token"] = *params.EmailVerificationToken
	}

	if params.ClearResetPassword {
		updates["reset_password_token"] = nil
		updates["reset_password_expires"] = nil
	} else {
		if params.ResetPasswordToken != nil {
			updates["reset_password_token"] = *params.ResetPasswordToken
		}
		if params.ResetPasswordExpires != nil {
			updates["reset_password_expires"] = params.ResetPasswordExpires.UTC()
		}
	}

	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetUser(ctx, id)
}

func (r *userGormRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Delete(&userRecord{}, "id = ?", id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return user, nil
}

func (r *userGormRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	query := r.db.WithContext(ctx).Order("join_date DESC")

	if params.Status != nil {
		query = query.Where("status = ?", string(*params.Status))
	}
	if params.Limit > 0 {
		query = query.Limit(int(params.Limit))
	}
	if params.Offset > 0 {
		query = query.Offset(int(params.Offset))
	}

	var records []userRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toModel())
	}
	return users, nil
}

func (r *userGormRepository) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var m userRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m.toModel(), nil
}
