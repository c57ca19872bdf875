package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
	"github.com/vasapolrittideah/couchnbs-api/shared/validator"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendHTML(to []string, subject, htmlBody string) error {
	args := m.Called(to, subject, htmlBody)
	return args.Error(0)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usecase_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err, "open sqlite")
	return db
}

func newTestConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{
		"JWT_SECRET": "test-secret",
		"BASE_URL":   "https://couchnbs.test",
		"DB_DRIVER":  "sqlite",
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFromEnv(env)
	require.NoError(t, err)
	return cfg
}

type authFixture struct {
	users    repository.UserRepository
	mailer   *mockMailer
	jwt      *auth.JWTAuthenticator
	cfg      *config.Config
	auth     *authUsecase
	reset    *passwordResetUsecase
	admin    AdminUsecase
	logs     *zerolog.Logger
	clockNow time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	logger := zerolog.Nop()
	cfg := newTestConfig(t, nil)
	users := repository.NewUserGormRepository(&logger, newTestDB(t))
	mailer := &mockMailer{}
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.SessionTTL)

	v, err := validator.New()
	require.NoError(t, err)

	f := &authFixture{
		users:    users,
		mailer:   mailer,
		jwt:      jwtAuth,
		cfg:      cfg,
		logs:     &logger,
		clockNow: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	f.auth = NewAuthUsecase(users, jwtAuth, mailer, v, cfg, &logger).(*authUsecase)
	f.auth.now = func() time.Time { return f.clockNow }

	f.reset = NewPasswordResetUsecase(users, mailer, cfg, &logger).(*passwordResetUsecase)
	f.reset.now = func() time.Time { return f.clockNow }

	f.admin = NewAdminUsecase(users)

	return f
}

func (f *authFixture) signup(t *testing.T, name, email, password string) string {
	t.Helper()
	f.mailer.On("SendHTML", mock.Anything, verificationSubject, mock.Anything).Return(nil).Once()
	require.NoError(t, f.auth.Signup(context.Background(), SignupParams{Name: name, Email: email, Password: password}))

	user, err := f.users.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.ID
}

func (f *authFixture) verificationToken(t *testing.T, email string) string {
	t.Helper()
	user, err := f.users.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user.EmailVerificationToken)
	return *user.EmailVerificationToken
}
