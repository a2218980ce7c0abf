package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cbsistema/cbsistema-backend/internal/auth/jwt"
	"github.com/cbsistema/cbsistema-backend/internal/user/events"
	"github.com/cbsistema/cbsistema-backend/internal/user/repository"
	"github.com/cbsistema/cbsistema-backend/internal/user/service"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
	"github.com/cbsistema/cbsistema-backend/pkg/testutil"
)

func newUserService(db *database.DB, revoker jwt.Revoker, cfg config.UsersConfig) (*service.UserService, *jwt.Manager) {
	manager := jwt.NewManager(&config.SessionConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "cbsistema"})
	return service.NewUserService(repository.NewUserRepository(db), manager, revoker, nil, cfg, logger.Nop()), manager
}

func userRow(id int64, name, password, role string) *sqlmock.Rows {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return testutil.MockRows("id", "name", "password_hash", "role", "created_at").
		AddRow(id, name, string(hash), role, time.Now())
}

func TestUserService_Login(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM usuarios WHERE name = $1").
		WithArgs("ana").
		WillReturnRows(userRow(3, "ana", "secreto1", "gerente"))

	svc, manager := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{})
	resp, err := svc.Login(context.Background(), &service.LoginRequest{Name: "ana", Password: "secreto1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.User.ID)

	claims, err := manager.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "gerente", claims.Role)
	mockDB.ExpectationsWereMet(t)
}

func TestUserService_Login_InvalidCredentials(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM usuarios WHERE name = $1").
			WithArgs("ana").
			WillReturnRows(userRow(3, "ana", "secreto1", "gerente"))

		svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{})
		_, err := svc.Login(context.Background(), &service.LoginRequest{Name: "ana", Password: "otro"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM usuarios WHERE name = $1").
			WithArgs("nadie").
			WillReturnRows(testutil.MockRows("id"))

		svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{})
		_, err := svc.Login(context.Background(), &service.LoginRequest{Name: "nadie", Password: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
		assert.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
		mockDB.ExpectationsWereMet(t)
	})
}

func TestUserService_Logout(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	revoker := jwt.NewMemoryRevoker()
	svc, _ := newUserService(mockDB.Database(), revoker, config.UsersConfig{})
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "token-1", time.Now().Add(30*time.Minute)))
	revoked, err := revoker.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// without a known expiry the configured session lifetime is used
	require.NoError(t, svc.Logout(ctx, "token-2", time.Time{}))
	revoked, _ = revoker.IsRevoked(ctx, "token-2")
	assert.True(t, revoked)

	err = svc.Logout(ctx, "", time.Now())
	assert.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
}

func TestUserService_Create_Validation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{MinPasswordLength: 6})

	_, err := svc.Create(context.Background(), &service.CreateUserRequest{Name: "x", Password: "secreto1", Role: "owner"})
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	_, err = svc.Create(context.Background(), &service.CreateUserRequest{Name: "x", Password: "abc", Role: "caja"})
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	mockDB.ExpectationsWereMet(t)
}

func TestUserService_BootstrapAdmin(t *testing.T) {
	t.Run("disabled without password", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{})
		created, err := svc.BootstrapAdmin(context.Background())
		require.NoError(t, err)
		assert.False(t, created)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("skipped when users exist", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("SELECT COUNT(*) FROM usuarios").
			WillReturnRows(testutil.MockRows("count").AddRow(int64(2)))

		svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{BootstrapAdminPassword: "cambiame"})
		created, err := svc.BootstrapAdmin(context.Background())
		require.NoError(t, err)
		assert.False(t, created)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("creates admin on empty table", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("SELECT COUNT(*) FROM usuarios").
			WillReturnRows(testutil.MockRows("count").AddRow(int64(0)))
		mockDB.ExpectQuery("INSERT INTO usuarios (name, password_hash, role)").
			WithArgs("admin", sqlmock.AnyArg(), "admin").
			WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(1), time.Now()))

		svc, _ := newUserService(mockDB.Database(), jwt.NewMemoryRevoker(), config.UsersConfig{
			BootstrapAdminPassword: "cambiame",
			MinPasswordLength:      6,
		})
		created, err := svc.BootstrapAdmin(context.Background())
		require.NoError(t, err)
		assert.True(t, created)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestUserService_PublishesAccountEvents(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM usuarios WHERE id = $1").
		WithArgs(int64(3)).
		WillReturnRows(userRow(3, "ana", "secreto1", "caja"))
	mockDB.ExpectQuery("UPDATE usuarios SET name = $2, role = $3 WHERE id = $1").
		WithArgs(int64(3), "ana", "gerente").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectExec("DELETE FROM usuarios WHERE id = $1").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock := testutil.NewMockPublisher()
	manager := jwt.NewManager(&config.SessionConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "cbsistema"})
	svc := service.NewUserService(repository.NewUserRepository(mockDB.Database()), manager, jwt.NewMemoryRevoker(),
		events.New(mock, logger.Nop()), config.UsersConfig{}, logger.Nop())

	_, err := svc.Update(context.Background(), 3, &service.UpdateUserRequest{Role: testutil.PtrString("gerente")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 3))

	published := mock.Events()
	require.Len(t, published, 2)
	assert.Equal(t, messaging.UserRoleChangedEvent{UserID: 3, OldRole: "caja", NewRole: "gerente"}, published[0].Payload)
	assert.Equal(t, messaging.UserDeletedEvent{UserID: 3}, published[1].Payload)
	mockDB.ExpectationsWereMet(t)
}
