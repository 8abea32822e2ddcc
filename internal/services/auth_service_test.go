package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)

	result, err := auth.Login(context.Background(), "op@test.local", "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Inicio de sesión exitoso", result.Message)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "op@test.local", result.User.Email)
}

func TestLoginUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)

	result, err := auth.Login(context.Background(), "nobody@test.local", "whatever")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Usuario no encontrado", result.Message)
	assert.Empty(t, result.Token)
}

func TestLoginThreeStrikesLockTheAccount(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	user := seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	result, err := auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, fmt.Sprintf("Contraseña incorrecta. Te quedan %d intento(s).", 2), result.Message)

	result, err = auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Contraseña incorrecta. Te quedan %d intento(s).", 1), result.Message)

	result, err = auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)
	assert.Equal(t, "Cuenta bloqueada por múltiples intentos fallidos. Contacta al administrador.", result.Message)

	var locked models.User
	assert.NoError(t, db.First(&locked, user.ID).Error)
	assert.False(t, locked.Active)
	assert.Equal(t, models.MaxLoginAttempts, locked.LoginAttempts)

	// The correct password no longer helps; only an administrator can unlock.
	result, err = auth.Login(ctx, user.Email, "secret123")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Cuenta bloqueada por múltiples intentos fallidos. Contacta al administrador.", result.Message)
}

func TestLoginSuccessResetsAttemptCounter(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	user := seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	_, err := auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)
	_, err = auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)

	result, err := auth.Login(ctx, user.Email, "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success)

	var fresh models.User
	assert.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, 0, fresh.LoginAttempts)

	// A later failure starts the count from scratch.
	result, err = auth.Login(ctx, user.Email, "wrong")
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Contraseña incorrecta. Te quedan %d intento(s).", 2), result.Message)
}

func TestAdminUnlockReleasesAccount(t *testing.T) {
	db := setupTestDB(t)
	auth, users := newTestAuthService(t, db)
	user := seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	for i := 0; i < models.MaxLoginAttempts; i++ {
		_, err := auth.Login(ctx, user.Email, "wrong")
		assert.NoError(t, err)
	}

	unlocked, err := users.SetStatus(ctx, user.ID, true, 99)
	assert.NoError(t, err)
	assert.True(t, unlocked.Active)
	assert.Equal(t, 0, unlocked.LoginAttempts)

	result, err := auth.Login(ctx, user.Email, "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)

	user, err := auth.Register("Ana", "Pérez", "ana@test.local", "secret123", models.RoleOperator, 1)
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.Password)
}

func TestRegisterDuplicateEmailWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	seedUser(t, db, "ana@test.local", "secret123", models.RoleOperator)

	_, err := auth.Register("Ana", "Pérez", "ana@test.local", "other", models.RoleOperator, 1)
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	assert.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)

	_, err := auth.Register("Ana", "Pérez", "ana@test.local", "secret123", models.Role("root"), 1)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	auth, users := newTestAuthService(t, db)
	user := seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	err := auth.ChangePassword(ctx, user.ID, "nope", "newpass456")
	assert.ErrorIs(t, err, ErrWrongPassword)

	// Warm the cache the way the auth middleware does on every request;
	// the cached copy must still carry the password hash.
	cached, err := users.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user.Password, cached.Password)

	assert.NoError(t, auth.ChangePassword(ctx, user.ID, "secret123", "newpass456"))

	result, err := auth.Login(ctx, user.Email, "newpass456")
	assert.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	result, err := auth.Login(ctx, "op@test.local", "secret123")
	assert.NoError(t, err)

	assert.NoError(t, auth.Logout(ctx, result.Token))

	revoked, err := auth.denylist.Contains(ctx, sessionIDOf(t, auth, result.Token))
	assert.NoError(t, err)
	assert.True(t, revoked)
}

// Two logins in the same second must yield distinct tokens, and revoking one
// must leave the other session usable.
func TestLogoutLeavesSiblingSessionValid(t *testing.T) {
	db := setupTestDB(t)
	auth, _ := newTestAuthService(t, db)
	seedUser(t, db, "op@test.local", "secret123", models.RoleOperator)
	ctx := context.Background()

	first, err := auth.Login(ctx, "op@test.local", "secret123")
	assert.NoError(t, err)
	second, err := auth.Login(ctx, "op@test.local", "secret123")
	assert.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	assert.NoError(t, auth.Logout(ctx, first.Token))

	revoked, err := auth.denylist.Contains(ctx, sessionIDOf(t, auth, first.Token))
	assert.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = auth.denylist.Contains(ctx, sessionIDOf(t, auth, second.Token))
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func sessionIDOf(t *testing.T, auth *AuthService, token string) string {
	t.Helper()
	claims, err := auth.tokens.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	jti, ok := utils.SessionID(claims)
	if !ok {
		t.Fatal("token carries no session id")
	}
	return jti
}
