package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

type authFixture struct {
	db       *gorm.DB
	tokens   *utils.TokenManager
	denylist *services.TokenDenylist
	users    *services.UserService
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.Migrator().DropTable(&models.User{}, &models.AuditEntry{})
	if err := db.AutoMigrate(&models.User{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	audit := services.NewAuditService(db)
	return &authFixture{
		db:       db,
		tokens:   utils.NewTokenManager("test-secret", time.Hour),
		denylist: services.NewTokenDenylist(cache),
		users:    services.NewUserService(db, cache, audit),
	}
}

func (f *authFixture) sessionID(t *testing.T, token string) string {
	t.Helper()

	claims, err := f.tokens.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	jti, ok := utils.SessionID(claims)
	if !ok {
		t.Fatal("token carries no session id")
	}
	return jti
}

func (f *authFixture) createUser(t *testing.T, role models.Role, active bool) *models.User {
	t.Helper()

	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     string(role) + "@test.local",
		Password:  "hashed",
		Role:      role,
		Active:    active,
		CreatedAt: models.NewLocalTime(time.Now()),
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)

	operator := f.createUser(t, models.RoleOperator, true)
	locked := f.createUser(t, models.RoleAdmin, false)

	validToken, err := f.tokens.Generate(operator.ID, operator.Role)
	assert.NoError(t, err)
	lockedToken, err := f.tokens.Generate(locked.ID, locked.Role)
	assert.NoError(t, err)
	revokedToken, err := f.tokens.Generate(operator.ID, operator.Role)
	assert.NoError(t, err)
	// Tokens issued back to back for the same user must still be distinct,
	// so revoking one leaves the other session alone.
	assert.NotEqual(t, validToken, revokedToken)
	assert.NoError(t, f.denylist.Add(context.Background(), f.sessionID(t, revokedToken), time.Hour))

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "Missing Authorization Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Token Format",
			authHeader:     "InvalidToken",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Token Signature",
			authHeader:     "Bearer invalid.token.signature",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Revoked Token",
			authHeader:     "Bearer " + revokedToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Locked Account",
			authHeader:     "Bearer " + lockedToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Auth(f.tokens, f.denylist, f.users))
			r.GET("/me", func(c *gin.Context) {
				user, ok := CurrentUser(c)
				assert.True(t, ok)
				assert.Equal(t, operator.ID, user.ID)
				c.String(http.StatusOK, "Success")
			})

			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)

	admin := f.createUser(t, models.RoleAdmin, true)
	operator := f.createUser(t, models.RoleOperator, true)

	adminToken, err := f.tokens.Generate(admin.ID, admin.Role)
	assert.NoError(t, err)
	operatorToken, err := f.tokens.Generate(operator.ID, operator.Role)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "Missing Authorization Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Operator Token",
			authHeader:     "Bearer " + operatorToken,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Admin Token",
			authHeader:     "Bearer " + adminToken,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AdminAuth(f.tokens, f.denylist, f.users))
			r.GET("/admin/me", func(c *gin.Context) {
				c.String(http.StatusOK, "Success")
			})

			req, _ := http.NewRequest(http.MethodGet, "/admin/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
