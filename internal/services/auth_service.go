package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

var (
	ErrEmailTaken      = errors.New("user with this email already exists")
	ErrInvalidRole     = errors.New("unknown role")
	ErrWrongPassword   = errors.New("current password does not match")
	ErrAccountInactive = errors.New("account is inactive")
)

// User-facing login messages, rendered verbatim by the web client.
const (
	msgUserNotFound  = "Usuario no encontrado"
	msgAccountLocked = "Cuenta bloqueada por múltiples intentos fallidos. Contacta al administrador."
	msgWrongPassword = "Contraseña incorrecta. Te quedan %d intento(s)."
	msgLoginOK       = "Inicio de sesión exitoso"
)

// LoginResult carries the authentication decision. Business rejections
// (unknown user, locked account, wrong password) are results, not errors;
// the error return is reserved for infrastructure failures.
type LoginResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

// AuthService implements login with the 3-strike lockout, registration and
// password changes.
type AuthService struct {
	db       *gorm.DB
	users    *UserService
	tokens   *utils.TokenManager
	denylist *TokenDenylist
	audit    *AuditService
}

func NewAuthService(db *gorm.DB, users *UserService, tokens *utils.TokenManager, denylist *TokenDenylist, audit *AuditService) *AuthService {
	return &AuthService{db: db, users: users, tokens: tokens, denylist: denylist, audit: audit}
}

// Login validates credentials and maintains the failed-attempt counter.
// The third consecutive failure deactivates the account; only an
// administrator can re-activate it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &LoginResult{Message: msgUserNotFound}, nil
		}
		return nil, err
	}

	if user.Locked() {
		return &LoginResult{Message: msgAccountLocked}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return s.recordFailure(ctx, user)
	}

	// Counter resets on success.
	if user.LoginAttempts != 0 {
		if err := s.db.Model(user).Update("login_attempts", 0).Error; err != nil {
			return nil, err
		}
		s.users.invalidate(ctx, user.ID)
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Success: true, Message: msgLoginOK, User: user, Token: token}, nil
}

// recordFailure bumps the attempt counter in a single guarded update so
// near-simultaneous failures cannot lose increments, then locks the account
// once the limit is reached.
func (s *AuthService) recordFailure(ctx context.Context, user *models.User) (*LoginResult, error) {
	attempts := user.LoginAttempts + 1

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("login_attempts", gorm.Expr("login_attempts + 1")).Error; err != nil {
			return err
		}

		var fresh models.User
		if err := tx.First(&fresh, user.ID).Error; err != nil {
			return err
		}
		attempts = fresh.LoginAttempts

		if attempts >= models.MaxLoginAttempts {
			return tx.Model(&fresh).Updates(map[string]interface{}{
				"status":         false,
				"login_attempts": models.MaxLoginAttempts,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.users.invalidate(ctx, user.ID)

	if attempts >= models.MaxLoginAttempts {
		return &LoginResult{Message: msgAccountLocked}, nil
	}
	remaining := models.MaxLoginAttempts - attempts
	return &LoginResult{Message: fmt.Sprintf(msgWrongPassword, remaining)}, nil
}

// Register creates a user after an application-level duplicate-email check.
// On conflict nothing is written.
func (s *AuthService) Register(firstName, lastName, email, password string, role models.Role, actorID uint) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		Active:    true,
		CreatedAt: models.NewLocalTime(time.Now()),
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	s.audit.Record(actorID, "register", "user", user.ID, map[string]interface{}{
		"email": email,
		"role":  string(role),
	})
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		return ErrAccountInactive
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password":   string(hashed),
		"updated_at": models.NewLocalTime(time.Now()),
	}).Error; err != nil {
		return err
	}
	s.users.invalidate(ctx, userID)
	return nil
}

// Logout revokes the presented token's session id for the remainder of the
// token lifetime. Other sessions of the same user stay valid.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return err
	}
	sessionID, ok := utils.SessionID(claims)
	if !ok {
		return errors.New("token carries no session id")
	}

	ttl := s.tokens.Expiration()
	if exp, ok := claims["exp"].(float64); ok {
		if until := time.Until(time.Unix(int64(exp), 0)); until > 0 && until < ttl {
			ttl = until
		}
	}
	return s.denylist.Add(ctx, sessionID, ttl)
}
