package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

const minPasswordLength = 8

// Config carries the token settings for the auth service.
type Config struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	AdminEmail string
}

// Service handles registration, login, and session validation.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// New constructs an auth service. A missing JWT secret is replaced with a
// random one, which invalidates tokens across restarts.
func New(users storage.UserStore, sessions storage.SessionStore, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	if cfg.JWTSecret == "" {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		cfg.JWTSecret = hex.EncodeToString(buf)
		log.Warn("JWT_SECRET_KEY not set; using a random secret, sessions will not survive restarts")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "jarvisfi"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Register creates a user account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, name, language string, userType user.Type) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, fmt.Errorf("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return user.User{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if name == "" {
		return user.User{}, fmt.Errorf("name is required")
	}
	if language == "" {
		language = "en"
	}
	if userType == "" {
		userType = user.TypeGeneral
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := "user"
	if s.cfg.AdminEmail != "" && strings.EqualFold(email, s.cfg.AdminEmail) {
		role = "admin"
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Profile: user.Profile{
			Language: strings.ToLower(language),
			Currency: "INR",
			UserType: userType,
		},
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.WithFields(map[string]interface{}{"user_id": created.ID, "role": role}).Info("user registered")
	return created, nil
}

// Login verifies credentials and returns the user with a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return user.User{}, "", fmt.Errorf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, "", fmt.Errorf("invalid credentials")
	}

	expiresAt := s.now().Add(s.cfg.TokenTTL)
	token, err := s.signToken(u.ID, expiresAt)
	if err != nil {
		return user.User{}, "", fmt.Errorf("sign token: %w", err)
	}

	_, err = s.sessions.CreateSession(ctx, user.Session{
		UserID:    u.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return user.User{}, "", fmt.Errorf("create session: %w", err)
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return u, token, nil
}

// Authenticate validates a bearer token and returns the user it belongs to.
// The token must both verify as a JWT and match a live server-side session.
func (s *Service) Authenticate(ctx context.Context, token string) (user.User, error) {
	userID, err := s.verifyToken(token)
	if err != nil {
		return user.User{}, fmt.Errorf("invalid token")
	}

	sess, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return user.User{}, fmt.Errorf("session not found")
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.DeleteSession(ctx, sess.TokenHash)
		return user.User{}, fmt.Errorf("session expired")
	}
	if sess.UserID != userID {
		return user.User{}, fmt.Errorf("invalid token")
	}

	return s.users.GetUser(ctx, userID)
}

// Logout invalidates the session behind a token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(ctx, hashToken(token)); err != nil {
		s.log.WithError(err).Debug("logout for unknown session")
	}
	return nil
}

// GetUser returns the user record for id.
func (s *Service) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.users.GetUser(ctx, id)
}

// UpdateProfile replaces the profile preferences of a user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, profile user.Profile) (user.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if profile.Language != "" {
		u.Profile.Language = strings.ToLower(profile.Language)
	}
	if profile.Currency != "" {
		u.Profile.Currency = strings.ToUpper(profile.Currency)
	}
	if profile.UserType != "" {
		u.Profile.UserType = profile.UserType
	}
	if profile.MonthlyIncome > 0 {
		u.Profile.MonthlyIncome = profile.MonthlyIncome
	}
	u.Profile.VoiceEnabled = profile.VoiceEnabled

	return s.users.UpdateUser(ctx, u)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
