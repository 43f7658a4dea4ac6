package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		panic(err)
	}
	return h
})

// Session is what register and login hand back to the client.
type Session struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type AuthService struct {
	users  store.Users
	tokens *auth.Tokens
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users store.Users, tokens *auth.Tokens, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	if name == "" || email == "" || password == "" {
		return nil, invalid("Name, email and password are required")
	}
	if len(password) < auth.MinPasswordLen {
		return nil, invalid("Password must be at least 6 characters")
	}
	if len(password) > auth.MaxPasswordLen {
		return nil, invalid("Password must be at most 72 bytes")
	}
	logCtx := s.log.With(zap.String("email", email))

	if _, err := s.users.ByEmail(ctx, email); err == nil {
		logCtx.Warn("register: email already in use")
		return nil, newErr(ErrConflict, "User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		logCtx.Error("register: lookup failed", zap.Error(err))
		return nil, internal(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logCtx.Error("register: hash failed", zap.Error(err))
		return nil, internal(err)
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newErr(ErrConflict, "User already exists")
		}
		logCtx.Error("register: persist failed", zap.Error(err))
		return nil, internal(err)
	}

	logCtx.Info("user registered", zap.String("user_id", u.ID))
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}
	logCtx := s.log.With(zap.String("email", email))

	u, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logCtx.Error("login: lookup failed", zap.Error(err))
			return nil, internal(err)
		}
		logCtx.Warn("login: unknown email")
		// same bcrypt cost as a wrong password
		auth.CheckPassword(dummyHash(), password)
		return nil, newErr(ErrUnauthorized, "Invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		logCtx.Warn("login: wrong password")
		return nil, newErr(ErrUnauthorized, "Invalid credentials")
	}

	logCtx.Info("user logged in", zap.String("user_id", u.ID))
	return s.session(u)
}

// Authenticate turns an Authorization header value into the caller's identity.
func (s *AuthService) Authenticate(header string) (auth.Identity, error) {
	raw, err := auth.BearerToken(header)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return auth.Identity{}, newErr(ErrUnauthorized, "Access token required")
		}
		return auth.Identity{}, newErr(ErrUnauthorized, "Invalid or expired token")
	}
	id, err := s.tokens.Parse(raw)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return auth.Identity{}, newErr(ErrUnauthorized, "Invalid or expired token")
	}
	return id, nil
}

func (s *AuthService) session(u *model.User) (*Session, error) {
	tok, err := s.tokens.Make(auth.Identity{UserID: u.ID, Email: u.Email})
	if err != nil {
		s.log.Error("sign token failed", zap.Error(err))
		return nil, internal(err)
	}
	return &Session{Token: tok, User: u.Public()}, nil
}
