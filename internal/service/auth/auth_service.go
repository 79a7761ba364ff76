package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

const DefaultSessionTTL = 8 * time.Hour

type AuthUseCase interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

type CredentialChecker interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type SessionStore interface {
	SaveSession(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error
	SessionExists(ctx context.Context, tokenID string) (bool, error)
	DeleteSession(ctx context.Context, tokenID string) error
}

// Identity is the caller behind a verified token.
type Identity struct {
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	TokenID   string      `json:"-"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (i *Identity) IsAdministrator() bool { return i != nil && i.Role == domain.RoleAdministrator }
func (i *Identity) IsStaff() bool         { return i != nil && i.Role == domain.RoleStaff }
func (i *Identity) IsPassenger() bool     { return i != nil && i.Role == domain.RolePassenger }

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users    CredentialChecker
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	clock    clock.Clock
	log      logrus.FieldLogger
}

type AuthServiceOption func(*AuthService)

// WithSessionStore makes tokens revocable. Without it tokens are valid until
// they expire and Logout does nothing.
func WithSessionStore(store SessionStore) AuthServiceOption {
	return func(s *AuthService) {
		s.sessions = store
	}
}

func WithSessionTTL(ttl time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(c clock.Clock) AuthServiceOption {
	return func(s *AuthService) {
		s.clock = c
	}
}

func WithLogger(log logrus.FieldLogger) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

func NewAuthService(users CredentialChecker, secret string, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    DefaultSessionTTL,
		clock:  clock.WallClock,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expires := now.Add(s.ttl)
	c := claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.SaveSession(ctx, c.ID, user.ID, s.ttl); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user logged in")
	return &Session{Token: signed, ExpiresAt: expires, User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	identity, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if s.sessions == nil {
		return nil
	}
	return s.sessions.DeleteSession(ctx, identity.TokenID)
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || c.ID == "" || !c.Role.Valid() {
		return nil, domain.ErrInvalidToken
	}

	if s.sessions != nil {
		ok, err := s.sessions.SessionExists(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !ok {
			return nil, domain.ErrInvalidToken
		}
	}

	// The stored account wins over the claims: deactivation and role changes
	// take effect on the next request.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidToken
	}

	return &Identity{
		UserID:    userID,
		Username:  user.Username,
		Role:      user.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// IsInvalidToken reports whether err came from a rejected token rather than
// an unreachable session store.
func IsInvalidToken(err error) bool {
	return errors.Is(err, domain.ErrInvalidToken)
}

var _ AuthUseCase = (*AuthService)(nil)
