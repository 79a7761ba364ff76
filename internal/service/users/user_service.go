package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type UserUseCase interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type UserService struct {
	repo repository.UserRepository
	cost int
	log  logrus.FieldLogger
}

type UserServiceOption func(*UserService)

func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.cost = cost
	}
}

func WithLogger(log logrus.FieldLogger) UserServiceOption {
	return func(s *UserService) {
		s.log = log
	}
}

func NewUserService(repo repository.UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo: repo,
		cost: bcrypt.DefaultCost,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// Create expects the plain password in user.Password and replaces it with
// its bcrypt hash.
func (s *UserService) Create(ctx context.Context, user *domain.User) error {
	if err := validate(user); err != nil {
		return err
	}
	if user.Password == "" {
		return domain.ErrPasswordRequired
	}
	hash, err := s.hash(user.Password)
	if err != nil {
		return err
	}
	user.Password = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.ErrUsernameTaken
		}
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	return nil
}

// Update keeps the stored password hash unless a new plain password is set.
func (s *UserService) Update(ctx context.Context, user *domain.User) (bool, error) {
	if err := validate(user); err != nil {
		return false, err
	}
	existing, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if user.Password == "" {
		user.Password = existing.Password
	} else {
		hash, err := s.hash(user.Password)
		if err != nil {
			return false, err
		}
		user.Password = hash
	}

	ok, err := s.repo.Update(ctx, user)
	if errors.Is(err, domain.ErrDuplicate) {
		return false, domain.ErrUsernameTaken
	}
	return ok, err
}

// Delete deactivates the account; the row is kept so bookings stay linked.
func (s *UserService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Deactivate(ctx, id)
}

func (s *UserService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Authenticate returns the active user matching the credentials. Unknown
// users, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func validate(user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	user.FullName = strings.TrimSpace(user.FullName)
	if user.Username == "" {
		return domain.ErrUsernameRequired
	}
	if !user.Role.Valid() {
		return domain.ErrInvalidRole
	}
	return nil
}

var _ UserUseCase = (*UserService)(nil)
