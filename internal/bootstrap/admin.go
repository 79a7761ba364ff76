package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/users"
	"github.com/sirupsen/logrus"
)

// EnsureAdmin creates an active administrator named username unless the name
// is already taken. An existing account is left untouched.
func EnsureAdmin(ctx context.Context, svc users.UserUseCase, username, password string, log logrus.FieldLogger) error {
	if username == "" {
		return nil
	}
	free, err := svc.IsUsernameAvailable(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if !free {
		return nil
	}
	admin := &domain.User{
		Username: username,
		Password: password,
		FullName: "Administrator",
		Role:     domain.RoleAdministrator,
		IsActive: true,
	}
	if err := svc.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	log.WithField("username", username).Info("administrator account created")
	return nil
}
