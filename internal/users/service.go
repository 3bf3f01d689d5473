package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/shared"
)

// Notification subjects and bodies sent on account lifecycle events.
const (
	welcomeSubject  = "Welcome to Meridian Accounts"
	deletedSubject  = "Account Deletion Notification"
	updatedSubject  = "Profile Update Notification"
	logoutSubject   = "Logout Notification"
	passwordSubject = "Password Change Notification"

	welcomeMessage  = "Welcome %s! Your account has been created."
	deletedMessage  = "User %s deleted."
	updatedMessage  = "User %s details have been updated successfully."
	logoutMessage   = "User %s has logged out successfully."
	passwordMessage = "User %s has changed the password."
)

// Notifier delivers account lifecycle emails through the notify service.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Service wraps account business rules: registration, login/logout with the
// single-slot token discipline, profile maintenance and the notifications
// each mutation triggers.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	codec    *auth.Codec
	notifier Notifier
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, codec *auth.Codec, notifier Notifier) *Service {
	return &Service{logger: logger, repo: repo, codec: codec, notifier: notifier}
}

// RegisterInput carries validated registration data.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Age         int
	City        string
	Roles       []shared.Role
}

// UpdateInput carries validated profile updates. Username and password are
// never touched here; roles are unioned into the existing set.
type UpdateInput struct {
	PhoneNumber string
	Age         int
	City        string
	Roles       []shared.Role
}

// Register creates the account and sends the welcome notification. The
// account stays created even if the notification fails; the failure
// surfaces to the caller as ErrNotification.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, shared.ErrDuplicateAccount
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		Age:          input.Age,
		City:         input.City,
		Roles:        input.Roles,
	}
	account, err = s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.notify(ctx, account, welcomeSubject, welcomeMessage); err != nil {
		return account, err
	}
	s.logger.Info("user registered", slog.String("email", account.Email))
	return account, nil
}

// Login verifies credentials and issues a fresh token, overwriting the
// account's token slot. A previous login's token is revoked by the
// overwrite. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.PasswordMatches(password, account.PasswordHash) {
		return "", shared.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(account.Email, shared.RoleClaim(account.Roles))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.repo.SetCurrentToken(ctx, account.Email, token); err != nil {
		return "", err
	}
	s.logger.Info("user logged in", slog.String("email", account.Email))
	return token, nil
}

// Logout clears the token slot. Clearing an already cleared slot succeeds;
// the subsequent protected call simply finds no matching token.
func (s *Service) Logout(ctx context.Context, email string) error {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repo.ClearCurrentToken(ctx, email); err != nil {
		return err
	}
	if err := s.notify(ctx, account, logoutSubject, logoutMessage); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("email", email))
	return nil
}

// ChangePassword overwrites the stored hash. This is the whole
// forgot-password flow: a single overwrite, no reset token.
func (s *Service) ChangePassword(ctx context.Context, email, password string) error {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	if err := s.repo.Update(ctx, account); err != nil {
		return err
	}
	if err := s.notify(ctx, account, passwordSubject, passwordMessage); err != nil {
		return err
	}
	s.logger.Info("password changed", slog.String("email", email))
	return nil
}

// UpdateProfile merges the update into the account: phone, age and city are
// replaced, roles are unioned.
func (s *Service) UpdateProfile(ctx context.Context, email string, input UpdateInput) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if input.PhoneNumber != "" {
		account.PhoneNumber = input.PhoneNumber
	}
	account.Age = input.Age
	account.City = input.City
	account.MergeRoles(input.Roles)
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}
	if err := s.notify(ctx, account, updatedSubject, updatedMessage); err != nil {
		return account, err
	}
	s.logger.Info("user updated", slog.String("email", email))
	return account, nil
}

// Delete removes the account and notifies its owner.
func (s *Service) Delete(ctx context.Context, email string) error {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		return err
	}
	if err := s.notify(ctx, account, deletedSubject, deletedMessage); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("email", email))
	return nil
}

// GetByEmail returns the account or ErrNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

// List returns a page of accounts plus the total count.
func (s *Service) List(ctx context.Context, page, size int) ([]Account, int, error) {
	return s.repo.List(ctx, page, size)
}

// ValidateStoredToken reports whether token is exactly the account's current
// one. Unknown accounts and empty slots always yield false.
func (s *Service) ValidateStoredToken(ctx context.Context, email, token string) (bool, error) {
	stored, err := s.repo.CurrentToken(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return stored != "" && stored == token, nil
}

func (s *Service) notify(ctx context.Context, account *Account, subject, messageFormat string) error {
	body := fmt.Sprintf(messageFormat, account.Username)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		s.logger.Error("send notification", slog.String("email", account.Email), slog.Any("error", err))
		return fmt.Errorf("%w: %s", shared.ErrNotification, subject)
	}
	return nil
}
