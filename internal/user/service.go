package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/unideal/unideal-server/internal/auth"
	"github.com/unideal/unideal-server/internal/logging"
)

// Store is the persistence surface the reconciler needs.
// Implemented by Repository.
type Store interface {
	CreateFromExternal(ctx context.Context, identity ExternalIdentity) (*User, bool, error)
	UpdateFromExternal(ctx context.Context, clerkID string, identity ExternalIdentity) error
	GetByClerkID(ctx context.Context, clerkID string) (*User, error)
	GetVerificationStatus(ctx context.Context, id uuid.UUID) (VerificationStatus, error)
}

// Service reconciles local user records with the identity provider:
// it applies provisioning events and resolves authenticated subjects
// to local users for the request pipeline.
type Service struct {
	store  Store
	logger *logging.Logger
}

func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// HandleUserCreated applies a user.created provisioning event.
// Redelivery is a logged no-op, never an error.
func (s *Service) HandleUserCreated(ctx context.Context, identity ExternalIdentity) error {
	created, isNew, err := s.store.CreateFromExternal(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}

	if !isNew {
		s.logger.Info("user already provisioned, skipping", "clerk_id", identity.ClerkID)
		return nil
	}

	s.logger.Info("user provisioned", "clerk_id", identity.ClerkID, "user_id", created.ID, "email", created.Email)
	return nil
}

// HandleUserUpdated applies a user.updated provisioning event.
// An update for an unknown subject is a logged no-op; it must not
// create a user.
func (s *Service) HandleUserUpdated(ctx context.Context, identity ExternalIdentity) error {
	err := s.store.UpdateFromExternal(ctx, identity.ClerkID, identity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("update event for unknown user, skipping", "clerk_id", identity.ClerkID)
			return nil
		}
		return fmt.Errorf("failed to sync user: %w", err)
	}

	s.logger.Info("user synced", "clerk_id", identity.ClerkID)
	return nil
}

// ResolveByClerkID implements auth.UserResolver
func (s *Service) ResolveByClerkID(ctx context.Context, clerkID string) (*auth.AuthUser, error) {
	u, err := s.store.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	return &auth.AuthUser{
		ID:       u.ID,
		ClerkID:  u.ClerkID,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsBanned: u.IsBanned,
	}, nil
}

// VerificationStatus implements auth.UserResolver with a live fetch
func (s *Service) VerificationStatus(ctx context.Context, userID uuid.UUID) (string, error) {
	status, err := s.store.GetVerificationStatus(ctx, userID)
	if err != nil {
		return "", err
	}
	return string(status), nil
}
