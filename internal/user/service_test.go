package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unideal/unideal-server/internal/auth"
	"github.com/unideal/unideal-server/internal/logging"
)

// stubStore is an in-memory Store keyed by clerk id.
type stubStore struct {
	users       map[string]*User
	createCalls int
	updateCalls int
	err         error
}

func newStubStore() *stubStore {
	return &stubStore{users: make(map[string]*User)}
}

func (s *stubStore) CreateFromExternal(_ context.Context, identity ExternalIdentity) (*User, bool, error) {
	s.createCalls++
	if s.err != nil {
		return nil, false, s.err
	}
	if existing, ok := s.users[identity.ClerkID]; ok {
		return existing, false, nil
	}
	u := &User{
		ID:                 uuid.New(),
		ClerkID:            identity.ClerkID,
		Email:              identity.Email,
		FullName:           identity.FullName,
		AvatarURL:          identity.AvatarURL,
		VerificationStatus: StatusUnverified,
	}
	s.users[identity.ClerkID] = u
	return u, true, nil
}

func (s *stubStore) UpdateFromExternal(_ context.Context, clerkID string, identity ExternalIdentity) error {
	s.updateCalls++
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[clerkID]
	if !ok {
		return ErrNotFound
	}
	u.Email = identity.Email
	u.FullName = identity.FullName
	u.AvatarURL = identity.AvatarURL
	return nil
}

func (s *stubStore) GetByClerkID(_ context.Context, clerkID string) (*User, error) {
	u, ok := s.users[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *stubStore) GetVerificationStatus(_ context.Context, id uuid.UUID) (VerificationStatus, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u.VerificationStatus, nil
		}
	}
	return "", ErrNotFound
}

func testIdentity(clerkID string) ExternalIdentity {
	return ExternalIdentity{
		ClerkID:  clerkID,
		Email:    "ria@spit.ac.in",
		FullName: "Ria Shah",
	}
}

func TestHandleUserCreated(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewLogger(true)

	t.Run("creates user once", func(t *testing.T) {
		store := newStubStore()
		svc := NewService(store, logger)

		require.NoError(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))
		assert.Len(t, store.users, 1)
	})

	t.Run("redelivery is a no-op, not an error", func(t *testing.T) {
		store := newStubStore()
		svc := NewService(store, logger)

		require.NoError(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))
		require.NoError(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))

		assert.Len(t, store.users, 1, "duplicate create must not add a row")
		assert.Equal(t, 2, store.createCalls)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		store := newStubStore()
		store.err = assert.AnError
		svc := NewService(store, logger)

		assert.Error(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))
	})
}

func TestHandleUserUpdated(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewLogger(true)

	t.Run("syncs existing user", func(t *testing.T) {
		store := newStubStore()
		svc := NewService(store, logger)
		require.NoError(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))

		updated := testIdentity("user_abc")
		updated.Email = "ria.new@spit.ac.in"
		require.NoError(t, svc.HandleUserUpdated(ctx, updated))

		assert.Equal(t, "ria.new@spit.ac.in", store.users["user_abc"].Email)
	})

	t.Run("update before create is a no-op and creates nothing", func(t *testing.T) {
		store := newStubStore()
		svc := NewService(store, logger)

		require.NoError(t, svc.HandleUserUpdated(ctx, testIdentity("user_ghost")))

		assert.Empty(t, store.users, "update events must never create users")
		assert.Zero(t, store.createCalls)
	})
}

func TestResolveByClerkID(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewLogger(true)

	t.Run("maps known user", func(t *testing.T) {
		store := newStubStore()
		svc := NewService(store, logger)
		require.NoError(t, svc.HandleUserCreated(ctx, testIdentity("user_abc")))

		authUser, err := svc.ResolveByClerkID(ctx, "user_abc")
		require.NoError(t, err)
		assert.Equal(t, store.users["user_abc"].ID, authUser.ID)
		assert.Equal(t, "user_abc", authUser.ClerkID)
		assert.Equal(t, "ria@spit.ac.in", authUser.Email)
	})

	t.Run("unknown subject maps to auth.ErrUserNotFound", func(t *testing.T) {
		svc := NewService(newStubStore(), logger)

		_, err := svc.ResolveByClerkID(ctx, "user_ghost")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestVerificationStatusTransitions(t *testing.T) {
	tests := []struct {
		from VerificationStatus
		to   VerificationStatus
		ok   bool
	}{
		{StatusUnverified, StatusPending, true},
		{StatusUnverified, StatusVerified, false},
		{StatusUnverified, StatusRejected, false},
		{StatusPending, StatusVerified, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusUnverified, false},
		{StatusVerified, StatusPending, false},
		{StatusVerified, StatusRejected, false},
		{StatusRejected, StatusPending, true},
		{StatusRejected, StatusVerified, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
