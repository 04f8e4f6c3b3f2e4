package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/unideal/unideal-server/internal/database"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrInactiveCollege = errors.New("invalid or inactive college")
)

// Repository handles user and wallet persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateFromExternal inserts a User and its Wallet in one transaction.
// The clerk_id unique constraint makes this idempotent: a concurrent or
// redelivered create resolves to the existing row with created=false,
// never an error. No User ever exists without a Wallet.
func (r *Repository) CreateFromExternal(ctx context.Context, identity ExternalIdentity) (*User, bool, error) {
	dbUser := &database.User{
		ClerkID:            identity.ClerkID,
		Email:              identity.Email,
		FullName:           identity.FullName,
		AvatarURL:          identity.AvatarURL,
		VerificationStatus: string(StatusUnverified),
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbUser).
			Returning("*").
			Exec(ctx); err != nil {
			return err
		}

		wallet := &database.Wallet{UserID: dbUser.ID}
		if _, err := tx.NewInsert().
			Model(wallet).
			Exec(ctx); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race (or redelivery); the existing row wins
			existing, getErr := r.GetByClerkID(ctx, identity.ClerkID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load existing user after duplicate create: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), true, nil
}

// UpdateFromExternal syncs email, name and avatar from a provisioning
// update event. Returns ErrNotFound when no user has the clerk id.
func (r *Repository) UpdateFromExternal(ctx context.Context, clerkID string, identity ExternalIdentity) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("email = ?", identity.Email).
		Set("full_name = ?", identity.FullName).
		Set("avatar_url = ?", identity.AvatarURL).
		Set("updated_at = NOW()").
		Where("clerk_id = ?", clerkID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update user from external identity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByClerkID retrieves a user by the provider's subject identifier
func (r *Repository) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("clerk_id = ?", clerkID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by clerk id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetProfile retrieves a user with college and wallet attached
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Relation("College").
		Relation("Wallet").
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	profile := &Profile{User: *mapDBUserToModel(dbUser)}
	if dbUser.College != nil {
		profile.College = &CollegeSummary{
			ID:   dbUser.College.ID,
			Name: dbUser.College.Name,
			Slug: dbUser.College.Slug,
			City: dbUser.College.City,
		}
	}
	if dbUser.Wallet != nil {
		profile.Wallet = &WalletSummary{
			ID:            dbUser.Wallet.ID,
			Balance:       dbUser.Wallet.Balance,
			FrozenBalance: dbUser.Wallet.FrozenBalance,
		}
	}

	return profile, nil
}

// GetPublicProfile retrieves the publicly visible subset of a user
func (r *Repository) GetPublicProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Relation("College").
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get public profile: %w", err)
	}

	profile := &PublicProfile{
		ID:                 dbUser.ID,
		FullName:           dbUser.FullName,
		AvatarURL:          dbUser.AvatarURL,
		VerificationStatus: VerificationStatus(dbUser.VerificationStatus),
		CreatedAt:          dbUser.CreatedAt,
	}
	if dbUser.College != nil {
		profile.College = &CollegeSummary{
			ID:   dbUser.College.ID,
			Name: dbUser.College.Name,
			Slug: dbUser.College.Slug,
			City: dbUser.College.City,
		}
	}

	return profile, nil
}

// GetVerificationStatus fetches the current verification status.
// Callers gating on verification must use this rather than any value
// cached at authentication time.
func (r *Repository) GetVerificationStatus(ctx context.Context, id uuid.UUID) (VerificationStatus, error) {
	var status string
	err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Column("verification_status").
		Where("id = ?", id).
		Scan(ctx, &status)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get verification status: %w", err)
	}

	return VerificationStatus(status), nil
}

// UpdateProfileParams carries the updatable profile fields. Nil fields
// are left unchanged.
type UpdateProfileParams struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// UpdateProfile applies a partial profile update
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error) {
	dbUser := new(database.User)
	q := r.db.NewUpdate().
		Model(dbUser).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*")

	if params.FullName != nil {
		q = q.Set("full_name = ?", *params.FullName)
	}
	if params.Phone != nil {
		q = q.Set("phone = ?", *params.Phone)
	}
	if params.AvatarURL != nil {
		q = q.Set("avatar_url = ?", *params.AvatarURL)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// CompleteOnboarding sets the user's college, name and phone and marks
// onboarding complete. The college must exist and be active. The wallet
// upsert is a safety net; provisioning already created it.
func (r *Repository) CompleteOnboarding(ctx context.Context, id uuid.UUID, collegeID uuid.UUID, fullName string, phone *string) (*Profile, error) {
	college := new(database.College)
	err := r.db.NewSelect().
		Model(college).
		Column("id", "is_active").
		Where("id = ?", collegeID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInactiveCollege
		}
		return nil, fmt.Errorf("failed to check college: %w", err)
	}
	if !college.IsActive {
		return nil, ErrInactiveCollege
	}

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("college_id = ?", collegeID).
		Set("full_name = ?", fullName).
		Set("phone = ?", phone).
		Set("onboarding_complete = ?", true).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	wallet := &database.Wallet{UserID: id}
	if _, err := r.db.NewInsert().
		Model(wallet).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	return r.GetProfile(ctx, id)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                 dbu.ID,
		ClerkID:            dbu.ClerkID,
		Email:              dbu.Email,
		FullName:           dbu.FullName,
		Phone:              dbu.Phone,
		AvatarURL:          dbu.AvatarURL,
		CollegeID:          dbu.CollegeID,
		VerificationStatus: VerificationStatus(dbu.VerificationStatus),
		IsAdmin:            dbu.IsAdmin,
		IsBanned:           dbu.IsBanned,
		OnboardingComplete: dbu.OnboardingComplete,
		CreatedAt:          dbu.CreatedAt,
		UpdatedAt:          dbu.UpdatedAt,
	}
}
