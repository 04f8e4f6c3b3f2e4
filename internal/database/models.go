package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the local identity record, synced from the identity provider.
// clerk_id and email carry unique constraints; the clerk_id constraint is
// what makes duplicate provisioning events resolve idempotently.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ClerkID            string     `bun:"clerk_id,notnull,unique"`
	Email              string     `bun:"email,notnull,unique"`
	FullName           string     `bun:"full_name,notnull"`
	Phone              *string    `bun:"phone"`
	AvatarURL          *string    `bun:"avatar_url"`
	CollegeID          *uuid.UUID `bun:"college_id,type:uuid"`
	VerificationStatus string     `bun:"verification_status,notnull,default:'UNVERIFIED'"`
	IsAdmin            bool       `bun:"is_admin,notnull,default:false"`
	IsBanned           bool       `bun:"is_banned,notnull,default:false"`
	OnboardingComplete bool       `bun:"onboarding_complete,notnull,default:false"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`

	College *College `bun:"rel:belongs-to,join:college_id=id"`
	Wallet  *Wallet  `bun:"rel:has-one,join:id=user_id"`
}

// Wallet is one-to-one with User and is created in the same transaction.
// Balance arithmetic belongs to the ledger component; this schema only
// guarantees the row exists and stays non-negative.
type Wallet struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID        uuid.UUID `bun:"user_id,notnull,unique,type:uuid"`
	Balance       int64     `bun:"balance,notnull,default:0"`
	FrozenBalance int64     `bun:"frozen_balance,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type College struct {
	bun.BaseModel `bun:"table:colleges,alias:c"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name        string    `bun:"name,notnull"`
	Slug        string    `bun:"slug,notnull,unique"`
	EmailDomain string    `bun:"email_domain,notnull"`
	City        string    `bun:"city,notnull"`
	State       string    `bun:"state,notnull"`
	CampusLat   float64   `bun:"campus_lat"`
	CampusLng   float64   `bun:"campus_lng"`
	LogoURL     *string   `bun:"logo_url"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID       uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name     string    `bun:"name,notnull"`
	Slug     string    `bun:"slug,notnull,unique"`
	IconName string    `bun:"icon_name,notnull"`
}
