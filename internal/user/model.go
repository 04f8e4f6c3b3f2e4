package user

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the college-verification state of a user.
// Transitions only move along the defined edges; there is no direct
// UNVERIFIED -> VERIFIED shortcut.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "UNVERIFIED"
	StatusPending    VerificationStatus = "PENDING"
	StatusVerified   VerificationStatus = "VERIFIED"
	StatusRejected   VerificationStatus = "REJECTED"
)

// CanTransitionTo reports whether the status may move to next.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	switch s {
	case StatusUnverified:
		return next == StatusPending
	case StatusPending:
		return next == StatusVerified || next == StatusRejected
	case StatusRejected:
		return next == StatusPending
	default:
		return false
	}
}

// ExternalIdentity is the provider's view of a user at event time.
// It is transient, only ever used to upsert the local User record.
type ExternalIdentity struct {
	ClerkID   string
	Email     string
	FullName  string
	AvatarURL *string
}

type User struct {
	ID                 uuid.UUID          `json:"id"`
	ClerkID            string             `json:"clerkId"`
	Email              string             `json:"email"`
	FullName           string             `json:"fullName"`
	Phone              *string            `json:"phone"`
	AvatarURL          *string            `json:"avatarUrl"`
	CollegeID          *uuid.UUID         `json:"collegeId"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	IsAdmin            bool               `json:"isAdmin"`
	IsBanned           bool               `json:"-"`
	OnboardingComplete bool               `json:"onboardingComplete"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// CollegeSummary is the college subset embedded in profile responses.
type CollegeSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	City string    `json:"city"`
}

// WalletSummary is the wallet subset embedded in the /me response.
type WalletSummary struct {
	ID            uuid.UUID `json:"id"`
	Balance       int64     `json:"balance"`
	FrozenBalance int64     `json:"frozenBalance"`
}

// Profile is the authenticated user's own profile with college and
// wallet attached.
type Profile struct {
	User
	College *CollegeSummary `json:"college"`
	Wallet  *WalletSummary  `json:"wallet"`
}

// PublicProfile is the subset of a user visible to anyone.
type PublicProfile struct {
	ID                 uuid.UUID          `json:"id"`
	FullName           string             `json:"fullName"`
	AvatarURL          *string            `json:"avatarUrl"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
	College            *CollegeSummary    `json:"college"`
}
