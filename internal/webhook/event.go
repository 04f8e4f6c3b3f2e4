package webhook

import (
	"errors"
	"strings"

	"github.com/unideal/unideal-server/internal/user"
)

// Event types this service acts on. Anything else is acknowledged and
// skipped for forward compatibility.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

// ErrMalformedEvent marks an upstream payload whose primary-email
// pointer resolves to no entry. Such events are dropped and logged,
// never reported back to the sender.
var ErrMalformedEvent = errors.New("malformed provisioning event")

// Event is the webhook envelope with its type discriminator.
type Event struct {
	Type string        `json:"type"`
	Data UserEventData `json:"data"`
}

// UserEventData is the provider's user snapshot carried by
// user.created and user.updated events.
type UserEventData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Identity resolves the event data into an ExternalIdentity. The
// primary email is the entry the primary_email_address_id pointer
// names; a pointer miss is ErrMalformedEvent.
func (d UserEventData) Identity() (user.ExternalIdentity, error) {
	var primary string
	for _, addr := range d.EmailAddresses {
		if addr.ID == d.PrimaryEmailAddressID {
			primary = addr.EmailAddress
			break
		}
	}
	if primary == "" {
		return user.ExternalIdentity{}, ErrMalformedEvent
	}

	return user.ExternalIdentity{
		ClerkID:   d.ID,
		Email:     primary,
		FullName:  fullName(d.FirstName, d.LastName),
		AvatarURL: d.ImageURL,
	}, nil
}

// fullName joins the non-empty name parts, falling back to "User".
func fullName(first, last *string) string {
	parts := make([]string, 0, 2)
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	if len(parts) == 0 {
		return "User"
	}
	return strings.Join(parts, " ")
}
