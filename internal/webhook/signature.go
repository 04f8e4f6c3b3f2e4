package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Required headers on every webhook delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// ErrInvalidSignature covers every verification failure: missing
// headers, stale timestamps and signature mismatches alike. Callers
// get no more detail than the sender would.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Verifier checks webhook deliveries against the shared signing
// secret using the Svix scheme: HMAC-SHA256 over "{id}.{timestamp}.{payload}".
// The payload must be the raw bytes as received; verifying over a
// re-serialized body would break on any encoding difference.
type Verifier struct {
	secret    []byte
	tolerance time.Duration

	// now is replaceable in tests
	now func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	raw := strings.TrimPrefix(secret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}

	return &Verifier{
		secret:    key,
		tolerance: tolerance,
		now:       time.Now,
	}, nil
}

// Verify checks the delivery signature and timestamp freshness.
func (v *Verifier) Verify(payload []byte, msgID, timestamp, signature string) error {
	if msgID == "" || timestamp == "" || signature == "" {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(msgID))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The header holds space-separated "v1,<base64>" entries, one per
	// active secret during rotation; any match accepts the delivery.
	for _, part := range strings.Split(signature, " ") {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}
