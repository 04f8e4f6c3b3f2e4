package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/unideal/unideal-server/internal/httputil"
	"github.com/unideal/unideal-server/internal/logging"
	"github.com/unideal/unideal-server/internal/user"
)

// Provisioner applies provisioning events to the local user store.
// Implemented by user.Service.
type Provisioner interface {
	HandleUserCreated(ctx context.Context, identity user.ExternalIdentity) error
	HandleUserUpdated(ctx context.Context, identity user.ExternalIdentity) error
}

// Handler receives identity-provider webhooks. Signature failures are
// rejected with 400 before anything is touched; once a delivery is
// authenticated, every processing outcome is acknowledged with 2xx so
// the sender never re-delivers over an internal failure. Those
// failures are logged for out-of-band inspection instead.
type Handler struct {
	verifier    *Verifier
	deliveries  DeliveryLog
	provisioner Provisioner
	logger      *logging.Logger
}

func NewHandler(verifier *Verifier, deliveries DeliveryLog, provisioner Provisioner, logger *logging.Logger) *Handler {
	return &Handler{
		verifier:    verifier,
		deliveries:  deliveries,
		provisioner: provisioner,
		logger:      logger,
	}
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// HandleClerkWebhook handles POST /api/webhooks/clerk
func (h *Handler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// The signature covers the byte-exact payload as received
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.RespondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	msgID := r.Header.Get(HeaderID)
	timestamp := r.Header.Get(HeaderTimestamp)
	signature := r.Header.Get(HeaderSignature)

	if msgID == "" || timestamp == "" || signature == "" {
		httputil.RespondError(w, "Missing svix headers", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(body, msgID, timestamp, signature); err != nil {
		logger.Warn("webhook signature verification failed", "delivery_id", msgID)
		httputil.RespondError(w, "Invalid webhook signature", http.StatusBadRequest)
		return
	}

	first, err := h.deliveries.MarkSeen(r.Context(), msgID)
	if err != nil {
		// Dedup is best effort; processing is idempotent anyway
		logger.Warn("failed to check delivery id", "delivery_id", msgID, "error", err)
	} else if !first {
		logger.Info("duplicate delivery, skipping", "delivery_id", msgID)
		httputil.RespondJSON(w, receivedResponse{Received: true}, http.StatusOK)
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Error("failed to parse webhook payload", "delivery_id", msgID, "error", err)
		httputil.RespondJSON(w, receivedResponse{Received: true}, http.StatusOK)
		return
	}

	if err := h.process(r.Context(), event, logger); err != nil {
		logger.Error("webhook processing failed", "delivery_id", msgID, "type", event.Type, "error", err)
	}

	httputil.RespondJSON(w, receivedResponse{Received: true}, http.StatusOK)
}

func (h *Handler) process(ctx context.Context, event Event, logger *logging.Logger) error {
	switch event.Type {
	case EventUserCreated:
		identity, err := event.Data.Identity()
		if err != nil {
			if errors.Is(err, ErrMalformedEvent) {
				logger.Error("no primary email in create event", "clerk_id", event.Data.ID)
				return nil
			}
			return err
		}
		return h.provisioner.HandleUserCreated(ctx, identity)

	case EventUserUpdated:
		identity, err := event.Data.Identity()
		if err != nil {
			if errors.Is(err, ErrMalformedEvent) {
				logger.Error("no primary email in update event", "clerk_id", event.Data.ID)
				return nil
			}
			return err
		}
		return h.provisioner.HandleUserUpdated(ctx, identity)

	default:
		logger.Info("ignoring webhook event type", "type", event.Type)
		return nil
	}
}
