package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/unideal/unideal-server/internal/auth"
	"github.com/unideal/unideal-server/internal/httputil"
	"github.com/unideal/unideal-server/internal/logging"
	"github.com/unideal/unideal-server/internal/validate"
)

// Handler contains HTTP handlers for user profile endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// UpdateProfileRequest is the PUT /api/users/me body
type UpdateProfileRequest struct {
	FullName  *string `json:"fullName" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,inphone"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

// OnboardingRequest is the POST /api/users/onboarding body
type OnboardingRequest struct {
	CollegeID string  `json:"collegeId" validate:"required,uuid"`
	FullName  string  `json:"fullName" validate:"required,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,inphone"`
}

// UpdateProfileResponse is the subset returned after a profile update
type UpdateProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Phone     *string   `json:"phone"`
	AvatarURL *string   `json:"avatarUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Me returns the authenticated user's profile with college and wallet
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	authUser, ok := auth.GetAuthUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	profile, err := h.repo.GetProfile(r.Context(), authUser.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load profile", "user_id", authUser.ID, "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}

// UpdateMe applies a partial update to the authenticated user's profile
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	authUser, ok := auth.GetAuthUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := validate.DecodeJSON(r.Body, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeValidationError, http.StatusBadRequest)
		return
	}
	if details := validate.Struct(req); details != nil {
		httputil.RespondValidationError(w, "Validation failed", details)
		return
	}

	updated, err := h.repo.UpdateProfile(r.Context(), authUser.ID, UpdateProfileParams{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update profile", "user_id", authUser.ID, "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, UpdateProfileResponse{
		ID:        updated.ID,
		FullName:  updated.FullName,
		Phone:     updated.Phone,
		AvatarURL: updated.AvatarURL,
		UpdatedAt: updated.UpdatedAt,
	}, http.StatusOK)
}

// Onboarding completes post-signup onboarding: sets college, full name
// and phone, and marks onboarding complete
func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	authUser, ok := auth.GetAuthUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req OnboardingRequest
	if err := validate.DecodeJSON(r.Body, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeValidationError, http.StatusBadRequest)
		return
	}
	if details := validate.Struct(req); details != nil {
		httputil.RespondValidationError(w, "Validation failed", details)
		return
	}

	collegeID, err := uuid.Parse(req.CollegeID)
	if err != nil {
		httputil.RespondValidationError(w, "Validation failed", []httputil.FieldError{
			{Field: "collegeId", Message: "Invalid college ID"},
		})
		return
	}

	profile, err := h.repo.CompleteOnboarding(r.Context(), authUser.ID, collegeID, req.FullName, req.Phone)
	if err != nil {
		if errors.Is(err, ErrInactiveCollege) {
			httputil.RespondErrorWithCode(w, "Invalid or inactive college", httputil.CodeValidationError, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to complete onboarding", "user_id", authUser.ID, "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}

// PublicProfile returns the publicly visible profile for a user id
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	profile, err := h.repo.GetPublicProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load public profile", "user_id", id, "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}
