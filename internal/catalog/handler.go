package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unideal/unideal-server/internal/httputil"
	"github.com/unideal/unideal-server/internal/logging"
	"github.com/unideal/unideal-server/internal/validate"
)

// Handler contains HTTP handlers for catalog reads
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ListCategories handles GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		logger.Error("failed to list categories", "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, categories, http.StatusOK)
}

// ListColleges handles GET /api/colleges. Without a limit parameter
// all active colleges are returned.
func (h *Handler) ListColleges(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	limit := 0
	if r.URL.Query().Get("limit") != "" {
		page, details := validate.ParsePagination(r.URL.Query())
		if details != nil {
			httputil.RespondValidationError(w, "Invalid query parameters", details)
			return
		}
		limit = page.Limit
	}

	colleges, err := h.repo.ListColleges(r.Context(), limit)
	if err != nil {
		logger.Error("failed to list colleges", "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, colleges, http.StatusOK)
}

// GetCollege handles GET /api/colleges/{slug}
func (h *Handler) GetCollege(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	slug := chi.URLParam(r, "slug")
	college, err := h.repo.GetCollegeBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "College not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get college", "slug", slug, "error", err)
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, college, http.StatusOK)
}
