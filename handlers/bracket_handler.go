package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/venky0589/arenaflow/middleware"
	"github.com/venky0589/arenaflow/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	logger         *slog.Logger
}

func NewBracketHandler(bs services.BracketService, logger *slog.Logger) *BracketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketHandler{
		bracketService: bs,
		logger:         logger,
	}
}

// currentUser resolves the authenticated caller, replying 401 when the token
// carries no usable user id.
func (h *BracketHandler) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "authenticated request without user id", slog.Any("error", err))
		unauthorizedResponse(w, r, "authentication required")
		return 0, false
	}
	return userID, true
}

// GenerateHandler godoc
// @Summary Generate a single elimination draw for a category
// @Description Lays out the full bracket from the category registrations. An empty body uses defaults.
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param categoryID path int true "Category ID"
// @Param input body services.DrawGenerateRequest false "Seeds and overwrite flag"
// @Success 201 {object} services.BracketSummary
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/categories/{categoryID}/draw:generate [post]
func (h *BracketHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.DrawGenerateRequest
	if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errEmptyBody) {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.bracketService.GenerateSingleElimination(r.Context(), tournamentID, categoryID, &input)
	if err != nil {
		mapBracketServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "draw generated",
		slog.Int64("user_id", currentUserID),
		slog.Int64("category_id", categoryID),
		slog.Int("matches", len(summary.Matches)))

	if err := writeJSON(w, http.StatusCreated, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler godoc
// @Summary Get the bracket of a category
// @Tags brackets
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 200 {object} services.BracketSummary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{categoryID}/bracket [get]
func (h *BracketHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.bracketService.GetBracket(r.Context(), categoryID)
	if err != nil {
		mapBracketServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteDraftHandler godoc
// @Summary Delete a draft bracket
// @Description Removes every match of the category unless one of them has progressed.
// @Tags brackets
// @Param categoryID path int true "Category ID"
// @Param draft query bool false "Must be true (default)"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{categoryID}/bracket [delete]
func (h *BracketHandler) DeleteDraftHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draft := true
	if raw := r.URL.Query().Get("draft"); raw != "" {
		draft, err = strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid draft query parameter"))
			return
		}
	}
	if !draft {
		badRequestResponse(w, r, errors.New("only draft brackets can be deleted"))
		return
	}

	if err := h.bracketService.DeleteDraftBracket(r.Context(), categoryID); err != nil {
		mapBracketServiceErrorToHTTP(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "draft bracket deleted", slog.Int64("user_id", currentUserID), slog.Int64("category_id", categoryID))

	w.WriteHeader(http.StatusNoContent)
}

// ExportHandler godoc
// @Summary Export the bracket snapshot to object storage
// @Tags brackets
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 201 {object} services.BracketExport
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{categoryID}/bracket/export [post]
func (h *BracketHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	export, err := h.bracketService.ExportBracket(r.Context(), categoryID)
	if err != nil {
		mapBracketServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "bracket export requested", slog.Int64("user_id", currentUserID), slog.Int64("category_id", categoryID), slog.String("url", export.URL))
	if err := writeJSON(w, http.StatusCreated, export, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
