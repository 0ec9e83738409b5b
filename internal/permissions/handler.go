package permissions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-admin/meridian-admin/internal/menutree"
	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/rbac"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// IdempotencyHeader carries the client supplied key for grant/revoke retries.
const IdempotencyHeader = "X-Idempotency-Key"

// Handler wires HTTP endpoints for permission batches.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
	rbac        rbac.Middleware
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		idempotency: idempotency,
		rbac:        rbac,
		validator:   validator.New(),
	}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPermissionsView, shared.PermPermissionsEdit))
		r.Get("/profiles/{profileID}/permissions/tree", h.tree)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPermissionsEdit))
		r.Post("/profiles/{profileID}/permissions/grant", h.grant)
		r.Post("/profiles/{profileID}/permissions/revoke", h.revoke)
		r.Put("/profiles/{profileID}/permissions/level", h.setLevel)
		r.Post("/profiles/{profileID}/permissions/cycle", h.cycleLevel)
	})
}

type batchRequest struct {
	MenuID int64 `json:"menu_id" validate:"required,gt=0"`
}

type levelRequest struct {
	MenuID int64  `json:"menu_id" validate:"required,gt=0"`
	Level  string `json:"level" validate:"required,oneof=read restricted full"`
}

type assignmentResponse struct {
	ID        int64  `json:"id"`
	MenuID    int64  `json:"menu_id"`
	ProfileID int64  `json:"profile_id"`
	Access    string `json:"access"`
}

func toAssignmentResponse(a menutree.Assignment) assignmentResponse {
	return assignmentResponse{ID: a.ID, MenuID: a.MenuID, ProfileID: a.ProfileID, Access: a.Level.String()}
}

func outcomeLabel(o menutree.Outcome) string {
	switch o {
	case menutree.OutcomeApplied:
		return "applied"
	case menutree.OutcomeAlreadyAssigned:
		return "already_assigned"
	case menutree.OutcomeNotAssigned:
		return "not_assigned"
	}
	return "unknown_menu"
}

func parseLevel(name string) (menutree.AccessLevel, bool) {
	switch name {
	case "read":
		return menutree.AccessRead, true
	case "restricted":
		return menutree.AccessRestricted, true
	case "full":
		return menutree.AccessFull, true
	}
	return 0, false
}

func profileParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "profileID"), 10, 64)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid profile id")
		return
	}
	expanded := make(map[int64]bool)
	if raw := r.URL.Query().Get("expanded"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid expanded id list")
				return
			}
			expanded[id] = true
		}
	}

	view, err := h.service.Tree(r.Context(), profileID, expanded)
	if err != nil {
		h.logger.Error("render permission tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// claimIdempotency reserves the request's idempotency key, if one was sent.
// The returned release func frees the key again so a failed batch can be
// retried with the same key.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	key := r.Header.Get(IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return func() {}, true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, "permissions"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "request with this idempotency key was already processed")
			return nil, false
		}
		h.logger.Error("idempotency check", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	return func() {
		if err := h.idempotency.Delete(r.Context(), key); err != nil {
			h.logger.Warn("idempotency release failed", slog.Any("error", err))
		}
	}, true
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid profile id")
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	release, ok := h.claimIdempotency(w, r)
	if !ok {
		return
	}

	actorID, _ := shared.CurrentUserID(r.Context())
	result, err := h.service.Grant(r.Context(), actorID, profileID, req.MenuID)
	if err != nil {
		release()
		h.respondBatchError(w, "grant", err)
		return
	}

	created := make([]assignmentResponse, 0, len(result.Created))
	for _, a := range result.Created {
		created = append(created, toAssignmentResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"outcome": outcomeLabel(result.Outcome),
		"created": created,
	})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid profile id")
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	release, ok := h.claimIdempotency(w, r)
	if !ok {
		return
	}

	actorID, _ := shared.CurrentUserID(r.Context())
	result, err := h.service.Revoke(r.Context(), actorID, profileID, req.MenuID)
	if err != nil {
		release()
		h.respondBatchError(w, "revoke", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"outcome": outcomeLabel(result.Outcome),
		"deleted": result.Deleted,
	})
}

func (h *Handler) setLevel(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid profile id")
		return
	}
	var req levelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	level, ok := parseLevel(req.Level)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown access level")
		return
	}

	actorID, _ := shared.CurrentUserID(r.Context())
	updated, err := h.service.SetLevel(r.Context(), actorID, profileID, req.MenuID, level)
	if err != nil {
		h.respondLevelError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssignmentResponse(updated))
}

func (h *Handler) cycleLevel(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid profile id")
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actorID, _ := shared.CurrentUserID(r.Context())
	updated, err := h.service.CycleLevel(r.Context(), actorID, profileID, req.MenuID)
	if err != nil {
		h.respondLevelError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssignmentResponse(updated))
}

func (h *Handler) respondBatchError(w http.ResponseWriter, operation string, err error) {
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		h.logger.Error("permission batch partially applied",
			slog.String("operation", operation),
			slog.Int("applied", batchErr.Applied),
			slog.Int("total", batchErr.Total),
			slog.Any("error", batchErr.Err))
		httpx.Problem(w, http.StatusConflict, "Partial Batch", batchErr.Error())
		return
	}
	h.logger.Error("permission batch failed", slog.String("operation", operation), slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) respondLevelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, menutree.ErrNotAssigned):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "menu is not assigned to the profile")
	case errors.Is(err, menutree.ErrStructuralAssignment):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", "structural assignments have no editable level")
	case errors.Is(err, menutree.ErrInvalidLevel):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown access level")
	default:
		h.logger.Error("level change failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
