package workflow

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/rbac"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Handler wires HTTP endpoints for the approval inbox.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers workflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermWorkflowView, shared.PermWorkflowApprove))
		r.Get("/workflow/tasks", h.list)
		r.Get("/workflow/tasks/{id}", h.show)
		r.Get("/workflow/tasks/{id}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermWorkflowView, shared.PermWorkflowApprove))
		r.Post("/workflow/tasks", h.submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermWorkflowApprove))
		r.Post("/workflow/tasks/{id}/approve", h.approve)
		r.Post("/workflow/tasks/{id}/reject", h.reject)
	})
}

type taskResponse struct {
	ID                int64          `json:"id"`
	RefID             string         `json:"ref_id"`
	Module            string         `json:"module"`
	Title             string         `json:"title"`
	Payload           map[string]any `json:"payload,omitempty"`
	AssigneeProfileID int64          `json:"assignee_profile_id"`
	RequestedBy       int64          `json:"requested_by"`
	Status            string         `json:"status"`
	DecidedBy         int64          `json:"decided_by,omitempty"`
	DecisionNote      string         `json:"decision_note,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func toResponse(t Task) taskResponse {
	return taskResponse{
		ID:                t.ID,
		RefID:             t.RefID.String(),
		Module:            t.Module,
		Title:             t.Title,
		Payload:           t.Payload,
		AssigneeProfileID: t.AssigneeProfileID,
		RequestedBy:       t.RequestedBy,
		Status:            string(t.Status),
		DecidedBy:         t.DecidedBy,
		DecisionNote:      t.DecisionNote,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

type submitRequest struct {
	Module            string         `json:"module" validate:"required,max=60"`
	Title             string         `json:"title" validate:"required,max=200"`
	Payload           map[string]any `json:"payload"`
	AssigneeProfileID int64          `json:"assignee_profile_id" validate:"required,gt=0"`
}

type decisionRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profileID, _ := strconv.ParseInt(q.Get("assignee_profile_id"), 10, 64)
	filters := ListFilters{Status: Status(q.Get("status")), AssigneeProfileID: profileID}

	tasks, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list workflow tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid task id")
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	task, err := h.service.Submit(r.Context(), actorID, SubmitInput{
		Module:            req.Module,
		Title:             req.Title,
		Payload:           req.Payload,
		AssigneeProfileID: req.AssigneeProfileID,
	})
	if err != nil {
		h.logger.Error("submit workflow task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(task))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	id, err := idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid task id")
		return
	}
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actorID, _ := shared.CurrentUserID(r.Context())
	var task Task
	if approve {
		task, err = h.service.Approve(r.Context(), actorID, id, req.Note)
	} else {
		task, err = h.service.Reject(r.Context(), actorID, id, req.Note)
	}
	if err != nil {
		h.logger.Error("decide workflow task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid task id")
		return
	}
	logs, err := h.service.History(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type entry struct {
		Action  string    `json:"action"`
		ActorID int64     `json:"actor_id"`
		Note    string    `json:"note,omitempty"`
		At      time.Time `json:"at"`
	}
	out := make([]entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, entry{Action: string(l.Action), ActorID: l.ActorID, Note: l.Note, At: l.At})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": out})
}
