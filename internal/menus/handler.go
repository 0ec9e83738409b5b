package menus

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

// Handler wires HTTP endpoints for the menu catalog.
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

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermMenusView, shared.PermMenusEdit))
		r.Get("/menus", h.list)
		r.Get("/menus/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermMenusEdit))
		r.Post("/menus", h.create)
		r.Put("/menus/{id}", h.update)
		r.Delete("/menus/{id}", h.delete)
	})
}

type menuResponse struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id,omitempty"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(m Menu) menuResponse {
	return menuResponse{
		ID:        m.ID,
		ParentID:  m.ParentID,
		Title:     m.Title,
		Slug:      m.Slug,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type createMenuRequest struct {
	ParentID int64  `json:"parent_id"`
	Title    string `json:"title" validate:"required,max=120"`
	Slug     string `json:"slug" validate:"omitempty,max=120"`
}

type updateMenuRequest struct {
	Title string `json:"title" validate:"required,max=120"`
	Slug  string `json:"slug" validate:"omitempty,max=120"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list menus", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]menuResponse, 0, len(catalog))
	for _, m := range catalog {
		out = append(out, toResponse(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": out})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid menu id")
		return
	}
	menu, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(menu))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMenuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	menu, err := h.service.Create(r.Context(), actorID, CreateInput{
		ParentID: req.ParentID,
		Title:    req.Title,
		Slug:     req.Slug,
	})
	if err != nil {
		h.logger.Error("create menu", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(menu))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid menu id")
		return
	}
	var req updateMenuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	menu, err := h.service.Update(r.Context(), actorID, id, UpdateInput{Title: req.Title, Slug: req.Slug})
	if err != nil {
		h.logger.Error("update menu", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(menu))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid menu id")
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	if err := h.service.Delete(r.Context(), actorID, id); err != nil {
		h.logger.Error("delete menu", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
