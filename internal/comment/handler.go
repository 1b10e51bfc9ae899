package comment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/palparty/backend/internal/user"
	"github.com/palparty/backend/pkg/middleware"
	"github.com/palparty/backend/pkg/response"
)

// CreateCommentRequest represents the request to create a comment
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// Handler handles HTTP requests for comment operations
type Handler struct {
	service *Service
}

// NewHandler creates a new comment handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for comment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Delete("/", h.Delete)

	return r
}

// Create handles POST /comments?eventId=
// @Summary      Create a comment
// @Description  Add a comment to an existing event
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        eventId query int true "Event ID"
// @Param        request body CreateCommentRequest true "Comment content"
// @Success      201 {object} response.APIResponse{data=Comment}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	eventID, err := strconv.ParseInt(r.URL.Query().Get("eventId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), caller.ID, eventID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrContentTooLong):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create comment")
		}
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

// Delete handles DELETE /comments?id=
// @Summary      Delete a comment
// @Description  Delete a comment; allowed for its author and for admins
// @Tags         comments
// @Produce      json
// @Param        id query int true "Comment ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /comments [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.service.Delete(r.Context(), caller.ID, user.Role(caller.Role), id); err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotCommentAuthor):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete comment")
		}
		return
	}

	response.JSON(w, http.StatusOK, "ok")
}
