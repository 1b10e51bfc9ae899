package event

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/palparty/backend/pkg/middleware"
	"github.com/palparty/backend/pkg/response"
)

const maxUploadSize = 10 << 20

// Handler handles HTTP requests for event operations
type Handler struct {
	service *Service
}

// NewHandler creates a new event handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for event endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetByID)
	r.Get("/list", h.List)
	r.Get("/official", h.ListOfficial)
	r.Post("/", h.Create)
	r.Post("/join", h.Join)
	r.Post("/leave", h.Leave)
	r.Post("/close", h.Close)

	return r
}

// GetByID handles GET /events?id=
// @Summary      Get event by ID
// @Description  Get a single event with its participants and comments
// @Tags         events
// @Produce      json
// @Param        id query int true "Event ID"
// @Success      200 {object} response.APIResponse{data=Detail}
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	detail, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get event")
		return
	}

	response.JSON(w, http.StatusOK, detail)
}

// List handles GET /events/list
// @Summary      List events
// @Description  Get a filtered, paginated event listing
// @Tags         events
// @Produce      json
// @Param        page query int false "Zero-based page" default(0)
// @Param        amount query int false "Page size" default(10)
// @Param        status query string false "Comma-separated statuses"
// @Param        exclude query bool false "Treat the status list as an exclusion set"
// @Param        keyword query string false "Space-separated keywords"
// @Success      200 {object} response.APIResponse{data=[]Event}
// @Failure      400 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events/list [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListOfficial handles GET /events/official
// @Summary      List official events
// @Description  Same listing contract as /events/list, restricted to official reposts
// @Tags         events
// @Produce      json
// @Param        page query int false "Zero-based page" default(0)
// @Param        amount query int false "Page size" default(10)
// @Param        status query string false "Comma-separated statuses"
// @Param        exclude query bool false "Treat the status list as an exclusion set"
// @Success      200 {object} response.APIResponse{data=[]Event}
// @Failure      400 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events/official [get]
func (h *Handler) ListOfficial(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, officialOnly bool) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("amount"))

	statuses, err := ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	filter := ListFilter{
		Statuses:     statuses,
		Exclude:      r.URL.Query().Get("exclude") == "true",
		Keywords:     ParseKeywords(r.URL.Query().Get("keyword")),
		OfficialOnly: officialOnly,
	}

	events, total, err := h.service.List(r.Context(), page, perPage, filter)
	if err != nil {
		response.InternalError(w, "Failed to list events")
		return
	}

	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	response.JSONWithMeta(w, http.StatusOK, events, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Create handles POST /events
// @Summary      Create an event
// @Description  Create a WAITING event hosted by the caller, optionally with up to 3 images
// @Tags         events
// @Accept       mpfd
// @Produce      json
// @Param        name formData string true "Event name"
// @Param        description formData string false "Description"
// @Param        short_description formData string false "Short description"
// @Param        date formData string true "Scheduled start, RFC 3339"
// @Param        file formData file false "Attachments"
// @Success      201 {object} response.APIResponse{data=Event}
// @Failure      400 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	req, attachments, err := decodeCreateRequest(r)
	if err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), caller.ID, req, attachments)
	if err != nil {
		switch {
		case errors.Is(err, ErrDateInPast),
			errors.Is(err, ErrDateRequired),
			errors.Is(err, ErrNameRequired),
			errors.Is(err, ErrNameTooLong),
			errors.Is(err, ErrDescriptionTooLong),
			errors.Is(err, ErrTooManyAttachments):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Can't create new event")
		}
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

// Join handles POST /events/join?id=
// @Summary      Join an event
// @Description  Add the caller as a participant of a WAITING event
// @Tags         events
// @Produce      json
// @Param        id query int true "Event ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	if _, err := h.service.Join(r.Context(), id, caller.ID); err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrAlreadyHosting), errors.Is(err, ErrNotAccepting), errors.Is(err, ErrAlreadyJoined):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Could not join event")
		}
		return
	}

	response.JSON(w, http.StatusOK, "ok")
}

// Leave handles POST /events/leave?id=
// @Summary      Leave an event
// @Description  Remove the caller's membership of the event
// @Tags         events
// @Produce      json
// @Param        id query int true "Event ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events/leave [post]
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	if err := h.service.Leave(r.Context(), id, caller.ID); err != nil {
		if errors.Is(err, ErrNotParticipant) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Could not leave event")
		return
	}

	response.JSON(w, http.StatusOK, "ok")
}

// Close handles POST /events/close?id=
// @Summary      Close event registration
// @Description  Host-only early close; the event moves to PREPARING
// @Tags         events
// @Produce      json
// @Param        id query int true "Event ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /events/close [post]
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	if err := h.service.Close(r.Context(), caller.ID, id); err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotHost):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrRegistrationClosed):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Can't update event status")
		}
		return
	}

	response.JSON(w, http.StatusOK, "ok")
}

// decodeCreateRequest accepts either a JSON body or a multipart form with
// optional "file" parts
func decodeCreateRequest(r *http.Request) (*CreateEventRequest, [][]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, err
	}

	req := &CreateEventRequest{Name: r.FormValue("name")}
	if v := r.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.FormValue("short_description"); v != "" {
		req.ShortDescription = &v
	}
	if v := r.FormValue("date"); v != "" {
		date, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, err
		}
		req.Date = date
	}

	var attachments [][]byte
	if r.MultipartForm != nil {
		for _, headers := range r.MultipartForm.File {
			for _, header := range headers {
				file, err := header.Open()
				if err != nil {
					return nil, nil, err
				}
				data, err := io.ReadAll(file)
				file.Close()
				if err != nil {
					return nil, nil, err
				}
				attachments = append(attachments, data)
			}
		}
	}

	return req, attachments, nil
}
