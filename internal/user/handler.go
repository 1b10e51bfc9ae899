package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/palparty/backend/pkg/middleware"
	"github.com/palparty/backend/pkg/response"
)

const maxImageSize = 10 << 20

// Handler handles HTTP requests for profile operations
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for profile endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Profile)
	r.Post("/", h.UpdateProfile)
	r.Post("/image", h.UploadImage)
	r.Delete("/", h.DeleteAccount)

	return r
}

// Profile handles GET /profile
// @Summary      Get own profile
// @Description  Get the caller's profile with hosted and joined event ids
// @Tags         profile
// @Produce      json
// @Success      200 {object} response.APIResponse{data=ProfileResponse}
// @Failure      401 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	profile, err := h.service.Profile(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get profile")
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// UpdateProfile handles POST /profile
// @Summary      Update own profile
// @Description  Update name, password and/or profile image
// @Tags         profile
// @Accept       mpfd
// @Produce      json
// @Param        name formData string false "Display name"
// @Param        password formData string false "New password"
// @Param        file formData file false "Profile image"
// @Success      200 {object} response.APIResponse{data=SafeUser}
// @Failure      400 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /profile [post]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	req, image, err := decodeUpdateRequest(r)
	if err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), caller.ID, req, image)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to update profile")
		return
	}

	response.JSON(w, http.StatusOK, updated)
}

// UploadImage handles POST /profile/image
// @Summary      Upload profile image
// @Description  Replace the caller's profile image
// @Tags         profile
// @Accept       mpfd
// @Produce      json
// @Param        file formData file true "Profile image"
// @Success      200 {object} response.APIResponse{data=SafeUser}
// @Failure      400 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /profile/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	_, image, err := decodeUpdateRequest(r)
	if err != nil || len(image) == 0 {
		response.BadRequest(w, "Image file required")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), caller.ID, nil, image)
	if err != nil {
		response.InternalError(w, "Failed to upload image")
		return
	}

	response.JSON(w, http.StatusOK, updated)
}

// DeleteAccount handles DELETE /profile
// @Summary      Delete own account
// @Tags         profile
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Failure      401 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /profile [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "Can't fetch user information")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), caller.ID); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrUserHostingEvents):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete account")
		}
		return
	}

	response.JSON(w, http.StatusOK, "ok")
}

// decodeUpdateRequest accepts either a JSON body or a multipart form with
// an optional "file" part
func decodeUpdateRequest(r *http.Request) (*UpdateProfileRequest, []byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, nil, err
	}

	req := &UpdateProfileRequest{}
	if v := r.FormValue("name"); v != "" {
		req.Name = &v
	}
	if v := r.FormValue("password"); v != "" {
		req.Password = &v
	}

	var image []byte
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		image, err = io.ReadAll(file)
		if err != nil {
			return nil, nil, err
		}
	}

	return req, image, nil
}
