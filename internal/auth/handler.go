package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/palparty/backend/internal/user"
	"github.com/palparty/backend/pkg/response"
)

const maxImageSize = 10 << 20

// Registrar creates new accounts; implemented by the user service
type Registrar interface {
	Register(ctx context.Context, req *user.RegisterRequest, image []byte) (*user.SafeUser, error)
}

// Handler handles HTTP requests for authentication
type Handler struct {
	service *Service
	users   Registrar
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, users Registrar) *Handler {
	return &Handler{service: service, users: users}
}

// Routes returns the router for auth endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/register", h.Register)

	return r
}

// Login handles POST /auth/login
// @Summary      Log in
// @Description  Authenticate with email and password, returning a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} response.APIResponse{data=TokenResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      401 {object} response.APIResponse
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to log in")
		return
	}

	token, err := h.service.IssueToken(u)
	if err != nil {
		response.InternalError(w, "Failed to issue token")
		return
	}

	response.JSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

// Register handles POST /auth/register
// @Summary      Register
// @Description  Create a new PERSON account, optionally with a profile image
// @Tags         auth
// @Accept       mpfd
// @Produce      json
// @Param        email formData string true "Email"
// @Param        password formData string true "Password"
// @Param        name formData string false "Display name"
// @Param        file formData file false "Profile image"
// @Success      201 {object} response.APIResponse{data=RegisterResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, image, err := decodeRegisterRequest(r)
	if err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.users.Register(r.Context(), req, image)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailAlreadyInUse):
			response.Conflict(w, err.Error())
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrPasswordRequired):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to register")
		}
		return
	}

	response.JSON(w, http.StatusCreated, RegisterResponse{User: created})
}

// decodeRegisterRequest accepts either a JSON body or a multipart form with
// an optional "file" part
func decodeRegisterRequest(r *http.Request) (*user.RegisterRequest, []byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req user.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, nil, err
	}

	req := &user.RegisterRequest{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if name := r.FormValue("name"); name != "" {
		req.Name = &name
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
