package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/platform/httpx"
	"github.com/meridianhq/meridian/internal/ratelimit"
	"github.com/meridianhq/meridian/internal/shared"
)

const forgotPasswordOp = "forgotPassword"

// Handler wires the /user HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *ratelimit.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *ratelimit.Guard) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes with their access requirement attached
// at registration time. Register and login are the only public routes;
// listing and deletion are admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.Require(auth.Public())).Post("/register", h.handleRegister)
	r.With(auth.Require(auth.Public())).Post("/login", h.handleLogin)
	r.With(auth.Require(auth.Authenticated())).Patch("/forgotPassword", h.handleForgotPassword)
	r.With(auth.Require(auth.RequireRoles(shared.RoleAdmin))).Get("/getUser", h.handleGetUser)
	r.With(auth.Require(auth.RequireRoles(shared.RoleAdmin))).Get("/getAllUser", h.handleGetAllUsers)
	r.With(auth.Require(auth.Authenticated())).Get("/viewProfile", h.handleViewProfile)
	r.With(auth.Require(auth.RequireRoles(shared.RoleAdmin))).Delete("/removeUser", h.handleRemoveUser)
	r.With(auth.Require(auth.Authenticated())).Put("/updateUser", h.handleUpdateUser)
	r.With(auth.Require(auth.Authenticated())).Post("/validateToken", h.handleValidateToken)
	r.With(auth.Require(auth.Authenticated())).Post("/logout", h.handleLogout)
}

type roleList []string

func (r roleList) toRoles() []shared.Role {
	roles := make([]shared.Role, 0, len(r))
	for _, name := range r {
		roles = append(roles, shared.Role(name))
	}
	return roles
}

type registerRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=20"`
	EmailID     string   `json:"emailId" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	FirstName   string   `json:"firstName" validate:"required,min=3,max=20"`
	LastName    string   `json:"lastName" validate:"required,min=3,max=20"`
	PhoneNumber string   `json:"phoneNumber" validate:"omitempty,len=10,numeric"`
	Age         int      `json:"age" validate:"gte=18,lte=100"`
	City        string   `json:"city" validate:"required"`
	Roles       roleList `json:"roles" validate:"required,min=1,dive,oneof=ADMIN USER"`
}

type loginRequest struct {
	EmailID  string `json:"emailId" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateRequest struct {
	PhoneNumber string   `json:"phoneNumber" validate:"omitempty,len=10,numeric"`
	Age         int      `json:"age" validate:"gte=18,lte=100"`
	City        string   `json:"city" validate:"required"`
	Roles       roleList `json:"roles" validate:"omitempty,dive,oneof=ADMIN USER"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type accountResponse struct {
	Username    string   `json:"username"`
	EmailID     string   `json:"emailId"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	Age         int      `json:"age"`
	City        string   `json:"city"`
	Roles       []string `json:"roles"`
}

func toAccountResponse(a *Account) accountResponse {
	roles := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		roles = append(roles, string(r))
	}
	return accountResponse{
		Username:    a.Username,
		EmailID:     a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		PhoneNumber: a.PhoneNumber,
		Age:         a.Age,
		City:        a.City,
		Roles:       roles,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body", r.URL.Path)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	account, err := h.service.Register(r.Context(), RegisterInput{
		Username:    req.Username,
		Email:       req.EmailID,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Age:         req.Age,
		City:        req.City,
		Roles:       req.Roles.toRoles(),
	})
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body", r.URL.Path)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	token, err := h.service.Login(r.Context(), req.EmailID, req.Password)
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Allow(r.Context(), forgotPasswordOp, principal.Subject); err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body", r.URL.Path)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	if err := h.service.ChangePassword(r.Context(), email, req.Password); err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	account, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	page, size, err := parsePagination(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	accounts, total, err := h.service.List(r.Context(), page, size)
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	items := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      items,
		"pagination": shared.NewPagination(page, size, total),
	})
}

func (h *Handler) handleViewProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	account, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	if err := h.service.Delete(r.Context(), email); err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body", r.URL.Path)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	account, err := h.service.UpdateProfile(r.Context(), email, UpdateInput{
		PhoneNumber: req.PhoneNumber,
		Age:         req.Age,
		City:        req.City,
		Roles:       req.Roles.toRoles(),
	})
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId and token are required", r.URL.Path)
		return
	}
	valid, err := h.service.ValidateStoredToken(r.Context(), email, token)
	if err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "emailId is required", r.URL.Path)
		return
	}
	if err := h.service.Logout(r.Context(), email); err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func parsePagination(r *http.Request) (page, size int, err error) {
	page, size = 0, 10
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			return 0, 0, errInvalidPagination
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < 1 || size > 100 {
			return 0, 0, errInvalidPagination
		}
	}
	return page, size, nil
}

var errInvalidPagination = errInvalid("page must be >= 0 and size between 1 and 100")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }
