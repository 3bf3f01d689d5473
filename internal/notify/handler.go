package notify

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridianhq/meridian/internal/platform/httpx"
)

// Handler wires the /notify HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers notify routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/send", h.handleSend)
}

type sendParams struct {
	EmailID     string `validate:"required,email"`
	Subject     string `validate:"required"`
	Message     string `validate:"required"`
	SenderEmail string `validate:"omitempty,email"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := sendParams{
		EmailID:     q.Get("emailId"),
		Subject:     q.Get("subject"),
		Message:     q.Get("message"),
		SenderEmail: q.Get("senderEmail"),
	}
	if err := h.validator.Struct(params); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error(), r.URL.Path)
		return
	}
	if err := h.service.Send(r.Context(), params.EmailID, params.Subject, params.Message, params.SenderEmail); err != nil {
		httpx.RespondError(w, err, r.URL.Path)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "notification sent"})
}
