package attendance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/selaras-pos/selaras-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the attendance module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs attendance handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check-in", h.handleCheckIn)
	r.Post("/check-out", h.handleCheckOut)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if errs := validationErrors(h.validator.Struct(req)); errs != nil {
		httpx.ValidationProblem(w, errs)
		return
	}

	a, err := h.service.CheckIn(r.Context(), CheckInInput{
		EmployeeID: req.EmployeeID,
		OutletID:   req.OutletID,
		ProofPath:  req.ProofPath,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req CheckOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if errs := validationErrors(h.validator.Struct(req)); errs != nil {
		httpx.ValidationProblem(w, errs)
		return
	}

	a, err := h.service.CheckOut(r.Context(), req.EmployeeID, req.ProofPath)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSchedule):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Schedule", err.Error())
	case errors.Is(err, ErrDuplicateCheckin), errors.Is(err, ErrDuplicateCheckout):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNoCheckin):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Not Checked In", err.Error())
	default:
		h.logger.Error("attendance request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func validationErrors(err error) []httpx.FieldError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []httpx.FieldError{{Field: "", Message: err.Error(), Type: "invalid"}}
	}
	out := make([]httpx.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, httpx.FieldError{Field: fe.Field(), Message: fe.Error(), Type: fe.Tag()})
	}
	return out
}
