package payroll

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/selaras-pos/selaras-pos/internal/platform/httpx"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Handler wires HTTP endpoints for the payroll module.
type Handler struct {
	logger     *slog.Logger
	aggregator *Aggregator
	validator  *validator.Validate
}

// NewHandler constructs payroll handler.
func NewHandler(logger *slog.Logger, aggregator *Aggregator) *Handler {
	return &Handler{logger: logger, aggregator: aggregator, validator: validator.New()}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{employeeID}", h.handleDetail)
	r.Put("/{employeeID}", h.handleUpdate)
	r.Post("/{employeeID}/payments", h.handleCreatePayment)
	r.Get("/{employeeID}/slip", h.handleSlip)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	period, ok := h.queryPeriod(w, r)
	if !ok {
		return
	}

	detail, err := h.aggregator.Detail(r.Context(), employeeID, period)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if errs := validationErrors(h.validator.Struct(req)); errs != nil {
		httpx.ValidationProblem(w, errs)
		return
	}

	input := UpdateInput{EmployeeID: employeeID, ManualBonus: req.ManualBonus}
	if req.StartDate != "" && req.EndDate != "" {
		p, err := parsePeriod(req.StartDate, req.EndDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		input.Period = &p
	}
	for _, d := range req.ManualDeductions {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deduction date")
			return
		}
		input.ManualDeductions = append(input.ManualDeductions, ManualDeductionInput{
			Date:        date,
			Amount:      d.Amount,
			Description: d.Description,
		})
	}

	detail, err := h.aggregator.Update(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	slip, err := h.aggregator.CreatePayment(r.Context(), employeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, slip)
}

func (h *Handler) handleSlip(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	period, ok := h.queryPeriod(w, r)
	if !ok {
		return
	}
	slip, err := h.aggregator.Slip(r.Context(), employeeID, period)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, slip)
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid employee id")
		return 0, false
	}
	return id, true
}

func (h *Handler) queryPeriod(w http.ResponseWriter, r *http.Request) (*shared.Period, bool) {
	q := DetailQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if q.StartDate == "" && q.EndDate == "" {
		return nil, true
	}
	if errs := validationErrors(h.validator.Struct(q)); errs != nil {
		httpx.ValidationProblem(w, errs)
		return nil, false
	}
	p, err := parsePeriod(q.StartDate, q.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return nil, false
	}
	return &p, true
}

func parsePeriod(start, end string) (shared.Period, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return shared.Period{}, errors.New("invalid start_date, want YYYY-MM-DD")
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return shared.Period{}, errors.New("invalid end_date, want YYYY-MM-DD")
	}
	if e.Before(s) {
		return shared.Period{}, errors.New("end_date before start_date")
	}
	return shared.Period{Start: s, End: e}, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoUnpaidPayroll), errors.Is(err, ErrNoPayrollData), errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrOutletSettingsNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Missing Outlet Settings", err.Error())
	default:
		h.logger.Error("payroll request failed", slog.Any("error", err))
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
