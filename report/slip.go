package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/platform/httpx"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

var slipTemplate = template.Must(template.New("slip").
	Funcs(template.FuncMap{"rupiah": shared.FormatRupiah}).
	Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: sans-serif; margin: 40px; }
h1 { font-size: 18px; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.total { font-weight: bold; }
.status { color: #666; font-size: 12px; }
</style>
</head>
<body>
<h1>Slip Gaji &mdash; {{.EmployeeName}}</h1>
<p>Periode {{.Period}} <span class="status">({{.Status}})</span></p>
<table>
<tr><td>Gaji pokok</td><td>{{rupiah .TotalBaseSalary}}</td></tr>
<tr><td>Total bonus</td><td>{{rupiah .TotalBonus}}</td></tr>
<tr><td>Total potongan</td><td>{{rupiah .TotalDeduction}}</td></tr>
<tr class="total"><td>Diterima</td><td>{{.FinalAmountDisplay}}</td></tr>
</table>
{{if .Deductions}}
<h1>Potongan</h1>
<table>
<tr><th>Tanggal</th><th>Jenis</th><th>Jumlah</th><th>Keterangan</th></tr>
{{range .Deductions}}<tr><td>{{.Date}}</td><td>{{.Type}}</td><td>{{rupiah .Amount}}</td><td>{{.Description}}</td></tr>
{{end}}
</table>
{{end}}
<h1>Kehadiran</h1>
<table>
<tr><td>Hadir</td><td>{{.Attendance.Present}}</td></tr>
<tr><td>Terlambat</td><td>{{.Attendance.Late}}</td></tr>
<tr><td>Absen</td><td>{{.Attendance.Absent}}</td></tr>
</table>
</body>
</html>`))

// SlipHTML renders a payment slip as a printable HTML document.
func SlipHTML(slip *payroll.SlipResponse) (string, error) {
	var buf bytes.Buffer
	if err := slipTemplate.Execute(&buf, slip); err != nil {
		return "", fmt.Errorf("render slip template: %w", err)
	}
	return buf.String(), nil
}

// Handler serves PDF exports of payment slips.
type Handler struct {
	client     *Client
	aggregator *payroll.Aggregator
	logger     *slog.Logger
}

// NewHandler builds Handler.
func NewHandler(client *Client, aggregator *payroll.Aggregator, logger *slog.Logger) *Handler {
	return &Handler{client: client, aggregator: aggregator, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.handlePing)
	r.Get("/payslip/{employeeID}", h.handlePayslip)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf renderer unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil || employeeID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid employee id")
		return
	}

	slip, err := h.aggregator.Slip(r.Context(), employeeID, nil)
	if err != nil {
		if errors.Is(err, payroll.ErrNoPayrollData) || errors.Is(err, payroll.ErrNoUnpaidPayroll) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("build payslip", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	html, err := SlipHTML(slip)
	if err != nil {
		h.logger.Error("render payslip html", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render payslip pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=payslip-%d.pdf", employeeID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
