/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes shift classification and payroll aggregation via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  payroll engine and the store.

ENDPOINTS:
  Engine:
    GET    /api/rates                    Rate table and legal constants
    POST   /api/shifts/classify          Classify one shift
    POST   /api/payroll/calculate        Aggregate an ad-hoc period
    POST   /api/payroll/batch            Aggregate many periods concurrently

  Stored periods:
    GET    /api/periods?employee_id=     List periods
    POST   /api/periods                  Store a period
    GET    /api/periods/{id}             Get a period
    PUT    /api/periods/{id}             Replace a period
    DELETE /api/periods/{id}             Delete a period
    POST   /api/periods/{id}/calculate   Aggregate and store the result
    GET    /api/periods/{id}/result      Last stored result

  Holidays:
    GET    /api/holidays?year=           Effective holiday set of a year
    GET    /api/holidays/custom          Custom holidays
    POST   /api/holidays                 Add a custom holiday
    DELETE /api/holidays/{date}          Remove a custom holiday

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Calculator: Payroll engine with rates, legal constants and calendar
  - Holidays: Shared holiday cache (invalidated when custom holidays change)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid shift, invalid period
  - 404: Period or holiday not found
  - 413: Body too large
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Calculator *payroll.Calculator
	Holidays   *calendar.Provider
	Logger     *slog.Logger

	newID func() string
	now   func() time.Time
}

// NewHandler creates a handler. The calculator should use holidays as its
// calendar so custom holiday changes are seen by calculations.
func NewHandler(store *sqlite.Store, calc *payroll.Calculator, holidays *calendar.Provider, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:      store,
		Calculator: calc,
		Holidays:   holidays,
		Logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// =============================================================================
// ENGINE HANDLERS
// =============================================================================

// Health reports liveness and database reachability.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, CodeInternal, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"holiday_years": h.Holidays.CachedYears(),
	})
}

// GetRates returns the rate table and legal constants in use.
// GET /api/rates
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates := h.Calculator.Rates.Breakdown()
	legal := h.Calculator.Legal

	dto := RatesDTO{
		OvertimeThresholdHours:  payroll.OvertimeThreshold.InexactFloat64(),
		NightStartHour:          payroll.NightStartHour,
		NightEndHour:            payroll.NightEndHour,
		MinimumWage:             money(legal.MinimumWage),
		TransportAllowance:      money(legal.TransportAllowance),
		HealthRate:              legal.HealthRate.InexactFloat64(),
		PensionRate:             legal.PensionRate.InexactFloat64(),
		ContributionBaseMinimum: money(payroll.ContributionBase(decimal.Zero, legal)),
	}
	for _, c := range payroll.Categories {
		dto.Rates = append(dto.Rates, CategoryRateDTO{
			Category:  c.String(),
			Code:      c.Code(),
			Label:     c.Label(),
			Rate:      money(rates.Get(c)),
			Surcharge: c.IsSurcharge(),
			Overtime:  c.IsOvertime(),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// ClassifyShift classifies a single shift.
// POST /api/shifts/classify
func (h *Handler) ClassifyShift(w http.ResponseWriter, r *http.Request) {
	var shift payroll.ShiftInput
	if err := decodeJSON(r, &shift); err != nil {
		writeDecodeError(w, err)
		return
	}

	classified, err := h.Calculator.ClassifyShift(r.Context(), shift)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassifiedShiftDTO(classified, h.Calculator.Rates))
}

// CalculatePayroll aggregates a period given in the request body. Nothing
// is stored.
// POST /api/payroll/calculate
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	var period payroll.PayPeriod
	if err := decodeJSON(r, &period); err != nil {
		writeDecodeError(w, err)
		return
	}
	period.FillBounds()
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPeriod, err.Error(), nil)
		return
	}

	result, err := h.Calculator.Aggregate(r.Context(), period)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(result, h.Calculator.Rates))
}

// CalculateBatch aggregates independent periods concurrently. Each period
// succeeds or fails on its own; the response is always 200 with one item
// per period, in request order.
// POST /api/payroll/batch
func (h *Handler) CalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(req.Periods) == 0 {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "At least one period is required", nil)
		return
	}

	items := make([]BatchItemDTO, len(req.Periods))
	var valid []payroll.PayPeriod
	var positions []int
	for i, p := range req.Periods {
		items[i].Index = i
		p.FillBounds()
		if err := p.Validate(); err != nil {
			items[i].Error = &ErrorResponse{Error: err.Error(), Code: CodeInvalidPeriod}
			continue
		}
		valid = append(valid, p)
		positions = append(positions, i)
	}

	for _, outcome := range h.Calculator.AggregateBatch(r.Context(), valid) {
		i := positions[outcome.Index]
		if outcome.Err != nil {
			status, resp := h.engineErrorResponse(outcome.Err)
			if status >= http.StatusInternalServerError {
				h.Logger.Error("batch period failed", "index", i, "err", outcome.Err)
			}
			items[i].Error = &resp
			continue
		}
		dto := toResultDTO(outcome.Result, h.Calculator.Rates)
		items[i].Result = &dto
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns stored periods, optionally for one employee.
// GET /api/periods?employee_id=
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPeriods(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		h.writeInternal(w, "Failed to list periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPeriodDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"periods": dtos})
}

// CreatePeriod stores a new period.
// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var period payroll.PayPeriod
	if err := decodeJSON(r, &period); err != nil {
		writeDecodeError(w, err)
		return
	}
	period.FillBounds()
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPeriod, err.Error(), nil)
		return
	}

	id := h.newID()
	if err := h.Store.SavePeriod(r.Context(), id, period); err != nil {
		h.writeInternal(w, "Failed to save period", err)
		return
	}
	h.respondPeriod(w, r, id, http.StatusCreated)
}

// GetPeriod returns one stored period.
// GET /api/periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	h.respondPeriod(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// UpdatePeriod replaces a stored period. Its stored result is discarded.
// PUT /api/periods/{id}
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetPeriod(r.Context(), id)
	if err != nil {
		h.writeInternal(w, "Failed to get period", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Period not found", nil)
		return
	}

	var period payroll.PayPeriod
	if err := decodeJSON(r, &period); err != nil {
		writeDecodeError(w, err)
		return
	}
	period.FillBounds()
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPeriod, err.Error(), nil)
		return
	}

	if err := h.Store.SavePeriod(r.Context(), id, period); err != nil {
		h.writeInternal(w, "Failed to save period", err)
		return
	}
	h.respondPeriod(w, r, id, http.StatusOK)
}

// DeletePeriod removes a stored period and its result.
// DELETE /api/periods/{id}
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeletePeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeInternal(w, "Failed to delete period", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, CodeNotFound, "Period not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// CalculatePeriod aggregates a stored period and stores the result.
// POST /api/periods/{id}/calculate
func (h *Handler) CalculatePeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetPeriod(ctx, id)
	if err != nil {
		h.writeInternal(w, "Failed to get period", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Period not found", nil)
		return
	}

	result, err := h.Calculator.Aggregate(ctx, rec.Period)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := h.Store.SaveResult(ctx, id, result); err != nil {
		h.writeInternal(w, "Failed to save result", err)
		return
	}

	dto := toResultDTO(result, h.Calculator.Rates)
	now := h.now().UTC()
	dto.CalculatedAt = &now
	writeJSON(w, http.StatusOK, dto)
}

// GetPeriodResult returns the last stored result of a period.
// GET /api/periods/{id}/result
func (h *Handler) GetPeriodResult(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeInternal(w, "Failed to get result", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "No result for this period", nil)
		return
	}

	dto := toResultDTO(rec.Result, h.Calculator.Rates)
	dto.CalculatedAt = &rec.CalculatedAt
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) respondPeriod(w http.ResponseWriter, r *http.Request, id string, status int) {
	rec, err := h.Store.GetPeriod(r.Context(), id)
	if err != nil {
		h.writeInternal(w, "Failed to get period", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Period not found", nil)
		return
	}
	writeJSON(w, status, toPeriodDTO(*rec))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the effective holiday set of a year (national plus
// custom), as used by classification.
// GET /api/holidays?year=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year := h.now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid year", nil)
			return
		}
		year = y
	}

	custom := map[calendar.Date]string{}
	if list, err := h.Store.ListHolidays(ctx, year); err != nil {
		h.Logger.Warn("failed to list custom holidays", "year", year, "err", err)
	} else {
		for _, hol := range list {
			custom[hol.Date] = hol.Name
		}
	}

	set := h.Holidays.HolidaysFor(ctx, year)
	dto := HolidayYearDTO{Year: year, Degraded: set.Degraded(), Holidays: []HolidayDateDTO{}}
	for _, d := range set.Dates() {
		name := calendar.HolidayName(d)
		if n, ok := custom[d]; ok {
			name = n
		}
		dto.Holidays = append(dto.Holidays, HolidayDateDTO{Date: d.String(), Name: name})
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListCustomHolidays returns the stored custom holidays.
// GET /api/holidays/custom
func (h *Handler) ListCustomHolidays(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListHolidays(r.Context(), 0)
	if err != nil {
		h.writeInternal(w, "Failed to list holidays", err)
		return
	}

	dtos := make([]CustomHolidayDTO, 0, len(list))
	for _, hol := range list {
		dtos = append(dtos, CustomHolidayDTO{Date: hol.Date.String(), Name: hol.Name, CreatedAt: hol.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday adds (or renames) a custom holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Date.IsZero() || req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Date and name are required", nil)
		return
	}

	if err := h.Store.SaveHoliday(r.Context(), sqlite.Holiday{Date: req.Date, Name: req.Name}); err != nil {
		h.writeInternal(w, "Failed to create holiday", err)
		return
	}
	h.Holidays.Forget(req.Date.Year)
	h.Logger.Info("custom holiday saved", "date", req.Date.String(), "name", req.Name)

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"date":   req.Date.String(),
	})
}

// DeleteHoliday removes a custom holiday.
// DELETE /api/holidays/{date}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	deleted, err := h.Store.DeleteHoliday(r.Context(), d)
	if err != nil {
		h.writeInternal(w, "Failed to delete holiday", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, CodeNotFound, "Custom holiday not found", nil)
		return
	}
	h.Holidays.Forget(d.Year)

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := ErrorResponse{Error: message, Code: code}
	switch d := details.(type) {
	case nil:
	case error:
		resp.Details = d.Error()
	default:
		resp.Details = d
	}
	writeJSON(w, status, resp)
}

func (h *Handler) writeInternal(w http.ResponseWriter, message string, err error) {
	h.Logger.Error(message, "err", err)
	writeError(w, http.StatusInternalServerError, CodeInternal, message, nil)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body too large", nil)
		return
	}
	writeError(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
}

// engineErrorResponse maps a classification or aggregation error to an HTTP
// status and body.
func (h *Handler) engineErrorResponse(err error) (int, ErrorResponse) {
	if !payroll.IsValidation(err) {
		return http.StatusInternalServerError, ErrorResponse{Error: "Payroll calculation failed", Code: CodeInternal}
	}

	details := map[string]any{}
	var aggErr *payroll.AggregationError
	if errors.As(err, &aggErr) {
		details["shift_index"] = aggErr.Index
		details["date"] = aggErr.Date.String()
	}
	var vErr *payroll.ValidationError
	if errors.As(err, &vErr) {
		details["field"] = vErr.Field
		if vErr.Value != "" {
			details["value"] = vErr.Value
		}
	}
	return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidShift, Details: details}
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	status, resp := h.engineErrorResponse(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("payroll calculation failed", "err", err)
	}
	writeJSON(w, status, resp)
}
