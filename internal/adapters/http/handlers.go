package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gymcrm/internal/application/listutil"
	"gymcrm/internal/application/orchestrators"
	"gymcrm/internal/application/projections"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
// An empty body leaves v untouched.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryError maps projection errors onto status codes.
func queryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projections.ErrClientNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, projections.ErrInvalidQuery), errors.Is(err, dates.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, err)
	}
}

// dateParam reads an optional YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return dates.Parse(raw)
}

// --- Response bodies ---

type membershipResponse struct {
	ClientID        string `json:"cliente_id"`
	Name            string `json:"nombre"`
	Email           string `json:"email,omitempty"`
	Label           string `json:"estado"`
	Color           string `json:"color"`
	Days            int    `json:"dias"`
	Status          string `json:"status"`
	DueDate         string `json:"due_date,omitempty"`
	LastPaymentDate string `json:"last_payment_date,omitempty"`
	LastPaymentID   string `json:"last_payment_id,omitempty"`
	MissingData     bool   `json:"missing_data,omitempty"`
	SkippedInvalid  int    `json:"skipped_invalid"`
	EvaluatedOn     string `json:"evaluated_on"`
}

func toMembershipResponse(m projections.MembershipStatusResult) membershipResponse {
	return membershipResponse{
		ClientID:        m.ClientID,
		Name:            m.Name,
		Email:           m.Email,
		Label:           m.Label,
		Color:           m.Color,
		Days:            m.Days,
		Status:          string(m.Status),
		DueDate:         m.DueDate,
		LastPaymentDate: m.LastPaymentDate,
		LastPaymentID:   m.LastPaymentID,
		MissingData:     m.MissingData,
		SkippedInvalid:  m.SkippedInvalid,
		EvaluatedOn:     m.EvaluatedOn,
	}
}

func statusCounts(counts map[membership.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for s, n := range counts {
		out[string(s)] = n
	}
	return out
}

// --- Handlers ---

// handleHealth handles GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := deps.Snapshots.Current()
	body := map[string]any{
		"status":  "ok",
		"records": snap.Counts(),
	}
	if snap.IsEmpty() {
		body["status"] = "empty"
	}
	if !snap.FetchedAt().IsZero() {
		body["fetched_at"] = snap.FetchedAt().UTC().Format(time.RFC3339)
	}
	if deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			slog.Error("health_db_unreachable", "error", err)
			body["status"] = "degraded"
			body["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, body)
}

// handleMembershipStatus handles GET /api/clients/{id}/membership
func handleMembershipStatus(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetMembershipStatus(r.Context(),
		projections.GetMembershipStatusQuery{ClientID: mux.Vars(r)["id"]},
		projections.GetMembershipStatusDeps{Snapshots: deps.Snapshots, Engine: deps.Engine},
	)
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembershipResponse(result))
}

// handleMembershipAlerts handles GET /api/memberships?status=&page=&per_page=
func handleMembershipAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status membership.Status
	if raw := q.Get("status"); raw != "" {
		s, ok := membership.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(raw))
			return
		}
		status = s
	}

	result, err := projections.QueryGetMembershipAlerts(r.Context(),
		projections.GetMembershipAlertsQuery{Status: status, Page: listutil.ParsePageParams(q)},
		projections.GetMembershipAlertsDeps{Snapshots: deps.Snapshots, Engine: deps.Engine},
	)
	if err != nil {
		queryError(w, err)
		return
	}

	items := make([]membershipResponse, 0, len(result.Items))
	for _, m := range result.Items {
		items = append(items, toMembershipResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":           items,
		"page":            result.PageInfo.Page,
		"per_page":        result.PageInfo.PerPage,
		"total":           result.PageInfo.Total,
		"total_pages":     result.PageInfo.TotalPages,
		"counts":          statusCounts(result.Counts),
		"skipped_invalid": result.SkippedInvalid,
		"evaluated_on":    result.EvaluatedOn,
	})
}

type dailyIncomeResponse struct {
	Date   string          `json:"fecha"`
	Amount decimal.Decimal `json:"ingresos"`
}

type hourlyAttendanceResponse struct {
	Hour  string `json:"hora"`
	Count int    `json:"asistencias"`
}

// handleDashboard handles GET /api/dashboard?fecha=YYYY-MM-DD
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "fecha")
	if err != nil {
		queryError(w, err)
		return
	}
	d, err := projections.QueryGetDashboard(r.Context(),
		projections.GetDashboardQuery{Date: day},
		projections.GetDashboardDeps{Snapshots: deps.Snapshots, Engine: deps.Engine},
	)
	if err != nil {
		queryError(w, err)
		return
	}

	byDay := make([]dailyIncomeResponse, 0, len(d.IncomeByDay))
	for _, di := range d.IncomeByDay {
		byDay = append(byDay, dailyIncomeResponse{Date: di.Date, Amount: di.Amount})
	}
	byHour := make([]hourlyAttendanceResponse, 0, len(d.AttendanceByHour))
	for _, h := range d.AttendanceByHour {
		byHour = append(byHour, hourlyAttendanceResponse{Hour: strconv.Itoa(h.Hour) + ":00", Count: h.Count})
	}
	body := map[string]any{
		"fecha":                d.Date,
		"ingresos_pagos":       d.PaymentsIncome,
		"ingresos_ventas":      d.SalesIncome,
		"ingresos_mes":         d.MonthIncome,
		"ingresos_hoy":         d.IncomeToday,
		"asistencias_hoy":      d.AttendanceToday,
		"concurrencia_actual":  d.PresentNow,
		"clientes_activos":     d.ActiveClients,
		"nuevos_clientes_mes":  d.NewClientsMonth,
		"retencion_porcentaje": d.RetentionPercent,
		"vencidos":             nonNil(d.OverdueIDs),
		"clientes_sin_pago":    nonNil(d.UnpaidAttendees),
		"clientes_inactivos":   nonNil(d.InactiveIDs),
		"ingresos_por_dia":     byDay,
		"asistencias_por_hora": byHour,
		"estados":              statusCounts(d.StatusCounts),
		"skipped_invalid":      d.SkippedInvalid,
	}
	if !d.FetchedAt.IsZero() {
		body["fetched_at"] = d.FetchedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, body)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// handleMonthlyTotal handles GET /api/payments/total?mes=YYYY-MM
func handleMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("mes")
	if month == "" {
		month = deps.Engine.Today().Format("2006-01")
	}
	t, err := projections.QueryGetMonthlyTotal(r.Context(),
		projections.GetMonthlyTotalQuery{Month: month},
		projections.GetMonthlyTotalDeps{Snapshots: deps.Snapshots},
	)
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mes":             t.Month,
		"pagos":           t.Payments,
		"cantidad_pagos":  t.PaymentCount,
		"ventas":          t.Sales,
		"cantidad_ventas": t.SaleCount,
		"total":           t.Total,
		"skipped_invalid": t.SkippedInvalid,
	})
}

type clientAttendanceResponse struct {
	ClientID    string `json:"cliente_id"`
	Name        string `json:"nombre"`
	Count       int    `json:"asistencias"`
	LastCheckIn string `json:"ultima_asistencia"`
}

type dayAttendanceResponse struct {
	Date  string `json:"fecha"`
	Count int    `json:"asistencias"`
}

// handleAttendanceSummary handles GET /api/attendance/summary?desde=&hasta=
func handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "desde")
	if err != nil {
		queryError(w, err)
		return
	}
	to, err := dateParam(r, "hasta")
	if err != nil {
		queryError(w, err)
		return
	}
	s, err := projections.QueryGetAttendanceSummary(r.Context(),
		projections.GetAttendanceSummaryQuery{From: from, To: to},
		projections.GetAttendanceSummaryDeps{Snapshots: deps.Snapshots, Location: deps.Engine.Location},
	)
	if err != nil {
		queryError(w, err)
		return
	}

	clients := make([]clientAttendanceResponse, 0, len(s.ByClient))
	for _, c := range s.ByClient {
		clients = append(clients, clientAttendanceResponse{
			ClientID:    c.ClientID,
			Name:        c.Name,
			Count:       c.Count,
			LastCheckIn: c.LastCheckIn.UTC().Format(time.RFC3339),
		})
	}
	days := make([]dayAttendanceResponse, 0, len(s.ByDay))
	for _, d := range s.ByDay {
		days = append(days, dayAttendanceResponse{Date: d.Date, Count: d.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":       s.Total,
		"por_cliente": clients,
		"por_dia":     days,
	})
}

// handleInactiveClients handles GET /api/clients/inactive?days=N
func handleInactiveClients(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	results, err := projections.QueryGetInactiveClients(r.Context(),
		projections.GetInactiveClientsQuery{DaysSinceLastCheckIn: days},
		projections.GetInactiveClientsDeps{Snapshots: deps.Snapshots, Engine: deps.Engine},
	)
	if err != nil {
		queryError(w, err)
		return
	}
	type row struct {
		ClientID     string `json:"cliente_id"`
		Name         string `json:"nombre"`
		Email        string `json:"email,omitempty"`
		Phone        string `json:"telefono,omitempty"`
		LastCheckIn  string `json:"ultima_asistencia"`
		DaysInactive int    `json:"dias_inactivo"`
	}
	rows := make([]row, 0, len(results))
	for _, c := range results {
		rows = append(rows, row{c.ClientID, c.Name, c.Email, c.Phone, c.LastCheckIn, c.DaysInactive})
	}
	writeJSON(w, http.StatusOK, rows)
}

// reminderRequest is the optional body of POST /api/reminders.
type reminderRequest struct {
	DryRun bool `json:"dry_run"`
}

// handleReminders handles POST /api/reminders?dry_run=true
func handleReminders(w http.ResponseWriter, r *http.Request) {
	if deps.SendReminders == nil {
		writeError(w, http.StatusServiceUnavailable, "reminders are not configured")
		return
	}
	var req reminderRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dry_run must be a boolean")
			return
		}
		req.DryRun = req.DryRun || v
	}

	res, err := deps.SendReminders(r.Context(), orchestrators.SendPaymentRemindersInput{DryRun: req.DryRun})
	if err != nil {
		internalError(w, err)
		return
	}
	type outcome struct {
		ClientID  string `json:"cliente_id"`
		Name      string `json:"nombre"`
		Email     string `json:"email,omitempty"`
		Status    string `json:"status"`
		Days      int    `json:"dias"`
		DueDate   string `json:"due_date,omitempty"`
		Subject   string `json:"subject,omitempty"`
		Outcome   string `json:"outcome"`
		MessageID string `json:"message_id,omitempty"`
		Error     string `json:"error,omitempty"`
	}
	outcomes := make([]outcome, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		outcomes = append(outcomes, outcome{o.ClientID, o.Name, o.Email, string(o.Status), o.Days, o.DueDate, o.Subject, o.Outcome, o.MessageID, o.Error})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dry_run":  res.DryRun,
		"sent":     res.Sent,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
		"outcomes": outcomes,
	})
}
