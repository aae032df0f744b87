package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contas/internal/client"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/metrics"
	"contas/internal/report"
	"contas/internal/services"
	"contas/internal/storage"
)

// Handler serves the república JSON API.
type Handler struct {
	snapshots   *SnapshotService
	exportStore ExportStore
	publisher   ExportPublisher
	logger      *log.Logger
	// republicScope, when non-zero, is the only república this deployment
	// serves; requests for any other id answer 404.
	republicScope int64
	// now is swappable in tests.
	now func() core.CalendarDate
}

func NewHandler(snapshots *SnapshotService, exportStore ExportStore, publisher ExportPublisher, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Handler{
		snapshots:   snapshots,
		exportStore: exportStore,
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentHTTP),
		now:         core.Today,
	}
}

// RestrictToRepublic limits the API to a single república. Zero lifts the
// restriction.
func (h *Handler) RestrictToRepublic(republicID int64) {
	h.republicScope = republicID
}

// Routes mounts the handler under a república-scoped subtree.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/republics/{republicID}", func(r chi.Router) {
		r.Get("/expenses", h.listExpenses)
		r.Get("/summary", h.summary)
		r.Get("/payments", h.paymentStats)
		r.Get("/report", h.reportJSON)
		r.Get("/report/export", h.reportExport)
	})
	r.Get("/categories", h.listCategories)
}

type expenseResponse struct {
	ID             int64  `json:"id"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	CategoryLabel  string `json:"category_label"`
	TotalCents     int64  `json:"total_cents"`
	TotalDisplay   string `json:"total_display"`
	DueDate        string `json:"due_date"`
	DueDateDisplay string `json:"due_date_display"`
	Status         string `json:"status"`
	StatusLabel    string `json:"status_label"`
	ShareCents     int64  `json:"share_cents"`
	ShareDisplay   string `json:"share_display"`
}

type expensesResponse struct {
	Open        []expenseResponse `json:"open"`
	Settled     []expenseResponse `json:"settled"`
	MemberCount int               `json:"member_count"`
	Stale       bool              `json:"stale"`
}

func (h *Handler) toExpenseResponse(e core.Expense, today core.CalendarDate, memberCount int) expenseResponse {
	status := services.ResolveStatus(e, today)
	share := services.PerMemberShare(e, memberCount)
	return expenseResponse{
		ID:             e.ID,
		Description:    e.Description,
		Category:       string(e.Category),
		CategoryLabel:  e.Category.Label(),
		TotalCents:     e.TotalValue.Cents,
		TotalDisplay:   e.TotalValue.FormatBRL(),
		DueDate:        e.DueDate.String(),
		DueDateDisplay: e.DueDate.Display(),
		Status:         string(status),
		StatusLabel:    status.Label(),
		ShareCents:     share.Cents,
		ShareDisplay:   share.FormatBRL(),
	}
}

// listExpenses returns the expenses split into open (pending or overdue,
// soonest due first) and settled (paid, most recent first), each with the
// derived status and the per-member share from the current roster.
func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	republicID, ok := h.republicID(w, r)
	if !ok {
		return
	}

	snap, stale, err := h.snapshots.Snapshot(r.Context(), republicID)
	if err != nil {
		h.snapshotError(w, r, err)
		return
	}

	today := h.now()
	parts := services.Partition(snap.Expenses, today)
	memberCount := len(snap.Members)

	resp := expensesResponse{
		Open:        make([]expenseResponse, 0, len(parts.Open)),
		Settled:     make([]expenseResponse, 0, len(parts.Settled)),
		MemberCount: memberCount,
		Stale:       stale,
	}
	for _, e := range parts.Open {
		resp.Open = append(resp.Open, h.toExpenseResponse(e, today, memberCount))
	}
	for _, e := range parts.Settled {
		resp.Settled = append(resp.Settled, h.toExpenseResponse(e, today, memberCount))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type summaryResponse struct {
	TotalCents          int64  `json:"total_cents"`
	TotalDisplay        string `json:"total_display"`
	PaidCents           int64  `json:"paid_cents"`
	PaidDisplay         string `json:"paid_display"`
	PendingCents        int64  `json:"pending_cents"`
	PendingDisplay      string `json:"pending_display"`
	ExpenseCount        int    `json:"expense_count"`
	PaidExpenseCount    int    `json:"paid_expense_count"`
	PendingExpenseCount int    `json:"pending_expense_count"`
	Stale               bool   `json:"stale"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	republicID, ok := h.republicID(w, r)
	if !ok {
		return
	}

	snap, stale, err := h.snapshots.Snapshot(r.Context(), republicID)
	if err != nil {
		h.snapshotError(w, r, err)
		return
	}

	totals := services.Summarize(snap.Expenses)
	h.writeJSON(w, http.StatusOK, summaryResponse{
		TotalCents:          totals.Total.Cents,
		TotalDisplay:        totals.Total.FormatBRL(),
		PaidCents:           totals.PaidTotal.Cents,
		PaidDisplay:         totals.PaidTotal.FormatBRL(),
		PendingCents:        totals.PendingTotal.Cents,
		PendingDisplay:      totals.PendingTotal.FormatBRL(),
		ExpenseCount:        totals.Count,
		PaidExpenseCount:    totals.PaidCount,
		PendingExpenseCount: totals.Count - totals.PaidCount,
		Stale:               stale,
	})
}

type memberStatsResponse struct {
	MemberID         int64  `json:"member_id"`
	Name             string `json:"name"`
	PaymentCount     int    `json:"payment_count"`
	TotalPaidCents   int64  `json:"total_paid_cents"`
	TotalPaidDisplay string `json:"total_paid_display"`
}

type paymentResponse struct {
	ID            int64  `json:"id"`
	ExpenseID     int64  `json:"expense_id"`
	MemberID      int64  `json:"member_id"`
	MemberName    string `json:"member_name"`
	AmountCents   int64  `json:"amount_cents"`
	AmountDisplay string `json:"amount_display"`
	PaidAt        string `json:"paid_at"`
	PaidAtDisplay string `json:"paid_at_display"`
}

type paymentStatsResponse struct {
	Payments []paymentResponse     `json:"payments"`
	Members  []memberStatsResponse `json:"members"`
	Stale    bool                  `json:"stale"`
}

// paymentStats folds every recorded payment into per-member counters. The
// roster drives the listing so members without payments still show zeros.
func (h *Handler) paymentStats(w http.ResponseWriter, r *http.Request) {
	republicID, ok := h.republicID(w, r)
	if !ok {
		return
	}

	snap, stale, err := h.snapshots.Snapshot(r.Context(), republicID)
	if err != nil {
		h.snapshotError(w, r, err)
		return
	}

	stats := services.MemberPaymentStats(snap.Payments)

	resp := paymentStatsResponse{
		Payments: make([]paymentResponse, 0, len(snap.Payments)),
		Members:  make([]memberStatsResponse, 0, len(snap.Members)),
		Stale:    stale,
	}
	for _, p := range snap.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:            p.ID,
			ExpenseID:     p.ExpenseID,
			MemberID:      p.MemberID,
			MemberName:    snap.MemberName(p.MemberID),
			AmountCents:   p.AmountPaid.Cents,
			AmountDisplay: p.AmountPaid.FormatBRL(),
			PaidAt:        p.PaidAt.Format(time.RFC3339),
			PaidAtDisplay: p.PaidAt.Display(),
		})
	}
	seen := make(map[int64]bool, len(snap.Members))
	for _, m := range snap.Members {
		st := stats[m.ID]
		seen[m.ID] = true
		resp.Members = append(resp.Members, memberStatsResponse{
			MemberID:         m.ID,
			Name:             m.FullName,
			PaymentCount:     st.PaymentCount,
			TotalPaidCents:   st.TotalPaid.Cents,
			TotalPaidDisplay: st.TotalPaid.FormatBRL(),
		})
	}
	// Payments by people no longer in the roster still count.
	for id, st := range stats {
		if seen[id] {
			continue
		}
		resp.Members = append(resp.Members, memberStatsResponse{
			MemberID:         id,
			Name:             snap.MemberName(id),
			PaymentCount:     st.PaymentCount,
			TotalPaidCents:   st.TotalPaid.Cents,
			TotalPaidDisplay: st.TotalPaid.FormatBRL(),
		})
	}
	sort.Slice(resp.Members, func(i, j int) bool { return resp.Members[i].MemberID < resp.Members[j].MemberID })

	h.writeJSON(w, http.StatusOK, resp)
}

type categoryResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, categoryResponse{Key: string(c), Label: c.Label()})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type reportRowResponse struct {
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	TotalValue  string `json:"total_value"`
	Status      string `json:"status"`
}

type reportResponse struct {
	Header         []string            `json:"header"`
	Rows           []reportRowResponse `json:"rows"`
	TotalDisplay   string              `json:"total_display"`
	PaidDisplay    string              `json:"paid_display"`
	PendingDisplay string              `json:"pending_display"`
	ExpenseCount   int                 `json:"expense_count"`
	Stale          bool                `json:"stale"`
}

// reportQuery parses start, end and category query parameters. Dates are
// ISO yyyy-mm-dd; empty values disable the corresponding predicate.
func reportQuery(r *http.Request) (services.ReportQuery, error) {
	var q services.ReportQuery

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := core.ParseCalendarDate(raw)
		if err != nil {
			return q, fmt.Errorf("invalid start date %q", raw)
		}
		q.Start = start
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err := core.ParseCalendarDate(raw)
		if err != nil {
			return q, fmt.Errorf("invalid end date %q", raw)
		}
		q.End = end
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		cat := core.Category(raw)
		if cat != services.CategoryAll && !cat.Valid() {
			return q, fmt.Errorf("unknown category %q", raw)
		}
		q.Category = cat
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, errors.New("end date before start date")
	}
	return q, nil
}

func (h *Handler) buildReport(r *http.Request, republicID int64, q services.ReportQuery) (report.Report, bool, error) {
	snap, stale, err := h.snapshots.Snapshot(r.Context(), republicID)
	if err != nil {
		return report.Report{}, false, err
	}

	filtered := services.Filter(snap.Expenses, q)
	return report.Build(filtered, h.now()), stale, nil
}

func (h *Handler) reportJSON(w http.ResponseWriter, r *http.Request) {
	republicID, ok := h.republicID(w, r)
	if !ok {
		return
	}

	q, err := reportQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, stale, err := h.buildReport(r, republicID, q)
	if err != nil {
		h.snapshotError(w, r, err)
		return
	}

	resp := reportResponse{
		Header:         report.Header,
		Rows:           make([]reportRowResponse, 0, len(rep.Rows)),
		TotalDisplay:   rep.Totals.Total.FormatBRL(),
		PaidDisplay:    rep.Totals.PaidTotal.FormatBRL(),
		PendingDisplay: rep.Totals.PendingTotal.FormatBRL(),
		ExpenseCount:   rep.Totals.Count,
		Stale:          stale,
	}
	for _, row := range rep.Rows {
		resp.Rows = append(resp.Rows, reportRowResponse{
			DueDate:     row.DueDate,
			Description: row.Description,
			Category:    row.Category,
			TotalValue:  row.TotalValue,
			Status:      row.Status,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// reportExport renders the filtered report in the requested format and
// streams it as a download. The rendered rows are also queued for the
// sheets worker; queue or publish failures never fail the download.
func (h *Handler) reportExport(w http.ResponseWriter, r *http.Request) {
	republicID, ok := h.republicID(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	q, err := reportQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, _, err := h.buildReport(r, republicID, q)
	if err != nil {
		h.snapshotError(w, r, err)
		return
	}

	var (
		payload     []byte
		contentType string
		ext         string
	)
	switch format {
	case "csv":
		payload, err = rep.CSV()
		contentType = "text/csv; charset=utf-8"
		ext = "csv"
	case "xlsx":
		payload, err = rep.XLSX()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	case "pdf":
		payload, err = rep.PDF()
		contentType = "application/pdf"
		ext = "pdf"
	default:
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	if err != nil {
		metrics.IncReportExport(format, metrics.ResultError)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to render report", "format", format, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	metrics.IncReportExport(format, metrics.ResultSuccess)

	h.queueExport(r, republicID, format, q, rep)

	filename := fmt.Sprintf("relatorio_despesas_%s.%s", time.Now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// queueExport persists the rendered rows and notifies the worker. Both
// steps are best effort from the caller's point of view.
func (h *Handler) queueExport(r *http.Request, republicID int64, format string, q services.ReportQuery, rep report.Report) {
	if h.exportStore == nil {
		return
	}
	ctx := r.Context()

	export := storage.ReportExport{
		ID:             uuid.NewString(),
		RepublicID:     republicID,
		Format:         format,
		FilterCategory: string(q.Category),
		Rows:           rep.SheetRows(),
		CreatedAt:      time.Now(),
	}
	if !q.Start.IsZero() {
		export.FilterStart = q.Start.String()
	}
	if !q.End.IsZero() {
		export.FilterEnd = q.End.String()
	}

	if err := h.exportStore.CreateReportExport(ctx, export); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "failed to queue report export", "export_id", export.ID, "error", err)
		return
	}

	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishReportExport(ctx, export.ID, republicID); err != nil {
		// The worker's startup catch-up covers missed messages.
		log.FromContext(ctx).WarnContext(ctx, "failed to publish export message", "export_id", export.ID, "error", err)
	}
}

func (h *Handler) republicID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "republicID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid república id %q", raw))
		return 0, false
	}
	if h.republicScope != 0 && id != h.republicScope {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown república %d", id))
		return 0, false
	}
	return id, true
}

// snapshotError maps snapshot failures: expired sessions become 401s,
// everything else is a 502 because the upstream API is the failing party.
func (h *Handler) snapshotError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		h.writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to load snapshot", "error", err)
	h.writeError(w, http.StatusBadGateway, "upstream API unavailable")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
