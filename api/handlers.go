/*
handlers.go - HTTP API handlers for the coverage/raffle engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response and JSON
  serialization, delegates every decision to the domain packages, and
  emits notifications through the Sink. No business logic lives here.

ENDPOINTS:
  Leave:
    POST   /api/leaves                 Submit multi-date leave request
    GET    /api/leaves                 List requests
    GET    /api/leaves/digest          Trailing 7-day digest
    POST   /api/leaves/{id}/approve    Approve (approver capability)
    POST   /api/leaves/{id}/decline    Decline (approver capability)
    POST   /api/leaves/{id}/claim      Volunteer coverage

  Raffle:
    POST   /api/tickets                Submit ticket entry
    GET    /api/raffle/report/current  Current period report
    GET    /api/raffle/report/previous Prior period report

  Admin:
    GET    /api/status                 Process status
    POST   /api/admin/modules/{name}   Owner-only module kill switch
    POST   /api/admin/reminders/sweep  Owner-only immediate sweep

ACTOR IDENTITY:
  The transport adapter passes the acting user in X-Actor-ID. The engine
  trusts the transport to have authenticated it; capability checks
  (approver set, owner) happen here and in the leave package.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation and parse errors
  - 403: Actor lacks the required capability
  - 404: Unknown request id
  - 409: Duplicate (subject, date) submission
  - 503: Module disabled by the owner
  - 500: Internal errors
  Delivery failures are NOT errors: the state change persists and the
  response carries delivered=false.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/crewdesk/leave"
	"github.com/warp/crewdesk/notify"
	"github.com/warp/crewdesk/raffle"
)

// DigestWindow is the trailing window of the weekly digest, measured
// over request creation instants.
const DigestWindow = 7 * 24 * time.Hour

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Leaves  *leave.Ledger
	Tickets *raffle.Ledger

	Sink     notify.Sink
	Channels *notify.Directory
	Modules  *ModuleToggles
	Zone     *time.Location
	Log      *zap.Logger

	// Scheduler backs the manual sweep trigger; nil until wiring attaches
	// the reminder scheduler.
	Scheduler *ReminderScheduler

	ApprovalChannel notify.ChannelRef
	LeaveChannel    notify.ChannelRef
	RaffleChannel   notify.ChannelRef

	// OwnerID guards the module kill switches. Empty disables them.
	OwnerID string

	// MirrorEnabled is surfaced in /api/status.
	MirrorEnabled bool

	startedAt time.Time
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(leaves *leave.Ledger, tickets *raffle.Ledger, sink notify.Sink, channels *notify.Directory, zone *time.Location, log *zap.Logger) *Handler {
	return &Handler{
		Leaves:    leaves,
		Tickets:   tickets,
		Sink:      sink,
		Channels:  channels,
		Modules:   NewModuleToggles(ModuleLeave, ModuleRaffle),
		Zone:      zone,
		Log:       log,
		startedAt: time.Now(),
	}
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave creates one Pending request per submitted date and posts
// each to the approval channel.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	if !h.Modules.Enabled(ModuleLeave) {
		writeError(w, http.StatusServiceUnavailable, "Leave module is disabled", nil)
		return
	}

	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Leaves.Submit(r.Context(), leave.Submission{
		SubjectID:         req.SubjectID,
		DisplayName:       req.DisplayName,
		Dates:             req.Dates,
		Shift:             req.Shift,
		AffectedResources: req.AffectedResources,
		Reason:            req.Reason,
	})
	if err != nil {
		h.writeLeaveError(w, "Failed to submit leave", err)
		return
	}

	ack := LeaveAck{Requests: toLeaveDTOs(created), Delivered: true}
	if err := h.postApprovalRequests(r.Context(), created); err != nil {
		// The ledger commit stands; the caller just learns delivery failed.
		ack.Delivered = false
		ack.DeliveryError = err.Error()
		h.Log.Warn("approval channel delivery failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, ack)
}

// ListLeaves returns every stored request.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	all := h.Leaves.Find(func(leave.Request) bool { return true })
	writeJSON(w, http.StatusOK, toLeaveDTOs(all))
}

// ApproveLeave marks a request approved, notifies the subject and posts
// a coverage prompt.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, true)
}

// DeclineLeave marks a request declined and notifies the subject.
func (h *Handler) DeclineLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, false)
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request, approve bool) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req leave.Request
	var err error
	if approve {
		req, err = h.Leaves.Approve(r.Context(), id, actor)
	} else {
		req, err = h.Leaves.Decline(r.Context(), id, actor)
	}
	if err != nil {
		h.writeLeaveError(w, "Failed to update leave", err)
		return
	}

	// Per-recipient delivery failures are logged and ignored; the
	// transition is already durable.
	if approve {
		h.dm(r.Context(), req.SubjectID,
			fmt.Sprintf("Your leave for %s has been approved.", req.Date))
		h.post(r.Context(), h.LeaveChannel, formatClaimPrompt(req))
	} else {
		h.dm(r.Context(), req.SubjectID,
			fmt.Sprintf("Your leave for %s has not been authorized.", req.Date))
		h.post(r.Context(), h.LeaveChannel, formatDeclined(req))
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(req))
}

// ClaimLeave records a coverage volunteer for an approved request.
func (h *Handler) ClaimLeave(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	req, err := h.Leaves.Claim(r.Context(), id, actor)
	if err != nil {
		h.writeLeaveError(w, "Failed to claim leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(req))
}

// GetDigest returns the trailing 7-day digest.
func (h *Handler) GetDigest(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	cutoff := now.Add(-DigestWindow)
	writeJSON(w, http.StatusOK, DigestDTO{
		From:     cutoff.Format(time.RFC3339),
		To:       now.Format(time.RFC3339),
		Requests: toLeaveDTOs(h.Leaves.CreatedSince(cutoff)),
	})
}

// =============================================================================
// RAFFLE HANDLERS
// =============================================================================

// SubmitTicket creates a frozen ticket entry and posts it to the raffle
// channel.
func (h *Handler) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	if !h.Modules.Enabled(ModuleRaffle) {
		writeError(w, http.StatusServiceUnavailable, "Raffle module is disabled", nil)
		return
	}

	var req SubmitTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Tickets.Create(r.Context(), raffle.Submission{
		SubjectName:      req.SubjectName,
		ResourceName:     req.ResourceName,
		CounterpartyName: req.CounterpartyName,
		Amount:           req.Amount,
	})
	if err != nil {
		if raffle.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid ticket submission", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record ticket", err)
		return
	}

	ack := TicketAck{
		SubjectName: entry.SubjectName,
		TicketCount: entry.TicketCount,
		Amount:      decimal.NewFromInt(entry.AmountMinorUnits).Shift(-2).StringFixed(2),
		PeriodKey:   entry.PeriodKey,
		Delivered:   true,
	}
	if err := h.post(r.Context(), h.RaffleChannel, formatTicketEntry(entry)); err != nil {
		ack.Delivered = false
		ack.DeliveryError = err.Error()
	}

	writeJSON(w, http.StatusCreated, ack)
}

// GetCurrentPeriodReport returns this period's aggregation.
func (h *Handler) GetCurrentPeriodReport(w http.ResponseWriter, r *http.Request) {
	key := raffle.PeriodKey(time.Now(), h.Zone)
	writeJSON(w, http.StatusOK, toReportDTO(h.Tickets.Report(key)))
}

// GetPriorPeriodReport returns last period's aggregation.
func (h *Handler) GetPriorPeriodReport(w http.ResponseWriter, r *http.Request) {
	key := raffle.PreviousPeriodKey(time.Now(), h.Zone)
	writeJSON(w, http.StatusOK, toReportDTO(h.Tickets.Report(key)))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetStatus reports process health.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusDTO{
		UptimeMinutes: int64(time.Since(h.startedAt).Minutes()),
		Timezone:      h.Zone.String(),
		Modules:       h.Modules.States(),
		MirrorEnabled: h.MirrorEnabled,
	})
}

// ToggleModule flips a module kill switch. Owner only.
func (h *Handler) ToggleModule(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}
	if h.OwnerID == "" || actor != h.OwnerID {
		writeError(w, http.StatusForbidden, "Only the owner can toggle modules", nil)
		return
	}

	var req ToggleModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Modules.Set(name, req.Enabled); err != nil {
		writeError(w, http.StatusNotFound, "Unknown module", err)
		return
	}

	h.Log.Info("module toggled", zap.String("module", name), zap.Bool("enabled", req.Enabled))
	writeJSON(w, http.StatusOK, h.Modules.States())
}

// TriggerReminderSweep runs the reminder sweep immediately instead of
// waiting for the next tick. Owner only.
func (h *Handler) TriggerReminderSweep(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}
	if h.OwnerID == "" || actor != h.OwnerID {
		writeError(w, http.StatusForbidden, "Only the owner can trigger a sweep", nil)
		return
	}
	if h.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "Reminder scheduler is not attached", nil)
		return
	}

	h.Scheduler.RunNow()
	writeJSON(w, http.StatusOK, map[string]string{"status": "sweep completed"})
}

// =============================================================================
// SCHEDULED REPORT POSTING (shared with cron.go)
// =============================================================================

// PostWeeklyDigest posts the trailing digest to the approval channel.
func (h *Handler) PostWeeklyDigest(ctx context.Context) {
	if !h.Modules.Enabled(ModuleLeave) {
		return
	}

	recent := h.Leaves.CreatedSince(time.Now().Add(-DigestWindow))
	if len(recent) == 0 {
		h.post(ctx, h.ApprovalChannel, "No leave requests in the last 7 days.")
		return
	}

	if err := h.post(ctx, h.ApprovalChannel, formatDigest(recent)); err != nil {
		h.Log.Warn("weekly digest delivery failed", zap.Error(err))
	}
}

// PostPriorPeriodReport posts last period's raffle report, one message
// per page, to the raffle channel.
func (h *Handler) PostPriorPeriodReport(ctx context.Context) {
	if !h.Modules.Enabled(ModuleRaffle) {
		return
	}

	key := raffle.PreviousPeriodKey(time.Now(), h.Zone)
	report := h.Tickets.Report(key)
	if report.Empty() {
		h.post(ctx, h.RaffleChannel,
			fmt.Sprintf("No raffle tickets submitted for %s.", report.Title))
		return
	}

	for _, page := range report.Pages() {
		if err := h.post(ctx, h.RaffleChannel, formatReportPage(report.Title, page)); err != nil {
			h.Log.Warn("raffle report delivery failed", zap.Error(err))
			return
		}
	}
}

// =============================================================================
// NOTIFICATION HELPERS
// =============================================================================

func (h *Handler) actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
	if actor == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Actor-ID header", nil)
		return "", false
	}
	return actor, true
}

func (h *Handler) dm(ctx context.Context, userID, text string) {
	if err := h.Sink.DirectMessage(ctx, userID, text); err != nil {
		h.Log.Warn("direct message failed", zap.String("user", userID), zap.Error(err))
	}
}

// post resolves ref against the directory and delivers text. Returns
// the delivery error for callers that surface it; the state change
// behind the notification is never rolled back.
func (h *Handler) post(ctx context.Context, ref notify.ChannelRef, text string) error {
	ch, err := h.Channels.Resolve(ref)
	if err != nil {
		h.Log.Warn("channel not found",
			zap.String("id", ref.ID), zap.String("name", ref.Name))
		return fmt.Errorf("channel %q: %w", ref.Name, err)
	}
	if err := h.Sink.PostChannel(ctx, ch.ID, text); err != nil {
		return fmt.Errorf("post to %q: %w", ch.Name, err)
	}
	return nil
}

func (h *Handler) postApprovalRequests(ctx context.Context, created []leave.Request) error {
	for _, req := range created {
		if err := h.post(ctx, h.ApprovalChannel, formatLeaveRequest(req)); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// MESSAGE FORMATTING
// =============================================================================

func formatLeaveRequest(r leave.Request) string {
	return fmt.Sprintf(
		"Leave request %s\nName: %s\nDate: %s\nShift: %s\nModels: %s\nReason: %s\nStatus: %s",
		r.ID, r.DisplayName, r.Date, r.Shift, r.AffectedResources, r.Reason, r.Status)
}

func formatClaimPrompt(r leave.Request) string {
	return fmt.Sprintf(
		"Approved leave for %s on %s (%s) needs coverage. Claim request %s to take the shift.",
		r.DisplayName, r.Date, r.Shift, r.ID)
}

func formatDeclined(r leave.Request) string {
	return fmt.Sprintf("Leave for %s on %s was declined.", r.DisplayName, r.Date)
}

func formatTicketEntry(e raffle.Entry) string {
	amount := decimal.NewFromInt(e.AmountMinorUnits).Shift(-2).StringFixed(2)
	return fmt.Sprintf(
		"Raffle ticket submission\nChatter: %s\nModel: %s\nFan: %s\nAmount: %s\nTickets: %d",
		e.SubjectName, e.ResourceName, e.CounterpartyName, amount, e.TicketCount)
}

func formatDigest(requests []leave.Request) string {
	var b strings.Builder
	b.WriteString("Weekly leave report\n")
	for _, r := range requests {
		claimed := r.ClaimedBy
		if claimed == "" {
			claimed = "None"
		}
		approver := r.ApproverID
		if approver == "" {
			approver = "None"
		}
		fmt.Fprintf(&b, "%s - %s: %s, shift %s, models %s, claimed by %s, decided by %s\n",
			r.DisplayName, r.Date, r.Status, r.Shift, r.AffectedResources, claimed, approver)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatReportPage(title string, page []raffle.GroupSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	for _, g := range page {
		resources := "None"
		if len(g.Resources) > 0 {
			resources = strings.Join(g.Resources, ", ")
		}
		fmt.Fprintf(&b, "%s: %d tickets, amount %s, models %s\n",
			g.Subject, g.TicketCount, g.Amount().StringFixed(2), resources)
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func (h *Handler) writeLeaveError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, leave.ErrUnauthorized):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, leave.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrDuplicateDate):
		writeError(w, http.StatusConflict, message, err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
