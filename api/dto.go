/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the domain packages, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/crewdesk/leave"
	"github.com/warp/crewdesk/raffle"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// SubmitLeaveRequest carries one multi-date leave submission.
type SubmitLeaveRequest struct {
	SubjectID         string `json:"subjectId"`
	DisplayName       string `json:"displayName"`
	Dates             string `json:"dates"` // comma separated, MM/DD/YYYY
	Shift             string `json:"shift"`
	AffectedResources string `json:"affectedResources"`
	Reason            string `json:"reason"`
}

// LeaveRequestDTO represents one leave request in API responses.
type LeaveRequestDTO struct {
	ID                string `json:"id"`
	SubjectID         string `json:"subjectId"`
	DisplayName       string `json:"displayName"`
	Date              string `json:"date"`
	Shift             string `json:"shift"`
	AffectedResources string `json:"affectedResources"`
	Reason            string `json:"reason"`
	Status            string `json:"status"`
	ApproverID        string `json:"approverId,omitempty"`
	ClaimedBy         string `json:"claimedBy,omitempty"`
	ReminderSentAt    string `json:"reminderSentAt,omitempty"`
	CreatedAt         string `json:"createdAt"`
}

// LeaveAck acknowledges a submission. Delivered reports whether the
// approval-channel notification went out; the ledger entries persist
// either way.
type LeaveAck struct {
	Requests      []LeaveRequestDTO `json:"requests"`
	Delivered     bool              `json:"delivered"`
	DeliveryError string            `json:"deliveryError,omitempty"`
}

// DigestDTO is the trailing-window leave digest.
type DigestDTO struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Requests []LeaveRequestDTO `json:"requests"`
}

// =============================================================================
// RAFFLE TYPES
// =============================================================================

// SubmitTicketRequest carries one raffle-ticket submission.
type SubmitTicketRequest struct {
	SubjectName      string `json:"subjectName"`
	ResourceName     string `json:"resourceName"`
	CounterpartyName string `json:"counterpartyName"`
	Amount           string `json:"amount"` // digits only, no currency sign
}

// TicketAck acknowledges a ticket submission.
type TicketAck struct {
	SubjectName   string `json:"subjectName"`
	TicketCount   int64  `json:"ticketCount"`
	Amount        string `json:"amount"`
	PeriodKey     string `json:"periodKey"`
	Delivered     bool   `json:"delivered"`
	DeliveryError string `json:"deliveryError,omitempty"`
}

// GroupRowDTO is one submitter's totals in a report page.
type GroupRowDTO struct {
	Subject   string   `json:"subject"`
	Tickets   int64    `json:"tickets"`
	Amount    string   `json:"amount"`
	Resources []string `json:"resources"`
}

// ReportDTO is a paginated per-period raffle report.
type ReportDTO struct {
	PeriodKey string          `json:"periodKey"`
	Title     string          `json:"title"`
	Pages     [][]GroupRowDTO `json:"pages"`
}

// =============================================================================
// ADMIN TYPES
// =============================================================================

// StatusDTO reports process health for the owner.
type StatusDTO struct {
	UptimeMinutes int64           `json:"uptimeMinutes"`
	Timezone      string          `json:"timezone"`
	Modules       map[string]bool `json:"modules"`
	MirrorEnabled bool            `json:"mirrorEnabled"`
}

// ToggleModuleRequest flips one module switch.
type ToggleModuleRequest struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLeaveDTO(r leave.Request) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:                string(r.ID),
		SubjectID:         r.SubjectID,
		DisplayName:       r.DisplayName,
		Date:              r.Date,
		Shift:             r.Shift,
		AffectedResources: r.AffectedResources,
		Reason:            r.Reason,
		Status:            string(r.Status),
		ApproverID:        r.ApproverID,
		ClaimedBy:         r.ClaimedBy,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReminderSentAt != nil {
		dto.ReminderSentAt = r.ReminderSentAt.Format(time.RFC3339)
	}
	return dto
}

func toLeaveDTOs(rs []leave.Request) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toLeaveDTO(r)
	}
	return dtos
}

func toReportDTO(r raffle.Report) ReportDTO {
	dto := ReportDTO{PeriodKey: r.PeriodKey, Title: r.Title}
	for _, page := range r.Pages() {
		rows := make([]GroupRowDTO, len(page))
		for i, g := range page {
			rows[i] = GroupRowDTO{
				Subject:   g.Subject,
				Tickets:   g.TicketCount,
				Amount:    g.Amount().StringFixed(2),
				Resources: g.Resources,
			}
		}
		dto.Pages = append(dto.Pages, rows)
	}
	return dto
}
