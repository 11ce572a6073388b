/*
report.go - Per-period aggregation and pagination

PURPOSE:
  Groups a period's entries by submitter, summing tickets and amounts
  and collecting the distinct resources each submitter sold for. Group
  order is first-seen submission order, and it survives pagination: the
  rendering surface caps fields per message, so reports chunk into
  fixed-size pages.
*/
package raffle

import (
	"github.com/shopspring/decimal"
)

// PageSize is the maximum number of group rows per rendered page.
const PageSize = 25

// GroupSummary is one submitter's totals for a period.
type GroupSummary struct {
	Subject          string   `json:"subject"`
	TicketCount      int64    `json:"ticketCount"`
	AmountMinorUnits int64    `json:"amountMinorUnits"`
	Resources        []string `json:"resources"`
}

// Amount returns the group total in major units for display.
func (g GroupSummary) Amount() decimal.Decimal {
	return decimal.NewFromInt(g.AmountMinorUnits).Shift(-2)
}

// Report is an ordered per-submitter summary of one period.
type Report struct {
	PeriodKey string         `json:"periodKey"`
	Title     string         `json:"title"`
	Groups    []GroupSummary `json:"groups"`
}

// Empty reports whether the period had no entries.
func (r Report) Empty() bool { return len(r.Groups) == 0 }

// Pages chunks the groups into pages of at most PageSize rows,
// preserving group order.
func (r Report) Pages() [][]GroupSummary {
	if len(r.Groups) == 0 {
		return nil
	}
	var pages [][]GroupSummary
	for start := 0; start < len(r.Groups); start += PageSize {
		end := start + PageSize
		if end > len(r.Groups) {
			end = len(r.Groups)
		}
		pages = append(pages, r.Groups[start:end])
	}
	return pages
}

// BuildReport aggregates entries (already filtered to one period) into
// an ordered report. Groups appear in first-seen submission order;
// resource lists hold distinct names in first-seen order.
func BuildReport(key string, entries []Entry) Report {
	report := Report{PeriodKey: key, Title: PeriodTitle(key)}

	index := make(map[string]int)
	seenResource := make(map[string]map[string]bool)

	for _, e := range entries {
		subject := e.SubjectName
		if subject == "" {
			subject = "Unknown"
		}

		i, ok := index[subject]
		if !ok {
			i = len(report.Groups)
			index[subject] = i
			report.Groups = append(report.Groups, GroupSummary{Subject: subject})
			seenResource[subject] = make(map[string]bool)
		}

		report.Groups[i].TicketCount += e.TicketCount
		report.Groups[i].AmountMinorUnits += e.AmountMinorUnits
		if e.ResourceName != "" && !seenResource[subject][e.ResourceName] {
			seenResource[subject][e.ResourceName] = true
			report.Groups[i].Resources = append(report.Groups[i].Resources, e.ResourceName)
		}
	}

	return report
}
