/*
cron.go - Calendar-scheduled report posting

PURPOSE:
  Two standing jobs, both evaluated in the configured wall-clock zone:

    Monday 08:00       - weekly leave digest to the approval channel
    1st of month 00:00 - prior period raffle report to the raffle channel

  The jobs go through the same Handler methods the HTTP surface could
  trigger, so posting logic lives in one place.
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// NewCron builds the job runner. The caller owns Start/Stop.
func NewCron(h *Handler, zone *time.Location, log *zap.Logger) *cron.Cron {
	c := cron.New(cron.WithLocation(zone))

	if _, err := c.AddFunc("0 8 * * 1", func() {
		h.PostWeeklyDigest(context.Background())
	}); err != nil {
		log.Error("failed to schedule weekly digest", zap.Error(err))
	}

	if _, err := c.AddFunc("0 0 1 * *", func() {
		h.PostPriorPeriodReport(context.Background())
	}); err != nil {
		log.Error("failed to schedule monthly raffle report", zap.Error(err))
	}

	return c
}
