/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration from the environment (.env honored)
  2. Build the logger and resolve the target timezone
  3. Open the local JSON snapshot stores
  4. If mirror credentials are present, seed local state from the remote
     copy and start the replication queues
  5. Construct the ledgers, notification directory and HTTP handler
  6. Start the reminder scheduler, calendar jobs and HTTP server
  7. On SIGINT/SIGTERM: stop the schedulers, drain the HTTP server,
     flush a final snapshot and stop the mirror queues

The mirror is strictly optional: without GITHUB_* variables the service
runs on local files alone.
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/crewdesk/api"
	"github.com/warp/crewdesk/config"
	"github.com/warp/crewdesk/leave"
	"github.com/warp/crewdesk/logging"
	"github.com/warp/crewdesk/notify"
	"github.com/warp/crewdesk/raffle"
	"github.com/warp/crewdesk/store"
	"github.com/warp/crewdesk/store/ghmirror"
	"github.com/warp/crewdesk/store/jsonfile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logger.Level)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	zone, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid timezone", zap.Error(err))
	}

	ctx := context.Background()

	leaveSnap, err := jsonfile.New(cfg.Leave.DataFile)
	if err != nil {
		log.Fatal("failed to open leave store", zap.Error(err))
	}
	raffleSnap, err := jsonfile.New(cfg.Raffle.DataFile)
	if err != nil {
		log.Fatal("failed to open raffle store", zap.Error(err))
	}

	// Mirror queues stay nil without credentials; every call site
	// tolerates that.
	var leaveMirror, raffleMirror *store.MirrorQueue
	if cfg.GitHub.Enabled() {
		leaveClient := ghmirror.New(ghmirror.Config{
			Owner: cfg.GitHub.Owner,
			Repo:  cfg.GitHub.Repo,
			Path:  cfg.GitHub.LeavePath,
			Token: cfg.GitHub.Token,
		})
		raffleClient := ghmirror.New(ghmirror.Config{
			Owner: cfg.GitHub.Owner,
			Repo:  cfg.GitHub.Repo,
			Path:  cfg.GitHub.RafflePath,
			Token: cfg.GitHub.Token,
		})

		if cfg.GitHub.SeedOnStart {
			if err := store.Seed(ctx, leaveClient, leaveSnap, log); err != nil {
				log.Fatal("failed to seed leave store", zap.Error(err))
			}
			if err := store.Seed(ctx, raffleClient, raffleSnap, log); err != nil {
				log.Fatal("failed to seed raffle store", zap.Error(err))
			}
		}

		leaveMirror = store.NewMirrorQueue(leaveClient, log.Named("mirror.leave"))
		raffleMirror = store.NewMirrorQueue(raffleClient, log.Named("mirror.raffle"))
		leaveMirror.Start()
		raffleMirror.Start()
	}

	approvers := leave.NewApproverSet(cfg.Leave.ApproverIDs...)
	leaves, err := leave.NewLedger(ctx, leaveSnap, leaveMirror, approvers, log.Named("leave"))
	if err != nil {
		log.Fatal("failed to load leave ledger", zap.Error(err))
	}
	tickets, err := raffle.NewLedger(ctx, raffleSnap, raffleMirror, zone, log.Named("raffle"))
	if err != nil {
		log.Fatal("failed to load raffle ledger", zap.Error(err))
	}

	directory := notify.NewDirectory(
		notify.Channel{ID: cfg.Leave.ApprovalChannel.ID, Name: cfg.Leave.ApprovalChannel.Name},
		notify.Channel{ID: cfg.Leave.LeaveChannel.ID, Name: cfg.Leave.LeaveChannel.Name},
		notify.Channel{ID: cfg.Raffle.Channel.ID, Name: cfg.Raffle.Channel.Name},
	)

	handler := api.NewHandler(leaves, tickets, notify.NewLogSink(log.Named("notify")), directory, zone, log)
	handler.ApprovalChannel = notify.ChannelRef(cfg.Leave.ApprovalChannel)
	handler.LeaveChannel = notify.ChannelRef(cfg.Leave.LeaveChannel)
	handler.RaffleChannel = notify.ChannelRef(cfg.Raffle.Channel)
	handler.OwnerID = cfg.Admin.OwnerID
	handler.MirrorEnabled = cfg.GitHub.Enabled()

	scheduler := api.NewReminderScheduler(leaves, handler, zone, log.Named("scheduler"))
	scheduler.SweepInterval = cfg.App.SweepInterval()
	handler.Scheduler = scheduler
	scheduler.Start()

	jobs := api.NewCron(handler, zone, log.Named("cron"))
	jobs.Start()

	server := &http.Server{
		Addr:    cfg.App.Addr(),
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("timezone", zone.String()),
			zap.Bool("mirror", cfg.GitHub.Enabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	scheduler.Stop()
	<-jobs.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if err := leaves.Flush(shutdownCtx); err != nil {
		log.Error("final leave flush failed", zap.Error(err))
	}
	if err := tickets.Flush(shutdownCtx); err != nil {
		log.Error("final raffle flush failed", zap.Error(err))
	}

	leaveMirror.Stop()
	raffleMirror.Stop()

	log.Info("shutdown complete")
}
