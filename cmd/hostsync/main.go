package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hostsync/internal/config"
	"hostsync/internal/fetcher"
	"hostsync/internal/hostsfile"
	"hostsync/internal/logger"
	"hostsync/internal/notifier"
	"hostsync/internal/scheduler"
	"hostsync/internal/server"
	"hostsync/internal/updater"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.ConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize logger: %v", err)
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		appLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	hostsPath := gCfg.HostsConfig.FilePath
	if flags.HostsFile != "" {
		hostsPath = flags.HostsFile
	}
	if hostsPath == "" {
		hostsPath = hostsfile.DefaultPath()
	}
	if err := hostsfile.CheckWritable(hostsPath); err != nil {
		appLogger.Warn().Err(err).Str("path", hostsPath).
			Msg("Hosts file does not appear writable, updates will likely fail (try running with elevated privileges)")
	}

	appLogger.Info().
		Str("hosts_file", hostsPath).
		Int("sources", len(gCfg.HostsConfig.Sources)).
		Bool("once", flags.Once).
		Msg("hostsync starting")

	fs := hostsfile.NewOSFileSystem()
	fetchClient := fetcher.NewClient(gCfg.FetchConfig, appLogger)
	backup := hostsfile.NewBackupManager(fs, gCfg.HostsConfig.BackupBeforeUpdate, gCfg.HostsConfig.BackupPath, appLogger)
	upd := updater.NewUpdater(gCfg.HostsConfig.Sources, hostsPath, fetchClient, fs, backup, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var history *scheduler.DB
	if gCfg.HistoryConfig.SQLiteDBPath != "" {
		history, err = scheduler.NewDB(gCfg.HistoryConfig.SQLiteDBPath, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("Failed to open history database")
		}
		defer history.Close()

		if last, err := history.LastSuccessTime(); err == nil && !last.IsZero() {
			appLogger.Info().Time("last_success", last).Msg("Previous successful update found in history")
		}
	}

	var helper *notifier.NotificationHelper
	if gCfg.NotificationConfig.DiscordWebhookURL != "" {
		dn := notifier.NewDiscordNotifier(appLogger, nil)
		helper = notifier.NewNotificationHelper(dn, gCfg.NotificationConfig, appLogger)
	}

	if flags.Once {
		outcome := upd.RunCycle(ctx)
		if history != nil {
			if err := history.RecordOutcome(outcome); err != nil {
				appLogger.Error().Err(err).Msg("Failed to record outcome in history journal")
			}
		}
		if helper != nil {
			helper.NotifyOutcome(ctx, outcome)
		}
		if outcome.Status != updater.StatusUpdated {
			appLogger.Error().Str("status", string(outcome.Status)).Err(outcome.Err).Msg("Update cycle did not complete")
			os.Exit(1)
		}
		appLogger.Info().Int("bytes_written", outcome.BytesWritten).Msg("Update cycle completed")
		return
	}

	sched := scheduler.NewScheduler(gCfg.SchedulerConfig, upd, history, helper, appLogger)

	if gCfg.ServerConfig.Enabled {
		statusServer := server.NewServer(gCfg.ServerConfig.ListenAddr, appLogger)
		sched.AddSink(statusServer)
		go statusServer.Start(ctx)
	}

	sched.Run(ctx)
	appLogger.Info().Msg("hostsync stopped")
}
