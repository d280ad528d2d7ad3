package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"voicenet/backend"
	"voicenet/catalog"
	"voicenet/commandbus"
	"voicenet/contract"
	"voicenet/hotkey"
	"voicenet/internal"
	"voicenet/observability"
	"voicenet/policy"
	"voicenet/repositories"
	"voicenet/runtime"
	"voicenet/runtime/workers"
	"voicenet/sink"
	"voicenet/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the core lifecycle, and centralizes
// error reporting, so every defer (database close included) executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB) for the radio log
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Backend collaborators
	radioLog := repositories.NewRadioLogRepository(db, log, nil)
	mem := backend.NewMemory(log, radioLog, config.TokenDuration)
	cat := catalog.New(log, nil)

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(runtime.Deps{
		Log:        log,
		Supervisor: sup,
		Registry:   runtime.NewRegistry(),
		Catalog:    cat,
		Factory:    transport.NewFactory(log, mem, config.TransportURL),
		Sessions:   mem,
		Presence:   mem,
		Authority:  mem,
		Console:    mem,
		Policy:     policy.NewEvaluator(mem),
		Bus:        commandbus.New(log, radioLog),
		Monitoring: observability.NewMonitoringManager(log),
		Hotkeys:    hotkey.NewBinder(),
		PermanentSinks: []contract.EventSink{
			sink.NewDiskSink(radioLog, log),
			sink.NewQualitySink(log),
		},
	}, runtime.Options{
		BufferSize:            config.BufferSize,
		HeartbeatInterval:     config.HeartbeatInterval,
		AuthorityPollInterval: config.AuthorityPoll,
		SpeakingDebounce:      config.SpeakingDebounce,
		SinkTimeout:           config.SinkTimeout,
	})

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the Engine
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}
	log.Info("Voice core running", "nets", len(cat.All()))

	// 7. Wait for Stop
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	// 8. Final Cleanup
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
