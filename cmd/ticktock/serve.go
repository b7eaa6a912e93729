package ticktock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/igorsilveira/ticktock/pkg/a2a"
	"github.com/igorsilveira/ticktock/pkg/audit"
	"github.com/igorsilveira/ticktock/pkg/bridge"
	"github.com/igorsilveira/ticktock/pkg/config"
	"github.com/igorsilveira/ticktock/pkg/credentials"
	"github.com/igorsilveira/ticktock/pkg/gateway"
	"github.com/igorsilveira/ticktock/pkg/responder"
	"github.com/igorsilveira/ticktock/pkg/session"
	"github.com/igorsilveira/ticktock/pkg/store"
	"github.com/igorsilveira/ticktock/pkg/telemetry"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the A2A endpoint",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			logger.Warn("tracer shutdown", slog.String("err", err.Error()))
		}
	}()

	var (
		auditLog *audit.Logger
		ready    func(context.Context) error
		db       *store.Store
	)
	apiKey := cfg.Responder.APIKey()
	masterKey := os.Getenv(credentials.MasterKeyEnv)
	if cfg.Store.Audit || (apiKey == "" && masterKey != "") {
		if err := config.EnsureDataDir(); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		db, err = store.New(cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer func() { _ = db.Close() }()
		ready = db.Ping
	}

	if cfg.Store.Audit {
		auditLog, err = audit.New(db.DB())
		if err != nil {
			return fmt.Errorf("initializing audit logger: %w", err)
		}
	}

	if apiKey == "" && masterKey != "" {
		creds, err := credentials.New(db.DB(), masterKey)
		if err != nil {
			return err
		}
		apiKey, err = creds.Get(ctx, cfg.Responder.Credential)
		if err != nil && !errors.Is(err, credentials.ErrNotFound) {
			return err
		}
	}

	resp, err := responder.New(ctx, responder.Config{
		Kind:        cfg.Responder.Kind,
		Model:       cfg.Responder.Model,
		APIKey:      apiKey,
		Instruction: cfg.Responder.Instruction,
		TimeLayout:  cfg.Responder.TimeLayout,
	})
	if err != nil {
		return fmt.Errorf("creating responder: %w", err)
	}

	card, err := buildCard(cfg)
	if err != nil {
		return err
	}

	executor, err := bridge.New(bridge.Config{
		Store:         session.NewStore(),
		Responder:     resp,
		ResponderName: cfg.Responder.Kind,
		AppName:       card.Name,
		UserID:        cfg.Agent.UserID,
		Audit:         auditLog,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	router, err := a2a.NewRouter()
	if err != nil {
		return err
	}
	handler, err := a2a.NewHandler(a2a.HandlerConfig{
		Card:     card,
		Router:   router,
		Executor: executor,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	gw := gateway.New(gateway.Config{
		Bind:   cfg.Server.Bind,
		Port:   cfg.Server.Port,
		A2A:    handler,
		Logger: logger,
		Ready:  ready,
	})

	logger.Info("ticktock starting",
		slog.String("version", version),
		slog.String("agent", card.Name),
		slog.String("url", card.URL),
		slog.String("responder", cfg.Responder.Kind),
	)

	if err := gw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("ticktock stopped")
	return nil
}
