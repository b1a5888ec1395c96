package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uhyunpark/otc-actions/params"
	"github.com/uhyunpark/otc-actions/pkg/action"
	"github.com/uhyunpark/otc-actions/pkg/api"
	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/storage"
	"github.com/uhyunpark/otc-actions/pkg/util"
)

func main() {
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLogger(os.Getenv("LOG_FILE"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("starting",
		"rpc", cfg.Ledger.RPCEndpoint,
		"program", cfg.Ledger.ProgramID.String(),
		"listen", cfg.Server.ListenAddr,
	)

	client := ledger.NewClient(cfg.Ledger.RPCEndpoint, cfg.Ledger.RPCTimeout, cfg.Ledger.RPCMaxTries, logger)
	sdk := otc.NewSDK(client, cfg.Ledger.ProgramID, cfg.Ledger.Authority)
	composer := action.NewComposer(sdk, client, logger)

	var audit *storage.AuditLog
	if cfg.Server.AuditLogPath != "" {
		audit, err = storage.OpenAuditLog(cfg.Server.AuditLogPath, logger)
		if err != nil {
			sugar.Fatalw("audit_log_open_failed", "path", cfg.Server.AuditLogPath, "err", err)
		}
		defer audit.Close()
	}

	server := api.NewServer(cfg, sdk, composer, audit, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		sugar.Infow("shutting_down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server_failed", "err", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		sugar.Warnw("shutdown_incomplete", "err", err)
	}
}
