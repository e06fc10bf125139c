package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/folio"
)

var (
	serveAddr      string
	serveDataDir   string
	serveStaticDir string
	serveAPIURL    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `serve loads the config file, applies FOLIO_* environment overrides
(a .env file in the working directory is read first) and flags, then serves
the site until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := folio.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = serveAddr
		}
		if flags.Changed("data-dir") {
			cfg.DataDir = serveDataDir
		}
		if flags.Changed("api-url") {
			cfg.APIURL = serveAPIURL
		}

		logger, err := folio.NewLogger(cfg.Debug)
		if err != nil {
			return err
		}

		app := folio.New(cfg,
			folio.WithLogger(logger),
			folio.WithStaticDir(serveStaticDir),
		)
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- app.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":3000", "listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "directory of JSON payloads (default: embedded data)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "public", "directory served under /public")
	serveCmd.Flags().StringVar(&serveAPIURL, "api-url", "", "remote data API base URL (enables remote mode)")
}
