package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latestcomment/go-ai-debate/internal/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.store.Close()

	app := handlers.NewApp(handlers.AppOptions{
		Debates:         d.debates,
		Watch:           d.watch,
		Logger:          d.logger,
		RateLimitMax:    d.cfg.RateLimitMax,
		RateLimitWindow: d.cfg.RateLimitWindow,
		AccessLog:       true,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		d.logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	d.logger.Info("api listening", "port", d.cfg.Port, "safety_rewrite", d.cfg.RewriteEnabled())
	return app.Listen(d.cfg.Addr())
}
