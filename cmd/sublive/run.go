package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/internal/app"
	"github.com/sublive/sublive/pipeline"
	"github.com/sublive/sublive/server"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var target string
	var noCaptions bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start captioning and serve the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			if target != "" {
				cfg.TargetLanguage = target
			}

			a, err := app.Build(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if !noCaptions {
				a.Renderer.OnUpdate(printCaptions)
			}

			var srv *server.Server
			errCh := make(chan error, 1)
			if cfg.ListenAddr != "" {
				srv = server.New(cfg.ListenAddr, a.Pipeline)
				srv.Subscribe(a.Renderer)
				if feed, ok := a.Source.(*audiosource.MeetingFeed); ok {
					sess, err := audiosource.NewMeetingSession(feed)
					if err != nil {
						return fmt.Errorf("meeting session: %w", err)
					}
					defer sess.Close()
					srv.AttachMeeting(sess)
				}
				go func() { errCh <- srv.ListenAndServe() }()
			}

			if err := a.Pipeline.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case <-ctx.Done():
				slog.Info("shutting down")
			case err := <-errCh:
				if err != nil {
					slog.Error("control server failed", "error", err)
				}
			}

			if err := a.Pipeline.Stop(); err != nil && !errors.Is(err, pipeline.ErrNotRunning) {
				slog.Warn("pipeline stop", "error", err)
			}
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Warn("server shutdown", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target caption language (overrides config)")
	cmd.Flags().BoolVar(&noCaptions, "no-captions", false, "Do not print captions to the terminal")

	return cmd
}
