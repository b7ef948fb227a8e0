// In file: cmd/tutor/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
)

// main is the composition root. Any error, including a missing credential,
// ends the process with a non-zero status.
func main() {
	defer log.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tutor [question]",
		Short: "A tool-orchestrating learning assistant",
		Long: "tutor answers study questions by letting the model look up your knowledge level,\n" +
			"pick relevant course documents and compose a detailed answer.\n" +
			"With a question argument it answers once; otherwise it starts an interactive session.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sw := &streamWriter{w: cmd.OutOrStdout()}
			d, err := bootstrap(ctx, cfg, compose.WithChunkHandler(sw.write))
			if err != nil {
				return err
			}
			defer d.Close()

			if len(args) > 0 {
				return ask(ctx, d, sw, session.New("cli"), strings.Join(args, " "))
			}
			return runInteractive(ctx, d, sw, cmd.InOrStdin())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	root.AddCommand(newServeCmd(&configPath), newVersionCmd())
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve the director over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			info := GetBuildInfo()
			log.Infof("🚀 Starting tutor director | Version: %s | Commit: %s | Components: %s", info.Version, info.GitCommit, info.Components)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			registry := session.NewRegistry()
			go expireSessions(ctx, registry, cfg.SessionTTL)

			gin.SetMode(os.Getenv("GIN_MODE"))
			engine := gin.Default()
			NewDirectorHandler(d, registry).Register(engine)
			log.Infof("✅ All services initialized.")

			srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
			return runServerWithGracefulShutdown(ctx, srv)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and component versions",
		Run: func(cmd *cobra.Command, _ []string) {
			info := GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "tutor %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\ncomponents %s\n", info.GoVersion, info.Platform, info.Components)
		},
	}
}

// expireSessions drops idle sessions until ctx is done.
func expireSessions(ctx context.Context, registry *session.Registry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Expire(ttl); n > 0 {
				log.Infof("🧹 Expired %d idle sessions.", n)
			}
		}
	}
}

// runServerWithGracefulShutdown serves until ctx is cancelled, then drains
// in-flight requests.
func runServerWithGracefulShutdown(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("👂 Director is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Infof("👋 Server exited gracefully.")
	return nil
}
