package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"postcraft/internal/app"
	"postcraft/internal/server"
	"postcraft/pkg/config"

	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveDryRun bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve /generate_post and /generate_blog until interrupted.
Health and Prometheus metrics are exposed on /health and /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the configured port")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Answer with canned content instead of calling a provider")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveDryRun {
		useStubProvider()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if servePort != 0 {
		if servePort < 0 || servePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", servePort)
		}
		cfg.Server.Port = servePort
	}

	service, err := app.BuildService(ctx, cfg, app.BuildOptions{DryRun: serveDryRun})
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Server, cfg.LLM.Timeout, service.Pipeline(), service.Metrics())
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
