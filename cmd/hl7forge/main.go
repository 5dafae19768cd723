package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hl7forge/hl7forge/internal/config"
	"github.com/hl7forge/hl7forge/internal/job"
	"github.com/hl7forge/hl7forge/internal/platform/hl7v2"
	"github.com/hl7forge/hl7forge/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hl7forge",
		Short:         "HL7 v2.x message generator and parser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger; development gets console output.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

// execute runs one job request through the envelope and exits with the
// terminal status. Notifications go to stdout, logs to stderr.
func execute(req *job.Request) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	runner := job.NewRunner(cfg, hl7v2.NewGenerator(hl7v2.NewSynth()), logger)
	status := runner.Run(req, job.NewNotifier(os.Stdout))
	if status != 0 {
		os.Exit(status)
	}
	return nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [job-file]",
		Short: "Execute a JSON or YAML job description (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				req *job.Request
				err error
			)
			if len(args) == 1 {
				req, err = job.Load(args[0])
			} else {
				req, err = job.Read(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			return execute(req)
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one HL7 message",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgType, _ := cmd.Flags().GetString("type")
			event, _ := cmd.Flags().GetString("event")
			out, _ := cmd.Flags().GetString("out")
			sets, _ := cmd.Flags().GetStringArray("set")

			params := map[string]string{
				"messageType": msgType,
				"eventType":   event,
			}
			for _, kv := range sets {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set expects key=value, got %q", kv)
				}
				params[k] = v
			}

			return execute(&job.Request{
				Tool:    job.ToolGenerator,
				Params:  params,
				WorkDir: out,
			})
		},
	}
	cmd.Flags().String("type", "ADT", "Message type (ADT, ORM, ORU, SIU, RDE, MDM, DFT, VXU)")
	cmd.Flags().String("event", "", "Event type; the type's default when empty")
	cmd.Flags().String("out", "", "Output directory for the message file (WORK_DIR when empty)")
	cmd.Flags().StringArray("set", nil, "Explicit field value as name=value; value 'random' forces a draw")
	return cmd
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse and validate one HL7 message",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			message, _ := cmd.Flags().GetString("message")
			if file == "" && message == "" {
				return fmt.Errorf("either --file or --message is required")
			}

			params := map[string]string{}
			if message != "" {
				params["message"] = message
			} else {
				params["file"] = file
			}

			return execute(&job.Request{Tool: job.ToolParser, Params: params})
		},
	}
	cmd.Flags().String("file", "", "Path to a message file")
	cmd.Flags().String("message", "", "Inline message text")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the codec over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	apiV1 := e.Group("/api/v1")
	handler := hl7v2.NewHandler(hl7v2.NewGenerator(hl7v2.NewSynth()))
	handler.RegisterRoutes(apiV1)

	// Start with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
