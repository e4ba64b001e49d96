package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-rift-portal/imagetools"
	"github.com/jrsteele09/go-rift-portal/internal/config"
	"github.com/jrsteele09/go-rift-portal/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errPanicRecovered = errors.New("panic recovered")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "portal",
		Short:         "Rift Portal web server and tool server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnv(envFile, cmd.Flags().Changed("env-file"))
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment overrides")

	rootCmd.AddCommand(serveCmd(), toolsCmd())
	return rootCmd
}

// loadEnv reads the .env file. A missing default file is fine, a missing explicit one is not.
func loadEnv(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web portal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for {
				err := run(cmd.Context())
				if errors.Is(err, errPanicRecovered) {
					log.Error().Err(err).Msg("Error running server, restarting")
					time.Sleep(1 * time.Second)
					continue
				}
				if err == nil {
					log.Info().Msg("Server stopped")
				}
				return err
			}
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Serve the note and image tools over MCP on stdin/stdout",
		RunE: func(*cobra.Command, []string) error {
			c := config.New()
			// stdout carries the protocol
			logging.InitWithWriter(os.Stderr, c.GetLogLevel(), c.GetLogFormat())

			unsplash := imagetools.NewUnsplash(c.GetUnsplashBaseURL(), c.GetUnsplashAccessKey(), c.GetUnsplashTimeout())
			tools := imagetools.NewDispatcher(imagetools.NewNoteStore(), unsplash)
			return imagetools.ServeStdio(imagetools.NewMCPServer(tools))
		},
	}
}

func run(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()
	c := config.New()
	logging.Init(c.GetLogLevel(), c.GetLogFormat())
	displayAppname(c.GetAppName())

	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("failed to release resources")
		}
	}()

	server := &http.Server{Addr: c.GetPort(), Handler: a.handler}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(server) }()

	if err := waitForStopSignal(errCh); err != nil {
		return err
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal returns nil on SIGINT/SIGTERM and the listener's error if it dies first
func waitForStopSignal(errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case <-stop:
		return nil
	case err := <-errCh:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
