package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/httpstub/httpstub/pkg/config"
	"github.com/httpstub/httpstub/pkg/logging"
	"github.com/httpstub/httpstub/pkg/server"
)

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	configPath string
	port       int
	logLevel   string
	logJSON    bool
	printURL   bool
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a stub collection until interrupted",
		Example: `  # Serve stubs from a collection file on a fixed port
  httpstub serve --config stubs.yaml --port 8099

  # Auto-assign a port and print the URL
  httpstub serve --config stubs.yaml --print-url`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to stub collection file (YAML or JSON)")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to bind (0 = OS auto-assign)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.logJSON, "log-json", false, "Emit JSON logs")
	cmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")

	return cmd
}

func runServe(f serveFlags) error {
	log := logging.New(logging.Options{
		Level: logging.ParseLevel(f.logLevel),
		JSON:  f.logJSON,
	})

	srv, err := server.NewWithPort(f.port, server.WithLogger(log))
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	if f.configPath != "" {
		collection, err := config.LoadFromFile(f.configPath)
		if err != nil {
			srv.Close()
			return err
		}
		if err := collection.Apply(srv); err != nil {
			srv.Close()
			return err
		}
		log.Info("stub collection applied", "path", f.configPath, "stubs", len(collection.Stubs))
	}

	if f.printURL {
		fmt.Println(srv.Addr())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	srv.Close()
	return nil
}
