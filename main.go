package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shortland/backend/cmd/api"
)

func main() {
	fs := flag.NewFlagSet("shortland-api", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "Path to the YAML config file")
	port := fs.Int("port", 0, "HTTP port (overrides http.port from the config when set)")
	maxConc := fs.Int("max-concurrent", 50, "Maximum number of concurrent API requests")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	if *port < 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "Error: --port must be between 1 and 65535")
		fs.Usage()
		os.Exit(2)
	}
	if *maxConc <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be > 0")
		fs.Usage()
		os.Exit(2)
	}

	// create context cancelled on SIGINT/SIGTERM signals ensuring graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := api.Run(ctx, *configPath, *port, *maxConc); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
