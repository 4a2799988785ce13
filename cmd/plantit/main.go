package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/plantit/internal/config"
	"github.com/zeusync/plantit/internal/injector"
)

func main() {
	var configPath, dataPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&dataPath, "data", "", "snapshot file (overrides config, .yaml selects YAML)")
	flag.Parse()

	cfg, err := config.Load(configPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shell, cleanup, err := injector.InitializeApp(cfg, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer cleanup()

	if err = shell.Start(ctx); err != nil {
		return err
	}
	return shell.Run(ctx)
}
