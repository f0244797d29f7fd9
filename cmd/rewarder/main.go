package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/bridge-rewarder/pkg/app"
	"github.com/chainsafe/bridge-rewarder/pkg/app/rewarder"
	"github.com/chainsafe/bridge-rewarder/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	runRewarder := flag.Bool("rewarder", true, "Scan bridge deposits and send rewards")
	runDashboard := flag.Bool("dashboard", true, "Serve the read-only dashboard API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = rewarder.NewServer(cfg, rewarder.Options{
		Rewarder:  *runRewarder,
		Dashboard: *runDashboard,
	})
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Rewarder failed: %v\n", err)
		os.Exit(1)
	}
}
