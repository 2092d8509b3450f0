package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aviation_intel/pkg/core/config"
	"aviation_intel/pkg/core/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	p, err := pipeline.New(cfg)
	if err != nil {
		fmt.Printf("[FATAL] pipeline initialization failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Aviation Intelligence Brief starting...")
	result, err := p.Run(ctx)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	if !result.Collection.Succeeded() {
		fmt.Println("[FATAL] every source failed, no brief produced from live data")
		for _, e := range result.Collection.Errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	fmt.Printf("Brief %s complete:\n", result.RunID)
	for _, artifact := range result.Artifacts {
		fmt.Printf("  - %s\n", artifact)
	}
}
