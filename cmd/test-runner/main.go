// Package main - test-runner
// Runs the headless soak suite and exits non-zero when an invariant breaks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
	"github.com/MRamiBalles/ComfortBath/server/internal/soak"
)

func main() {
	count := flag.Int("seeds", 32, "Number of seeded games")
	first := flag.Uint64("first-seed", 1, "First seed")
	duration := flag.Float64("duration", 300, "Seconds of play per game")
	hz := flag.Int("hz", 60, "Simulated frame rate")
	verbose := flag.Bool("v", false, "Log every finished seed")
	flag.Parse()

	log := logger.Nop()
	if *verbose {
		log = logger.NewLogger()
	}

	seeds := make([]uint64, *count)
	for i := range seeds {
		seeds[i] = *first + uint64(i)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("COMFORT BATH - SOAK TEST SUITE")
	fmt.Println(strings.Repeat("=", 60))

	results, err := soak.Run(ctx, soak.Options{Seeds: seeds, Duration: *duration, FrameHz: *hz}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soak run aborted: %v\n", err)
		os.Exit(2)
	}

	passed, failed := 0, 0
	var longest float64
	for _, r := range results {
		longest = max(longest, r.Survived)
		if r.Passed() {
			passed++
			continue
		}
		failed++
		fmt.Printf("seed %d (run %s):\n", r.Seed, r.RunID)
		for _, v := range r.Violations {
			fmt.Printf("   %s\n", v)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)
	fmt.Printf("   Longest run: %.1fs\n", longest)

	if failed > 0 {
		os.Exit(1)
	}
}
