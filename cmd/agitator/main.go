// Package main - agitator
// Load generator: N concurrent bath sessions pressing random buttons.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	StatesReceived   int64
	RunsFailed       int64
	ServerErrors     int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

// Buttons pressed while a run is playing.
var playActions = []string{"TEMP_UP", "TEMP_DOWN", "CENTER"}

type serverMessage struct {
	Type  string `json:"type"`
	State *struct {
		GameStatus string `json:"game_status"`
	} `json:"state"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent sessions")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per session")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	output := flag.String("out", "stress_test_results.json", "Results file, empty to skip")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - bath session load test")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup
	fmt.Println("\nStarting clients...")
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%d recv=%d states=%d errors=%d\n",
					atomic.LoadInt64(&stats.MessagesSent),
					atomic.LoadInt64(&stats.MessagesReceived),
					atomic.LoadInt64(&stats.StatesReceived),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// The receiver flags failed runs so the sender restarts them.
	var run runFlags
	run.needsStart.Store(true)
	go func() {
		last := ""
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			dec := json.NewDecoder(bytes.NewReader(data))
			for dec.More() {
				var msg serverMessage
				if err := dec.Decode(&msg); err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					break
				}
				switch {
				case msg.Type == "ERROR":
					atomic.AddInt64(&stats.ServerErrors, 1)
				case msg.State != nil:
					atomic.AddInt64(&stats.StatesReceived, 1)
					if msg.State.GameStatus == "failure" && last != "failure" {
						atomic.AddInt64(&stats.RunsFailed, 1)
						run.needsReset.Store(true)
					}
					last = msg.State.GameStatus
				}
			}
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action := run.next()
			start := time.Now()
			if err := conn.WriteJSON(map[string]string{"type": action}); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

type runFlags struct {
	needsReset atomic.Bool
	needsStart atomic.Bool
}

// next restarts a failed run with RESET then START, otherwise presses a random button.
func (f *runFlags) next() string {
	if f.needsReset.Load() {
		f.needsStart.Store(true)
		f.needsReset.Store(false)
		return "RESET"
	}
	if f.needsStart.CompareAndSwap(true, false) {
		return "START"
	}
	return playActions[rand.IntN(len(playActions))]
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	states := atomic.LoadInt64(&stats.StatesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("State Snapshots:   %d\n", states)
	fmt.Printf("Runs Failed:       %d\n", atomic.LoadInt64(&stats.RunsFailed))
	fmt.Printf("Server Errors:     %d\n", atomic.LoadInt64(&stats.ServerErrors))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		lo, hi := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", lo)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("  Max: %v\n", hi)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0 && states > 0:
		fmt.Println("TEST PASSED: sessions kept streaming state")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("TEST WARNING: some errors detected")
	default:
		fmt.Println("TEST FAILED: high error rate")
	}
	fmt.Println("=========================================")

	if config.Output == "" {
		return
	}
	results := map[string]any{
		"messages_sent":      sent,
		"messages_received":  recv,
		"states_received":    states,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]any{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("failed to write %s: %v", config.Output, err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
