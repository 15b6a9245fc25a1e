package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Quick connectivity check for the engine's external collaborators.
// Usage: go run scripts/test.go

func main() {
	testRedis()
	testLedger()
}

func testRedis() {
	addr := os.Getenv("REDIS_ADDRESS")
	password := os.Getenv("REDIS_PASSWORD")

	if addr == "" {
		addr = "localhost:6379"
	}

	fmt.Println("=== Redis Connection Test ===")
	fmt.Printf("Address: %s\n", addr)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("✗ Ping failed: %v\n", err)
		return
	}
	fmt.Println("✓ Redis reachable")
}

func testLedger() {
	endpoint := os.Getenv("LEDGER_ENDPOINT")

	fmt.Println("=== Ledger Connection Test ===")
	if endpoint == "" {
		fmt.Println("LEDGER_ENDPOINT not set, skipping")
		return
	}
	fmt.Printf("Endpoint: %s\n", endpoint)

	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "get-version",
		"id":      1,
	})

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("✗ Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var decoded struct {
		Result struct {
			Version string `json:"version"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		fmt.Printf("✗ Bad response: %v\n", err)
		return
	}
	fmt.Printf("✓ Ledger reachable, version %s\n", decoded.Result.Version)
}
