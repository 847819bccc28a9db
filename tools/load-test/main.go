package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Fires n simultaneous check-ins for one employee. The service must accept
// exactly one of them, whatever the interleaving.
func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	token := flag.String("token", "", "bearer token of the employee (or use -email/-password)")
	email := flag.String("email", "", "login email used to obtain a token")
	password := flag.String("password", "", "login password used to obtain a token")
	typ := flag.String("type", "in", "attendance type to submit: in or out")
	n := flag.Int("n", 50, "number of simultaneous requests")
	flag.Parse()

	if *token == "" && *email != "" {
		t, err := login(*baseURL, *email, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		*token = t
	}
	if *token == "" {
		fmt.Fprintln(os.Stderr, "either -token or -email/-password is required")
		os.Exit(2)
	}

	url := *baseURL + "/attendance"
	payload := []byte(fmt.Sprintf(`{"type": %q}`, *typ))
	fmt.Printf("Starting load test: %d concurrent '%s' requests to %s\n", *n, *typ, url)

	var wg sync.WaitGroup
	start := make(chan struct{})

	var successCount, rejectedCount, failCount int64
	var statuses sync.Map

	for i := 0; i < *n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start // release every request at once

			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+*token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return
			}
			defer resp.Body.Close()

			counter, _ := statuses.LoadOrStore(resp.StatusCode, new(int64))
			atomic.AddInt64(counter.(*int64), 1)

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				atomic.AddInt64(&successCount, 1)
			case resp.StatusCode == http.StatusBadRequest:
				atomic.AddInt64(&rejectedCount, 1)
			default:
				atomic.AddInt64(&failCount, 1)
			}
		}()
	}

	startTime := time.Now()
	close(start)
	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", *n)
	fmt.Printf("Accepted:       %d\n", successCount)
	fmt.Printf("Rejected (400): %d\n", rejectedCount)
	fmt.Printf("Failed:         %d\n", failCount)
	statuses.Range(func(k, v any) bool {
		fmt.Printf("  HTTP %d: %d\n", k, atomic.LoadInt64(v.(*int64)))
		return true
	})

	if successCount > 1 {
		fmt.Println("FAIL: more than one request was accepted for the same day")
		os.Exit(1)
	}
}

func login(baseURL, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Data.AccessToken, nil
}
