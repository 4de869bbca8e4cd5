// Package main connects to the activity feed websocket and prints events.
// With -clients > 1 it opens that many connections and reports counts instead.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks connection and message counts across clients.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	MessagesReceived     int64
	Errors               int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "root@devconnect.local", "User email")
	password := flag.String("password", "password123", "User password")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	flag.Parse()

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s", *email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})
	verbose := *clients == 1

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, verbose, stopChan, &wg)
		if *clients > 1 {
			time.Sleep(20 * time.Millisecond)
		}
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
		log.Println("Duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stopChan)
	wg.Wait()

	if !verbose {
		printMetrics()
	}
}

func postJSON(u, token string, payload any, out any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, u, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("auth-token", token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(host, email, password string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/v1/auth", host), "",
		map[string]string{"email": email, "password": password}, &result)
	return result.Token, err
}

func getTicket(host, token string) (string, error) {
	var result struct {
		Ticket string `json:"ticket"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/v1/ws/ticket", host), token, nil, &result)
	return result.Ticket, err
}

func runClient(host, token string, id int, verbose bool, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	// Tickets are single use, so each connection needs its own.
	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		log.Printf("[client %d] ticket: %v", id, err)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/v1/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		log.Printf("[client %d] dial: %v", id, err)
		return
	}
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					atomic.AddInt64(&metrics.Errors, 1)
				}
				return
			}
			atomic.AddInt64(&metrics.MessagesReceived, 1)
			if verbose {
				printEvent(msg)
			}
		}
	}()

	select {
	case <-stopChan:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func printEvent(msg []byte) {
	var ev struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type == "" {
		fmt.Println(string(msg))
		return
	}
	fmt.Printf("%s %-16s %s\n", time.Now().Format(time.TimeOnly), ev.Type, ev.Payload)
}

func printMetrics() {
	fmt.Println("Results")
	fmt.Println("-------")
	fmt.Printf("Connections attempted: %d\n", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	fmt.Printf("Connections succeeded: %d\n", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	fmt.Printf("Connections failed:    %d\n", atomic.LoadInt64(&metrics.ConnectionsFailed))
	fmt.Printf("Messages received:     %d\n", atomic.LoadInt64(&metrics.MessagesReceived))
	fmt.Printf("Errors:                %d\n", atomic.LoadInt64(&metrics.Errors))
}
