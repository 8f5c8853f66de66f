package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"snappy-chat/domain"
	"snappy-chat/grpc/client"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	printer := Printer{colours: config.Colours}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Obtain a token over HTTP.
	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, err
	}

	// 4. Open the realtime channel.
	wsURL, err := websocketURL(config.ServerURL, config.Username, token)
	if err != nil {
		return exitConfig, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = ws.Close()
	}()

	// 5. Query channel for presence and history.
	conn, err := grpc.NewClient(config.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.GRPCAddr, err)
	}
	defer func() { _ = conn.Close() }()
	queries := client.NewPresenceClient(conn, token)

	fmt.Printf(">>> Connected as %s. Type @user message, /online, /history or /quit\n", config.Username)

	// 6. Reception loop.
	done := make(chan error, 1)
	go func() {
		for {
			_, payload, err := ws.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			line, logout := printer.Render(payload)
			fmt.Println(line)
			if logout {
				done <- nil
				return
			}
		}
	}()

	// 7. Prompt loop.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return exitOK, nil
		case err := <-done:
			if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, domain.CloseGoingAway) {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if quit := handle(ctx, ws, queries, config.Username, parseCommand(line)); quit {
				return exitOK, nil
			}
		}
	}
}

func handle(ctx context.Context, ws *websocket.Conn, queries *client.PresenceClient, username string, cmd command) bool {
	switch cmd.kind {
	case cmdSend:
		if err := ws.WriteJSON(domain.InboundFrame{To: cmd.to, Message: cmd.text}); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	case cmdOnline:
		users, err := queries.OnlineUsers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "online users: %v\n", err)
			return false
		}
		fmt.Println("online: " + strings.Join(users, ", "))
	case cmdHistory:
		history, err := queries.History(ctx, username)
		if err != nil {
			fmt.Fprintf(os.Stderr, "history: %v\n", err)
			return false
		}
		for _, m := range history {
			fmt.Printf("[%v] %v -> %v: %v\n", m["timestamp"], m["sender"], m["recipient"], m["message"])
		}
	case cmdInvalid:
		fmt.Println("usage: @user message | /online | /history | /quit")
	case cmdQuit:
		return true
	}
	return false
}

func login(ctx context.Context, config Config) (string, error) {
	body, err := json.Marshal(map[string]string{"username": config.Username, "password": config.Password})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, config.ServerURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	var payload struct {
		Token  string `json:"token"`
		Detail string `json:"detail"`
	}
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("unreadable login response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login refused: %s", payload.Detail)
	}
	return payload.Token, nil
}

// websocketURL maps http(s)://host to ws(s)://host/ws/{username}?token=...
func websocketURL(serverURL, username, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(username)
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
