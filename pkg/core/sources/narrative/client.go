// Package narrative implements the adapter and normalizer for the streaming
// question-answering service. One websocket session carries one query: the
// client sends a single query frame and consumes text/sources frames until a
// terminator, an error frame, or the per-query timeout.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"aviation_intel/pkg/core/retry"
)

const (
	defaultQueryTimeout = 120 * time.Second
	pingInterval        = 20 * time.Second
	pingTimeout         = 10 * time.Second
	closeTimeout        = 10 * time.Second
)

// Config holds the connection settings for the narrative service.
type Config struct {
	URL          string // websocket endpoint
	Token        string // bearer token
	QueryTimeout time.Duration
}

// Client owns the wire-level interaction with the narrative service.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
}

// NewClient builds a client. The zero QueryTimeout selects the 120s default.
func NewClient(cfg Config) *Client {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	return &Client{cfg: cfg, dialer: websocket.DefaultDialer}
}

// Configured reports whether the required credential is present. An
// unconfigured client reports so to the orchestrator instead of failing the
// run.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.Token != ""
}

// queryFrame is the single upstream frame per session.
type queryFrame struct {
	Type           string  `json:"type"`
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	ConversationID string  `json:"conversation_id"`
	MaxResults     int     `json:"max_results"`
	MinScore       float64 `json:"min_score"`
}

// downstreamFrame covers every frame shape the service sends.
type downstreamFrame struct {
	Type    string                   `json:"type"`
	Content string                   `json:"content"`
	Sources []map[string]interface{} `json:"sources"`
	Message string                   `json:"message"`
}

// Response is the adapter-neutral result of one streamed query.
type Response struct {
	Content    string
	Sources    []map[string]interface{}
	Confidence float64 // adapter-side quality contribution, capped at 1.0
	Category   string
}

// QueryParams parameterizes one streamed query.
type QueryParams struct {
	Message        string
	UserID         string
	ConversationID string
	MaxResults     int
	MinScore       float64
	Category       string
}

// Query runs the full streaming protocol for one query, retrying transients
// under the narrative policy (5 attempts).
func (c *Client) Query(ctx context.Context, params QueryParams) (*Response, error) {
	if !c.Configured() {
		return nil, retry.Unconfigured("narrative")
	}
	return retry.Do(ctx, retry.NarrativePolicy, func(ctx context.Context) (*Response, error) {
		return c.queryOnce(ctx, params)
	})
}

// queryOnce is one attempt of the Sending -> Receiving -> Done|Error|Timeout
// state machine.
func (c *Client) queryOnce(ctx context.Context, params QueryParams) (*Response, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)
	header.Set("X-API-Key", c.cfg.Token)

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("narrative dial failed: %w", err))
	}
	defer closeSession(conn)

	// Keepalive: ping every 20s, expect pong within 10s.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.QueryTimeout))
	})
	stopPings := make(chan struct{})
	defer close(stopPings)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingTimeout))
			case <-stopPings:
				return
			}
		}
	}()

	frame := queryFrame{
		Type:           "query",
		Message:        params.Message,
		UserID:         params.UserID,
		ConversationID: params.ConversationID,
		MaxResults:     params.MaxResults,
		MinScore:       params.MinScore,
	}
	if frame.MaxResults == 0 {
		frame.MaxResults = 10
	}
	if err := conn.WriteJSON(frame); err != nil {
		return nil, retry.Transient(fmt.Errorf("narrative send failed: %w", err))
	}

	// Cancellation closes the session so the blocked read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var buf strings.Builder
	var sources []map[string]interface{}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.QueryTimeout)); err != nil {
			return nil, retry.Transient(err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, retry.Transient(fmt.Errorf("narrative stream read failed: %w", err))
		}

		var f downstreamFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			// Malformed frame: log and keep consuming the stream.
			fmt.Printf("[NARRATIVE] skipping malformed frame: %v\n", err)
			continue
		}

		switch f.Type {
		case "text", "chunk", "delta":
			buf.WriteString(f.Content)
		case "sources":
			sources = append(sources, f.Sources...)
		case "done", "complete":
			resp := &Response{
				Content:  buf.String(),
				Sources:  sources,
				Category: params.Category,
			}
			resp.Confidence = responseConfidence(resp.Content, sources)
			return resp, nil
		case "error":
			return nil, retry.Transient(fmt.Errorf("narrative service error: %s", f.Message))
		}
	}
}

// closeSession performs a clean close, giving the peer the close timeout to
// acknowledge before tearing down the connection.
func closeSession(conn *websocket.Conn) {
	deadline := time.Now().Add(closeTimeout)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	conn.Close()
}

var (
	structuralMarkerRe = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+\.)\s`)
	qualityLexemes     = []string{"forecast", "analysis", "according to", "data", "reported", "estimate"}
)

// responseConfidence scores one streamed response: length tier, provenance
// presence, structural markers and quality lexemes, capped at 1.0. Computed
// once at the terminator.
func responseConfidence(content string, sources []map[string]interface{}) float64 {
	var score float64

	switch n := len(content); {
	case n > 1000:
		score += 0.4
	case n > 300:
		score += 0.3
	case n > 100:
		score += 0.2
	case n > 0:
		score += 0.1
	}

	if len(sources) > 0 {
		score += 0.3
	}
	if structuralMarkerRe.MatchString(content) {
		score += 0.15
	}

	lower := strings.ToLower(content)
	for _, lex := range qualityLexemes {
		if strings.Contains(lower, lex) {
			score += 0.15
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
