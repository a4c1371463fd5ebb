// internal/dex/jupiter/client.go
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
)

const (
	DefaultBaseURL     = "https://quote-api.jup.ag/v6"
	DefaultSlippageBps = 300

	wsolMint         = "So11111111111111111111111111111111111111112"
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20
)

// Config tunes the aggregator client. SlippageBps applies to every quote;
// PriorityFeeLamports is attached to every built swap, zero omits it.
type Config struct {
	BaseURL             string
	SlippageBps         uint64
	PriorityFeeLamports uint64
	Timeout             time.Duration
}

// Client talks to a Jupiter-compatible quote aggregator over HTTP. It
// never retries: a failed call goes straight back to the engine, which
// owns pacing and retry policy.
type Client struct {
	cfg    Config
	http   *http.Client
	output solana.PublicKey
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		output: solana.MustPublicKeyFromBase58(wsolMint),
		logger: logger.Named("jupiter"),
	}
}

// StatusError is a non-success aggregator response. 429s unwrap to the
// engine's rate-limit sentinel so classification stays typed.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("aggregator returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return engine.ErrRateLimited
	}
	return nil
}

type quoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	ErrorCode  string `json:"errorCode"`
	ErrorMsg   string `json:"error"`
}

// GetRoute prices selling rawAmount of mint into wrapped SOL. A nil route
// with a nil error means the aggregator knows no path yet, which is the
// normal answer until the token's first liquidity lands.
func (c *Client) GetRoute(ctx context.Context, mint solana.PublicKey, rawAmount uint64) (*engine.Route, error) {
	reqURL := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d&swapMode=ExactIn",
		c.cfg.BaseURL, mint.String(), c.output.String(), rawAmount, c.cfg.SlippageBps)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read quote response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusBadRequest && isNoRouteBody(body) {
			c.logger.Debug("no route for mint yet", zap.String("mint", mint.String()))
			return nil, nil
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	if quote.ErrorCode != "" || quote.ErrorMsg != "" {
		c.logger.Debug("quote carries error code",
			zap.String("mint", mint.String()),
			zap.String("code", quote.ErrorCode))
		return nil, nil
	}

	inAmount, err := strconv.ParseUint(quote.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid inAmount %q in quote", quote.InAmount)
	}
	outAmount, err := strconv.ParseUint(quote.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid outAmount %q in quote", quote.OutAmount)
	}

	return &engine.Route{
		InputMint:     mint,
		OutputMint:    c.output,
		InAmount:      inAmount,
		OutAmount:     outAmount,
		SlippageBps:   c.cfg.SlippageBps,
		QuoteResponse: json.RawMessage(body),
	}, nil
}

func isNoRouteBody(body []byte) bool {
	s := strings.ToUpper(string(body))
	return strings.Contains(s, "COULD_NOT_FIND_ANY_ROUTE") ||
		strings.Contains(s, "TOKEN_NOT_TRADABLE") ||
		strings.Contains(s, "NO_ROUTES_FOUND")
}

type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports uint64          `json:"prioritizationFeeLamports,omitempty"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwapTransaction asks the aggregator to compile route into an
// unsigned transaction for user, returning the raw serialized bytes.
func (c *Client) BuildSwapTransaction(ctx context.Context, route *engine.Route, user solana.PublicKey) ([]byte, error) {
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:             route.QuoteResponse,
		UserPublicKey:             user.String(),
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: c.cfg.PriorityFeeLamports,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("swap request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read swap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var swap swapResponse
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	if swap.SwapTransaction == "" {
		return nil, errors.New("swap response missing transaction")
	}

	raw, err := base64.StdEncoding.DecodeString(swap.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ engine.QuoteProvider = (*Client)(nil)
