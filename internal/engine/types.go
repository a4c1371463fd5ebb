// internal/engine/types.go
package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
)

// State identifies where a sell task currently is in its lifecycle.
// Progress is strictly forward except for two rebuild back-edges: a zero
// balance sends the task back through account search (the cached ref makes
// the hop free), and an ambiguous or rejected submission sends it back to a
// fresh balance read before any new quote.
type State int

const (
	StateSearchingAccount State = iota
	StateHasAccount
	StateHasBalance
	StateRouteReady
	StateSubmitted
	StateConfirmed
	StateFailed
	StateRetriesExhausted
)

func (s State) String() string {
	switch s {
	case StateSearchingAccount:
		return "searching_account"
	case StateHasAccount:
		return "has_account"
	case StateHasBalance:
		return "has_balance"
	case StateRouteReady:
		return "route_ready"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	case StateRetriesExhausted:
		return "retries_exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the task stops once it reaches this state.
// StateFailed is not terminal: a rejected submission sends the task back to
// a fresh balance read instead of ending it.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateRetriesExhausted
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := StateSearchingAccount; candidate <= StateRetriesExhausted; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown sell state: %q", name)
}

// Route is a sell path priced by the quote aggregator for one balance
// snapshot. QuoteResponse carries the aggregator's raw quote payload and is
// handed back verbatim when the swap transaction is built, so the engine
// never interprets routing internals.
type Route struct {
	InputMint     solana.PublicKey
	OutputMint    solana.PublicKey
	InAmount      uint64
	OutAmount     uint64
	SlippageBps   uint64
	QuoteResponse json.RawMessage
}

// TxState is the submission channel's view of a broadcast transaction.
type TxState int

const (
	TxPending TxState = iota
	TxConfirmed
	TxFinalized
	TxFailed
)

func (s TxState) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxFinalized:
		return "finalized"
	case TxFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TxStatus is one status poll result. Err carries the on-chain error text
// when State is TxFailed.
type TxStatus struct {
	State TxState
	Slot  uint64
	Err   string
}

// SellResult is the immutable outcome of one wallet's task, produced
// exactly once at termination.
type SellResult struct {
	WalletName        string        `json:"wallet_name"`
	WalletAddress     string        `json:"wallet_address"`
	Success           bool          `json:"success"`
	Signature         string        `json:"signature,omitempty"`
	Attempts          int           `json:"attempts"`
	TokensDetected    bool          `json:"tokens_detected"`
	RouteEverObtained bool          `json:"route_obtained"`
	FinalState        State         `json:"final_state"`
	Err               string        `json:"error,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// CSVHeaders returns the column set WriteRunReport and friends emit.
func CSVHeaders() []string {
	return []string{
		"wallet_name", "wallet_address", "success", "signature",
		"attempts", "tokens_detected", "route_obtained", "final_state",
		"error", "elapsed_ms",
	}
}

// CSVRow renders the result in CSVHeaders order.
func (r SellResult) CSVRow() []string {
	return []string{
		r.WalletName,
		r.WalletAddress,
		strconv.FormatBool(r.Success),
		r.Signature,
		strconv.Itoa(r.Attempts),
		strconv.FormatBool(r.TokensDetected),
		strconv.FormatBool(r.RouteEverObtained),
		r.FinalState.String(),
		r.Err,
		strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
	}
}

// RunSummary aggregates a whole run. TimeToFirstRoute stays zero when no
// task ever obtained a route.
type RunSummary struct {
	RunID            string        `json:"run_id"`
	Mint             string        `json:"mint"`
	StartedAt        time.Time     `json:"started_at"`
	Elapsed          time.Duration `json:"elapsed"`
	Successful       int           `json:"successful"`
	Failed           int           `json:"failed"`
	AvgAttempts      float64       `json:"avg_attempts"`
	TimeToFirstRoute time.Duration `json:"time_to_first_route"`
	Results          []SellResult  `json:"results"`
}

// AllSold reports whether every wallet in the run ended confirmed, which is
// the condition the fee-collection collaborator keys on.
func (s *RunSummary) AllSold() bool {
	return s.Successful > 0 && s.Failed == 0
}
