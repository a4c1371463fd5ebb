// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
)

// Client is a thin adapter over the Solana JSON-RPC API. It does no
// retrying of its own; the engine owns all retry policy.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

var (
	ErrAccountNotFound = errors.New("account not found")
)

// IsAccountNotFoundError reports whether err describes a missing account.
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "could not find")
}

// NewClient builds a client for the given RPC endpoint.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solbc-client"),
	}
}

// FindTokenAccount resolves the owner's token account holding mint. It
// reads at processed commitment so freshly created accounts show up as
// early as possible. ok is false while no account exists yet.
func (c *Client) FindTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	result, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentProcessed,
			Encoding:   solana.EncodingBase64,
		})
	if err != nil {
		c.logger.Debug("GetTokenAccountsByOwner error",
			zap.String("owner", owner.String()),
			zap.Error(err))
		return solana.PublicKey{}, false, err
	}
	if result == nil || len(result.Value) == 0 {
		return solana.PublicKey{}, false, nil
	}
	return result.Value[0].Pubkey, true, nil
}

// TokenBalance returns the raw token amount held by account. Processed
// commitment is tried first and falls back to confirmed, since some RPC
// nodes lag on processed reads. An account that no longer exists reads as
// zero: a drained and closed account is an empty one.
func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentProcessed)
	if err != nil || result == nil || result.Value == nil {
		result, err = c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	}
	if err != nil {
		if IsAccountNotFoundError(err) {
			return 0, nil
		}
		c.logger.Debug("GetTokenAccountBalance error",
			zap.String("account", account.String()),
			zap.Error(err))
		return 0, err
	}
	if result == nil || result.Value == nil {
		return 0, nil
	}
	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, errors.New("invalid token amount in RPC response")
	}
	return amount, nil
}

// AccountInfo fetches raw account data. Missing accounts map onto
// ErrAccountNotFound so callers can treat them as a not-ready condition.
func (c *Client) AccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, ErrAccountNotFound
	}
	return result, nil
}

// SendTransaction broadcasts tx. Preflight is skipped and provider-side
// resends are disabled: failed sends come back to the engine, which
// decides what happens next.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(0)
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		c.logger.Debug("SendTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// SignatureStatus fetches what the cluster knows about sig. The returned
// status is nil while the transaction has not been seen yet.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		c.logger.Debug("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	if result == nil || len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}

// Balance returns the account's lamport balance.
func (c *Client) Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// Compile-time check that the client satisfies the engine's scanner side.
var _ engine.AccountScanner = (*Client)(nil)
