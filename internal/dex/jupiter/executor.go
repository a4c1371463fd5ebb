// internal/dex/jupiter/executor.go
package jupiter

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/blockchain/solbc"
	"github.com/yaxeku/pumpfun-bundler/internal/engine"
	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

// ChainRPC is the slice of the RPC adapter the executor needs.
type ChainRPC interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
}

// Executor is the engine's submission channel: swap transactions are
// compiled by the aggregator, signed locally and broadcast over the chain
// RPC adapter. Signing never leaves the process; the aggregator only ever
// sees public keys.
type Executor struct {
	api    *Client
	chain  ChainRPC
	logger *zap.Logger
}

func NewExecutor(api *Client, chain ChainRPC, logger *zap.Logger) *Executor {
	return &Executor{
		api:    api,
		chain:  chain,
		logger: logger.Named("executor"),
	}
}

// Sign compiles route into a transaction for w and signs it with w's key.
func (e *Executor) Sign(ctx context.Context, route *engine.Route, w *wallet.Wallet) (*solana.Transaction, error) {
	raw, err := e.api.BuildSwapTransaction(ctx, route, w.PublicKey)
	if err != nil {
		return nil, err
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("parse swap transaction: %w", err)
	}
	if err := w.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("sign swap transaction: %w", err)
	}
	return tx, nil
}

// Submit broadcasts tx exactly once.
func (e *Executor) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return e.chain.SendTransaction(ctx, tx)
}

// Status reports the chain's current view of sig.
func (e *Executor) Status(ctx context.Context, sig solana.Signature) (engine.TxStatus, error) {
	status, err := e.chain.SignatureStatus(ctx, sig)
	if err != nil {
		return engine.TxStatus{}, err
	}
	return solbc.MapSignatureStatus(status), nil
}

var _ engine.SubmissionChannel = (*Executor)(nil)
