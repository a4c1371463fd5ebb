// internal/engine/interfaces.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

// AccountScanner locates and reads the wallet-side token accounts the
// engine sells from.
type AccountScanner interface {
	// FindTokenAccount resolves the owner's token account for mint.
	// ok is false while no such account exists yet; that is not an error.
	FindTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (ref solana.PublicKey, ok bool, err error)

	// TokenBalance returns the raw token amount currently held by account.
	// A reference that no longer resolves reads as zero.
	TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// QuoteProvider prices a full-balance sell. A nil route with a nil error
// means the mint is not tradable yet; callers treat it as a normal
// not-ready signal rather than a failure.
type QuoteProvider interface {
	GetRoute(ctx context.Context, mint solana.PublicKey, rawAmount uint64) (*Route, error)
}

// SubmissionChannel builds, broadcasts and tracks sell transactions. The
// engine owns all retrying; implementations must not retry internally.
type SubmissionChannel interface {
	// Sign turns a route into a transaction signed by w.
	Sign(ctx context.Context, route *Route, w *wallet.Wallet) (*solana.Transaction, error)

	// Submit broadcasts the signed transaction and returns its signature.
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// Status reports what the chain currently knows about sig. A signature
	// the chain has not seen yet maps to TxPending.
	Status(ctx context.Context, sig solana.Signature) (TxStatus, error)
}
