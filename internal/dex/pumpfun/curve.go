// internal/dex/pumpfun/curve.go
package pumpfun

import (
	"bytes"
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/blockchain/solbc"
)

// ProgramID is the pump.fun bonding curve program.
var ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

// curveDiscriminator is the anchor account discriminator of BondingCurve.
var curveDiscriminator = []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}

const (
	curveSeed = "bonding-curve"

	// pump.fun mints carry 6 decimals.
	tokenUnitsPerWhole = 1_000_000
)

// CurveState mirrors the on-chain bonding curve account for one mint.
type CurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// DeriveCurveAddress computes the PDA holding mint's bonding curve state.
func DeriveCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(curveSeed), mint.Bytes()},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive bonding curve address: %w", err)
	}
	return addr, nil
}

// DecodeCurveState parses a raw bonding curve account.
func DecodeCurveState(data []byte) (*CurveState, error) {
	if len(data) < len(curveDiscriminator)+41 {
		return nil, fmt.Errorf("bonding curve data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(curveDiscriminator)], curveDiscriminator) {
		return nil, fmt.Errorf("not a bonding curve account")
	}

	var state CurveState
	if err := bin.NewBinDecoder(data[len(curveDiscriminator):]).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode bonding curve state: %w", err)
	}
	return &state, nil
}

// PriceSOL is the spot price in SOL per whole token, derived from the
// virtual reserves.
func (s *CurveState) PriceSOL() float64 {
	if s.VirtualTokenReserves == 0 {
		return 0
	}
	solReserves := float64(s.VirtualSolReserves) / float64(solana.LAMPORTS_PER_SOL)
	tokenReserves := float64(s.VirtualTokenReserves) / tokenUnitsPerWhole
	return solReserves / tokenReserves
}

// MarketCapSOL values the full token supply at the spot price.
func (s *CurveState) MarketCapSOL() float64 {
	return s.PriceSOL() * float64(s.TokenTotalSupply) / tokenUnitsPerWhole
}

// Reader fetches bonding curve state over RPC.
type Reader struct {
	chain  *solbc.Client
	logger *zap.Logger
}

func NewReader(chain *solbc.Client, logger *zap.Logger) *Reader {
	return &Reader{
		chain:  chain,
		logger: logger.Named("pumpfun"),
	}
}

// CurveFor reads and decodes mint's bonding curve account. A curve that
// does not exist yet surfaces as an account-not-found error, which the
// caller treats as a transient condition.
func (r *Reader) CurveFor(ctx context.Context, mint solana.PublicKey) (*CurveState, error) {
	addr, err := DeriveCurveAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := r.chain.AccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetch bonding curve %s: %w", addr, err)
	}

	state, err := DecodeCurveState(info.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	r.logger.Debug("bonding curve read",
		zap.String("mint", mint.String()),
		zap.Uint64("virtual_sol", state.VirtualSolReserves),
		zap.Uint64("virtual_tokens", state.VirtualTokenReserves),
		zap.Bool("complete", state.Complete))
	return state, nil
}
