// internal/blockchain/solbc/status.go
package solbc

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
)

// MapSignatureStatus translates a raw RPC signature status into the
// engine's view. A nil status means the cluster has not seen the
// transaction yet, which is still pending from the engine's perspective.
func MapSignatureStatus(status *rpc.SignatureStatusesResult) engine.TxStatus {
	if status == nil {
		return engine.TxStatus{State: engine.TxPending}
	}
	if status.Err != nil {
		return engine.TxStatus{
			State: engine.TxFailed,
			Slot:  status.Slot,
			Err:   fmt.Sprintf("%v", status.Err),
		}
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return engine.TxStatus{State: engine.TxFinalized, Slot: status.Slot}
	case rpc.ConfirmationStatusConfirmed:
		return engine.TxStatus{State: engine.TxConfirmed, Slot: status.Slot}
	default:
		return engine.TxStatus{State: engine.TxPending, Slot: status.Slot}
	}
}
