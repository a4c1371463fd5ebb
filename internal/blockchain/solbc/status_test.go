// internal/blockchain/solbc/status_test.go
package solbc

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
)

func TestMapSignatureStatus(t *testing.T) {
	tests := []struct {
		name   string
		status *rpc.SignatureStatusesResult
		want   engine.TxStatus
	}{
		{
			name:   "unseen signature is pending",
			status: nil,
			want:   engine.TxStatus{State: engine.TxPending},
		},
		{
			name:   "processed is still pending",
			status: &rpc.SignatureStatusesResult{Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			want:   engine.TxStatus{State: engine.TxPending, Slot: 10},
		},
		{
			name:   "confirmed",
			status: &rpc.SignatureStatusesResult{Slot: 11, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
			want:   engine.TxStatus{State: engine.TxConfirmed, Slot: 11},
		},
		{
			name:   "finalized",
			status: &rpc.SignatureStatusesResult{Slot: 12, ConfirmationStatus: rpc.ConfirmationStatusFinalized},
			want:   engine.TxStatus{State: engine.TxFinalized, Slot: 12},
		},
		{
			name: "on-chain error wins over confirmation status",
			status: &rpc.SignatureStatusesResult{
				Slot:               13,
				ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
				Err:                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			},
			want: engine.TxStatus{State: engine.TxFailed, Slot: 13, Err: "map[InstructionError:[0 Custom]]"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapSignatureStatus(tc.status))
		})
	}
}

func TestIsAccountNotFoundError(t *testing.T) {
	assert.False(t, IsAccountNotFoundError(nil))
	assert.True(t, IsAccountNotFoundError(ErrAccountNotFound))
	assert.True(t, IsAccountNotFoundError(rpc.ErrNotFound))
	assert.True(t, IsAccountNotFoundError(errors.New("rpc: could not find account GhZ9")))
	assert.False(t, IsAccountNotFoundError(assert.AnError))
}
