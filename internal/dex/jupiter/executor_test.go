// internal/dex/jupiter/executor_test.go
package jupiter

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

type fakeChain struct {
	sentTxs   []*solana.Transaction
	sendErr   error
	status    *rpc.SignatureStatusesResult
	statusErr error
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.sentTxs = append(f.sentTxs, tx)
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	var sig solana.Signature
	sig[0] = byte(len(f.sentTxs))
	return sig, nil
}

func (f *fakeChain) SignatureStatus(_ context.Context, _ solana.Signature) (*rpc.SignatureStatusesResult, error) {
	return f.status, f.statusErr
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return &wallet.Wallet{
		Name:       "signer",
		Role:       wallet.RoleHolder,
		Eligible:   true,
		PrivateKey: pk,
		PublicKey:  pk.PublicKey(),
	}
}

// serializedTransferTx builds a minimal unsigned transaction paying from
// payer, serialized the way an aggregator swap endpoint would return it.
func serializedTransferTx(t *testing.T, payer solana.PublicKey) []byte {
	t.Helper()
	var blockhash solana.Hash
	blockhash[0] = 9
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, payer).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestExecutorSignProducesSignedTransaction(t *testing.T) {
	w := testWallet(t)
	raw := serializedTransferTx(t, w.PublicKey)

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(rw, `{"swapTransaction":%q}`, base64.StdEncoding.EncodeToString(raw))
	}))
	defer srv.Close()

	exec := NewExecutor(testClient(t, srv.URL), &fakeChain{}, zaptest.NewLogger(t))
	tx, err := exec.Sign(context.Background(), &engine.Route{QuoteResponse: []byte(`{}`)}, w)
	require.NoError(t, err)
	require.NotNil(t, tx)

	require.Len(t, tx.Signatures, 1)
	assert.NotEqual(t, solana.Signature{}, tx.Signatures[0], "transaction must carry a real signature")
}

func TestExecutorSignRejectsGarbagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(rw, `{"swapTransaction":%q}`, base64.StdEncoding.EncodeToString([]byte("not a transaction")))
	}))
	defer srv.Close()

	exec := NewExecutor(testClient(t, srv.URL), &fakeChain{}, zaptest.NewLogger(t))
	_, err := exec.Sign(context.Background(), &engine.Route{QuoteResponse: []byte(`{}`)}, testWallet(t))
	require.Error(t, err)
}

func TestExecutorSubmitDelegatesToChain(t *testing.T) {
	chain := &fakeChain{}
	exec := NewExecutor(testClient(t, "http://unused"), chain, zaptest.NewLogger(t))

	sig, err := exec.Submit(context.Background(), &solana.Transaction{})
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.Len(t, chain.sentTxs, 1)
}

func TestExecutorStatusMapsChainView(t *testing.T) {
	chain := &fakeChain{
		status: &rpc.SignatureStatusesResult{
			Slot:               77,
			ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		},
	}
	exec := NewExecutor(testClient(t, "http://unused"), chain, zaptest.NewLogger(t))

	st, err := exec.Status(context.Background(), solana.Signature{})
	require.NoError(t, err)
	assert.Equal(t, engine.TxStatus{State: engine.TxConfirmed, Slot: 77}, st)

	chain.status = nil
	st, err = exec.Status(context.Background(), solana.Signature{})
	require.NoError(t, err)
	assert.Equal(t, engine.TxPending, st.State)

	chain.statusErr = assert.AnError
	_, err = exec.Status(context.Background(), solana.Signature{})
	assert.Error(t, err)
}
