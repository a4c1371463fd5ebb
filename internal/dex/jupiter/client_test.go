// internal/dex/jupiter/client_test.go
package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:             baseURL,
		SlippageBps:         250,
		PriorityFeeLamports: 10_000,
	}, zaptest.NewLogger(t))
}

func randomKey(t *testing.T) solana.PublicKey {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return pk.PublicKey()
}

func TestGetRouteParsesQuote(t *testing.T) {
	mint := randomKey(t)
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = map[string]string{
			"inputMint":   r.URL.Query().Get("inputMint"),
			"outputMint":  r.URL.Query().Get("outputMint"),
			"amount":      r.URL.Query().Get("amount"),
			"slippageBps": r.URL.Query().Get("slippageBps"),
			"swapMode":    r.URL.Query().Get("swapMode"),
		}
		fmt.Fprintf(w, `{"inputMint":%q,"outputMint":%q,"inAmount":"123456","outAmount":"654","routePlan":[{"percent":100}]}`,
			mint.String(), wsolMint)
	}))
	defer srv.Close()

	route, err := testClient(t, srv.URL).GetRoute(context.Background(), mint, 123456)
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, mint, route.InputMint)
	assert.Equal(t, solana.MustPublicKeyFromBase58(wsolMint), route.OutputMint)
	assert.Equal(t, uint64(123456), route.InAmount)
	assert.Equal(t, uint64(654), route.OutAmount)
	assert.Equal(t, uint64(250), route.SlippageBps)
	assert.Contains(t, string(route.QuoteResponse), "routePlan",
		"raw quote payload must be carried for the swap build")

	assert.Equal(t, mint.String(), gotQuery["inputMint"])
	assert.Equal(t, wsolMint, gotQuery["outputMint"])
	assert.Equal(t, "123456", gotQuery["amount"])
	assert.Equal(t, "250", gotQuery["slippageBps"])
	assert.Equal(t, "ExactIn", gotQuery["swapMode"])
}

func TestGetRouteNotTradableIsNilRoute(t *testing.T) {
	bodies := []struct {
		name   string
		status int
		body   string
	}{
		{"error coded 200", http.StatusOK, `{"errorCode":"COULD_NOT_FIND_ANY_ROUTE","error":"no route"}`},
		{"400 token not tradable", http.StatusBadRequest, `{"errorCode":"TOKEN_NOT_TRADABLE"}`},
		{"400 no route", http.StatusBadRequest, `{"error":"Could_not_find_any_route for mint"}`},
	}

	for _, tc := range bodies {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			route, err := testClient(t, srv.URL).GetRoute(context.Background(), randomKey(t), 1000)
			require.NoError(t, err)
			assert.Nil(t, route)
		})
	}
}

func TestGetRouteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"Rate limit exceeded"}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).GetRoute(context.Background(), randomKey(t), 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrRateLimited)
	assert.Equal(t, engine.ClassRateLimited, engine.Classify(err))
}

func TestGetRouteServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream broke")
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).GetRoute(context.Background(), randomKey(t), 1000)
	require.Error(t, err)
	assert.NotErrorIs(t, err, engine.ErrRateLimited)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestBuildSwapTransactionPostsQuoteBack(t *testing.T) {
	user := randomKey(t)
	rawTx := []byte{7, 7, 7, 1, 2, 3}
	quote := json.RawMessage(`{"inAmount":"5000","routePlan":[]}`)

	var gotReq swapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprintf(w, `{"swapTransaction":%q}`, base64.StdEncoding.EncodeToString(rawTx))
	}))
	defer srv.Close()

	route := &engine.Route{QuoteResponse: quote}
	got, err := testClient(t, srv.URL).BuildSwapTransaction(context.Background(), route, user)
	require.NoError(t, err)

	assert.Equal(t, rawTx, got)
	assert.JSONEq(t, string(quote), string(gotReq.QuoteResponse),
		"quote payload must be passed back verbatim")
	assert.Equal(t, user.String(), gotReq.UserPublicKey)
	assert.True(t, gotReq.WrapAndUnwrapSol)
	assert.Equal(t, uint64(10_000), gotReq.PrioritizationFeeLamports)
}

func TestBuildSwapTransactionRejectsEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).BuildSwapTransaction(context.Background(),
		&engine.Route{QuoteResponse: json.RawMessage(`{}`)}, randomKey(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing transaction")
}
