package rpc

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ergoprover/pkg/core"
	"ergoprover/pkg/crypto"
	"ergoprover/pkg/prover"
	"ergoprover/pkg/sigma"
	"ergoprover/pkg/state"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *JSONRPCError   `json:"error"`
}

func setupServer(t *testing.T) (*prover.Prover, *httptest.Server) {
	cfg := core.DefaultConfig()
	cfg.Network = "testnet"
	p, err := prover.NewBuilder(cfg).WithMnemonic(testMnemonic, "").Build()
	require.NoError(t, err)
	t.Cleanup(p.Close)

	srv := httptest.NewServer(NewServer(p, prover.VerifyTransaction, "").Handler())
	t.Cleanup(srv.Close)
	return p, srv
}

func call(t *testing.T, url, method string, params interface{}) rpcResponse {
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(JSONRPCRequest{JSONRPC: "2.0", Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func spendTx(t *testing.T, guard *sigma.Proposition) *state.UnsignedTransaction {
	x, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	var id state.BoxID
	_, err = rand.Read(id[:])
	require.NoError(t, err)
	return &state.UnsignedTransaction{
		Inputs:  []state.InputBox{{BoxID: id, Value: 2_000_000, Guard: guard}},
		Outputs: []state.Output{{Value: 2_000_000, Guard: sigma.ProveDlog(crypto.BaseMul(x)), CreationHeight: 1}},
	}
}

func TestAddressMethod(t *testing.T) {
	p, srv := setupServer(t)

	resp := call(t, srv.URL, "prover_address", []interface{}{})
	require.Nil(t, resp.Error)
	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, p.Address(), result["address"])
}

func TestSignAndVerifyMethods(t *testing.T) {
	p, srv := setupServer(t)
	tx := spendTx(t, sigma.ProveDlog(p.PublicKeys()[0]))

	resp := call(t, srv.URL, "prover_sign", []SignParams{{Transaction: tx}})
	require.Nil(t, resp.Error)
	var signed state.SignedTransaction
	require.NoError(t, json.Unmarshal(resp.Result, &signed))
	require.Len(t, signed.Inputs, 1)
	assert.Equal(t, tx.Inputs[0].BoxID, signed.Inputs[0].BoxID)

	resp = call(t, srv.URL, "prover_verify", []VerifyParams{{Transaction: tx, Signed: &signed}})
	require.Nil(t, resp.Error)
	var verdict map[string]bool
	require.NoError(t, json.Unmarshal(resp.Result, &verdict))
	assert.True(t, verdict["valid"])
}

func TestSignErrors(t *testing.T) {
	p, srv := setupServer(t)

	x, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	foreign := spendTx(t, sigma.ProveDlog(crypto.BaseMul(x)))
	resp := call(t, srv.URL, "prover_sign", []SignParams{{Transaction: foreign}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnsatisfiable, resp.Error.Code)

	tx := spendTx(t, sigma.ProveDlog(p.PublicKeys()[0]))
	resp = call(t, srv.URL, "prover_sign", []SignParams{{Transaction: tx, BaseCost: core.DefaultConfig().MaxBlockCost}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCostLimit, resp.Error.Code)

	resp = call(t, srv.URL, "prover_sign", []interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	_, srv := setupServer(t)

	resp := call(t, srv.URL, "prover_broadcast", []interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestRejectsGet(t *testing.T) {
	_, srv := setupServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStartStop(t *testing.T) {
	p, _ := setupServer(t)
	s := NewServer(p, prover.VerifyTransaction, "127.0.0.1:0")
	require.NoError(t, s.Start())
	defer s.Stop()

	resp := call(t, "http://"+s.Addr(), "prover_address", []interface{}{})
	require.Nil(t, resp.Error)
}
