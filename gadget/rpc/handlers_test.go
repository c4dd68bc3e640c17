package rpc

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/db/kv"
	"github.com/prysmaticlabs/casper-gadget/gadget/dispatcher"
	"github.com/prysmaticlabs/casper-gadget/gadget/ledger"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
	"github.com/prysmaticlabs/casper-gadget/network/httputil"
	"github.com/prysmaticlabs/casper-gadget/shared/errutil"
	"github.com/prysmaticlabs/casper-gadget/shared/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const originChain = "0x0000000000000000000000000000000000000001"

var genesisHash = common.HexToHash("0x01")

type fakeEvents struct {
	records []*kv.EventRecord
}

func (f *fakeEvents) Events(_ context.Context, limit int) ([]*kv.EventRecord, error) {
	if limit > 0 && limit < len(f.records) {
		return f.records[len(f.records)-limit:], nil
	}
	return f.records, nil
}

func testServer(t *testing.T, events EventSource) (*mux.Router, []*ecdsa.PrivateKey) {
	h, keys, _ := testAdminServer(t, events)
	return h, keys
}

// testAdminServer also returns the key of the registry authority.
func testAdminServer(t *testing.T, events EventSource) (*mux.Router, []*ecdsa.PrivateKey, *ecdsa.PrivateKey) {
	authority, err := crypto.GenerateKey()
	require.NoError(t, err)
	g := params.DevnetConfig()
	g.Authority = strings.ToLower(crypto.PubkeyToAddress(authority.PublicKey).Hex())
	g.Validators = nil
	var keys []*ecdsa.PrivateKey
	for i := 0; i < 3; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys = append(keys, key)
		g.Validators = append(g.Validators, &params.ValidatorConfig{
			Depositor: fmt.Sprintf("0x%040x", 0x100+i),
			Validator: strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()),
			Stake:     "100",
		})
	}
	l, err := ledger.New(&ledger.Config{Genesis: g})
	require.NoError(t, err)
	return NewRouter(&Server{Backend: l, Events: events}), keys, authority
}

func signEviction(t *testing.T, key *ecdsa.PrivateKey, validator string) *EvictRequest {
	root := ledger.EvictionRoot(params.DevnetConfig().DispatcherAddress(), common.HexToAddress(validator))
	sig, err := ledger.SignAuthorization(root, key)
	require.NoError(t, err)
	return &EvictRequest{Validator: validator, Signature: hexutil.Encode(sig)}
}

func signCloseHeight(t *testing.T, key *ecdsa.PrivateKey, expected uint64) *CloseHeightRequest {
	root := ledger.CloseHeightRoot(params.DevnetConfig().DispatcherAddress(), expected)
	sig, err := ledger.SignAuthorization(root, key)
	require.NoError(t, err)
	return &CloseHeightRequest{ExpectedHeight: expected, Signature: hexutil.Encode(sig)}
}

func do(t *testing.T, h http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResp(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func encodedHeader(t *testing.T, parent common.Hash, height uint64) (string, common.Hash) {
	h := &types.Header{
		ParentHash: parent,
		Number:     new(big.Int).SetUint64(height),
		Difficulty: big.NewInt(1),
		GasUsed:    21000,
	}
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)
	return hexutil.Encode(enc), h.Hash()
}

func reportBlock(t *testing.T, h http.Handler, parent common.Hash, height uint64) common.Hash {
	enc, hash := encodedHeader(t, parent, height)
	rr := do(t, h, http.MethodPost, "/v1/chains/"+originChain+"/blocks", &ReportBlockRequest{Header: enc})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return hash
}

func TestReportBlock(t *testing.T) {
	h, _ := testServer(t, nil)
	enc, hash := encodedHeader(t, genesisHash, 10)

	rr := do(t, h, http.MethodPost, "/v1/chains/"+originChain+"/blocks", &ReportBlockRequest{Header: enc})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := &BlockResponse{}
	decodeResp(t, rr, resp)
	assert.Equal(t, hash.Hex(), resp.Hash)
	assert.Equal(t, uint64(10), resp.Height)
	assert.Equal(t, "21000", resp.AccumulatedGas)

	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/blocks/"+hash.Hex(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/checkpoints/"+hash.Hex(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cp := &CheckpointResponse{}
	decodeResp(t, rr, cp)
	assert.False(t, cp.Justified)

	rr = do(t, h, http.MethodPost, "/v1/chains/"+originChain+"/blocks", &ReportBlockRequest{Header: enc})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestReportBlock_BadRequests(t *testing.T) {
	h, _ := testServer(t, nil)
	enc, _ := encodedHeader(t, genesisHash, 10)

	tests := []struct {
		name string
		url  string
		body interface{}
		code int
		msg  string
	}{
		{"invalid chain", "/v1/chains/0x12/blocks", &ReportBlockRequest{Header: enc}, http.StatusBadRequest, "Invalid chain id"},
		{"unknown chain", "/v1/chains/0x00000000000000000000000000000000000000ff/blocks", &ReportBlockRequest{Header: enc}, http.StatusNotFound, "unknown chain"},
		{"no body", "/v1/chains/" + originChain + "/blocks", nil, http.StatusBadRequest, "No data submitted"},
		{"missing header", "/v1/chains/" + originChain + "/blocks", &ReportBlockRequest{}, http.StatusBadRequest, "Header"},
		{"garbage header", "/v1/chains/" + originChain + "/blocks", &ReportBlockRequest{Header: "0x0102"}, http.StatusBadRequest, "could not decode header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tt.url, tt.body)
			assert.Equal(t, tt.code, rr.Code)
			e := &httputil.DefaultErrorJson{}
			decodeResp(t, rr, e)
			assert.Contains(t, e.Message, tt.msg)
		})
	}
}

func TestGetChain(t *testing.T) {
	h, _ := testServer(t, nil)
	rr := do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/head", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := &ChainResponse{}
	decodeResp(t, rr, resp)
	assert.Equal(t, "origin", resp.Kind)
	assert.Equal(t, uint64(10), resp.EpochLength)
	assert.Equal(t, genesisHash.Hex(), resp.Head.BlockHash)
	assert.True(t, resp.Head.Justified)

	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/checkpoints/0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/checkpoints/"+common.HexToHash("0xdead").Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/transition/"+common.HexToHash("0xdead").Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func voteRequest(t *testing.T, h http.Handler, key *ecdsa.PrivateKey, source, target common.Hash, sh, th uint64) *VoteRequest {
	rr := do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/transition/"+source.Hex(), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	tr := &TransitionResponse{}
	decodeResp(t, rr, tr)

	v := &dispatcher.Vote{
		ChainID:        common.HexToAddress(originChain),
		TransitionHash: common.HexToHash(tr.TransitionHash),
		Source:         source,
		Target:         target,
		SourceHeight:   sh,
		TargetHeight:   th,
	}
	require.NoError(t, v.Sign(key))
	return &VoteRequest{
		ChainID:        originChain,
		TransitionHash: tr.TransitionHash,
		Source:         source.Hex(),
		Target:         target.Hex(),
		SourceHeight:   sh,
		TargetHeight:   th,
		Signature:      hexutil.Encode(v.Signature),
	}
}

func TestSubmitVote(t *testing.T) {
	h, keys := testServer(t, nil)
	target := reportBlock(t, h, genesisHash, 10)

	rr := do(t, h, http.MethodPost, "/v1/votes", voteRequest(t, h, keys[0], genesisHash, target, 0, 10))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := &VoteResponse{}
	decodeResp(t, rr, resp)
	assert.Equal(t, crypto.PubkeyToAddress(keys[0].PublicKey).Hex(), resp.Signer)
	assert.Equal(t, "100", resp.Weight)
	assert.Equal(t, "200", resp.Required)
	assert.False(t, resp.Justified)

	rr = do(t, h, http.MethodPost, "/v1/votes", voteRequest(t, h, keys[0], genesisHash, target, 0, 10))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/votes", voteRequest(t, h, keys[1], genesisHash, target, 0, 10))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeResp(t, rr, resp)
	assert.True(t, resp.Justified)

	rr = do(t, h, http.MethodGet, "/v1/chains/"+originChain+"/checkpoints/"+target.Hex(), nil)
	cp := &CheckpointResponse{}
	decodeResp(t, rr, cp)
	assert.True(t, cp.Justified)
	assert.Equal(t, genesisHash.Hex(), cp.Parent)

	outsider, err := crypto.GenerateKey()
	require.NoError(t, err)
	next := reportBlock(t, h, target, 20)
	rr = do(t, h, http.MethodPost, "/v1/votes", voteRequest(t, h, outsider, target, next, 10, 20))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad := voteRequest(t, h, keys[2], target, next, 10, 20)
	bad.Signature = "0x01"
	rr = do(t, h, http.MethodPost, "/v1/votes", bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWeights(t *testing.T) {
	h, keys := testServer(t, nil)

	rr := do(t, h, http.MethodGet, "/v1/weight?height=0", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	total := &TotalWeightResponse{}
	decodeResp(t, rr, total)
	assert.Equal(t, "300", total.Total)
	assert.Equal(t, "200", total.Required)

	addr := crypto.PubkeyToAddress(keys[0].PublicKey).Hex()
	rr = do(t, h, http.MethodGet, "/v1/validators/"+addr+"/weight", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	weight := &WeightResponse{}
	decodeResp(t, rr, weight)
	assert.Equal(t, "100", weight.Weight)

	rr = do(t, h, http.MethodGet, "/v1/weight?height=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodGet, "/v1/validators/0x12/weight", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegistryEndpoints(t *testing.T) {
	h, keys, authority := testAdminServer(t, nil)
	newcomer := "0x0000000000000000000000000000000000000777"

	rr := do(t, h, http.MethodPost, "/v1/deposits", &DepositRequest{
		Depositor: "0x0000000000000000000000000000000000000999",
		Validator: newcomer,
		Amount:    "50",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	evicted := strings.ToLower(crypto.PubkeyToAddress(keys[0].PublicKey).Hex())
	rr = do(t, h, http.MethodPost, "/v1/evictions", signEviction(t, authority, evicted))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/v1/heights/close", signCloseHeight(t, authority, 0))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	height := &HeightResponse{}
	decodeResp(t, rr, height)
	assert.Equal(t, uint64(1), height.CurrentHeight)

	rr = do(t, h, http.MethodPost, "/v1/heights/close", signCloseHeight(t, authority, 0))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/weight", nil)
	total := &TotalWeightResponse{}
	decodeResp(t, rr, total)
	assert.Equal(t, uint64(1), total.Height)
	assert.Equal(t, "250", total.Total)

	rr = do(t, h, http.MethodPost, "/v1/evictions", signEviction(t, authority, "0x0000000000000000000000000000000000000abc"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, h, http.MethodPost, "/v1/deposits", &DepositRequest{Depositor: newcomer, Validator: newcomer, Amount: "-1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminEndpoints_RequireAuthority(t *testing.T) {
	h, keys, authority := testAdminServer(t, nil)
	target := strings.ToLower(crypto.PubkeyToAddress(keys[1].PublicKey).Hex())
	weight := func() string {
		rr := do(t, h, http.MethodGet, "/v1/validators/"+target+"/weight?height=1", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := &WeightResponse{}
		decodeResp(t, rr, resp)
		return resp.Weight
	}

	// Unsigned requests are rejected before they reach the registry.
	rr := do(t, h, http.MethodPost, "/v1/evictions", &EvictRequest{Validator: target})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodPost, "/v1/heights/close", &CloseHeightRequest{ExpectedHeight: 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// A malformed signature cannot be attributed to anyone.
	bad := signEviction(t, authority, target)
	bad.Signature = "0x" + strings.Repeat("ff", 65)
	rr = do(t, h, http.MethodPost, "/v1/evictions", bad)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Validators are not the authority.
	rr = do(t, h, http.MethodPost, "/v1/evictions", signEviction(t, keys[0], target))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = do(t, h, http.MethodPost, "/v1/heights/close", signCloseHeight(t, keys[0], 0))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A signature over another request does not authorize this one.
	replayed := signEviction(t, authority, "0x0000000000000000000000000000000000000abc")
	replayed.Validator = target
	rr = do(t, h, http.MethodPost, "/v1/evictions", replayed)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/weight", nil)
	total := &TotalWeightResponse{}
	decodeResp(t, rr, total)
	assert.Equal(t, uint64(0), total.Height)
	assert.Equal(t, "100", weight())

	rr = do(t, h, http.MethodPost, "/v1/evictions", signEviction(t, authority, target))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "0", weight())
}

func TestGetEvents(t *testing.T) {
	h, _ := testServer(t, nil)
	rr := do(t, h, http.MethodGet, "/v1/events", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	src := &fakeEvents{records: []*kv.EventRecord{
		{Seq: 1, Type: "block_reported", Data: json.RawMessage(`{}`)},
		{Seq: 2, Type: "vote_recorded", Data: json.RawMessage(`{}`)},
	}}
	h, _ = testServer(t, src)
	rr = do(t, h, http.MethodGet, "/v1/events?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var records []*kv.EventRecord
	decodeResp(t, rr, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "vote_recorded", records[0].Type)

	rr = do(t, h, http.MethodGet, "/v1/events?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errors.Wrap(ledger.ErrUnknownChain, "chain"), http.StatusNotFound},
		{errors.Wrap(checkpoint.ErrAlreadyJustified, "target"), http.StatusConflict},
		{dispatcher.ErrNotValidator, http.StatusBadRequest},
		{errors.Wrap(registry.ErrUnexpectedHeight, "expected"), http.StatusConflict},
		{errutil.WithKind(dispatcher.ErrInvalidVote, errors.Wrap(checkpoint.ErrUnknownTarget, "target")), http.StatusNotFound},
		{errutil.WithKind(dispatcher.ErrInvalidVote, checkpoint.ErrSourceNotJustified), http.StatusConflict},
		{registry.ErrUnauthorized, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusCode(tt.err), tt.err.Error())
	}
}
