package rpc

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/db/kv"
	"github.com/prysmaticlabs/casper-gadget/gadget/dispatcher"
	"github.com/prysmaticlabs/casper-gadget/gadget/ledger"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
	"github.com/prysmaticlabs/casper-gadget/network/httputil"
	"go.opencensus.io/trace"
)

// Backend is the gadget state the API serves.
type Backend interface {
	ReportBlock(ctx context.Context, chain common.Address, enc []byte) (*checkpoint.ReportedBlock, error)
	Vote(ctx context.Context, v *dispatcher.Vote) (*dispatcher.Result, error)
	Deposit(ctx context.Context, depositor, validator common.Address, amount *uint256.Int) error
	Evict(ctx context.Context, caller, validator common.Address) error
	CloseHeight(ctx context.Context, caller common.Address, expected uint64) error
	Domain() common.Address
	Chain(chain common.Address) (*ledger.ChainInfo, error)
	Block(chain common.Address, hash common.Hash) (*checkpoint.ReportedBlock, bool, error)
	Checkpoint(chain common.Address, hash common.Hash) (*checkpoint.Checkpoint, bool, error)
	TransitionHash(chain common.Address, hash common.Hash) (common.Hash, error)
	Weight(height uint64, validator common.Address) *uint256.Int
	TotalWeight(height uint64) *ledger.WeightInfo
	CurrentHeight() uint64
}

// EventSource returns stored gadget events.
type EventSource interface {
	Events(ctx context.Context, limit int) ([]*kv.EventRecord, error)
}

// Server holds the handlers of the gadget API.
type Server struct {
	Backend Backend
	Events  EventSource
}

// decodeBody decodes and validates a JSON request body into req. It writes
// the error response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(req)
	switch {
	case err == io.EOF:
		httputil.HandleError(w, "No data submitted", http.StatusBadRequest)
		return false
	case err != nil:
		httputil.HandleError(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validator.New().Struct(req); err != nil {
		httputil.HandleError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func handleCoreError(w http.ResponseWriter, err error) {
	httputil.HandleError(w, err.Error(), statusCode(err))
}

func chainVar(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := mux.Vars(r)["chain"]
	if !common.IsHexAddress(raw) {
		httputil.HandleError(w, "Invalid chain id: "+raw, http.StatusBadRequest)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func hashVar(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	raw := mux.Vars(r)["hash"]
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		httputil.HandleError(w, "Invalid hash: "+raw, http.StatusBadRequest)
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}

// heightQuery reads the height query parameter, defaulting to the current
// registry height.
func (s *Server) heightQuery(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.URL.Query().Get("height")
	if raw == "" {
		return s.Backend.CurrentHeight(), true
	}
	h, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httputil.HandleError(w, "Invalid height: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return h, true
}

// ReportBlock reports an RLP encoded header to a chain's checkpoint store.
func (s *Server) ReportBlock(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.ReportBlock")
	defer span.End()

	chain, ok := chainVar(w, r)
	if !ok {
		return
	}
	var req ReportBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	enc, err := hexutil.Decode(req.Header)
	if err != nil {
		httputil.HandleError(w, "Could not decode header: "+err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.Backend.ReportBlock(ctx, chain, enc)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, blockResponse(b))
}

// GetChain returns the head, dynasty and epoch length of a chain.
func (s *Server) GetChain(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetChain")
	defer span.End()

	chain, ok := chainVar(w, r)
	if !ok {
		return
	}
	info, err := s.Backend.Chain(chain)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &ChainResponse{
		ChainID:     info.ChainID.Hex(),
		Kind:        info.Kind.String(),
		EpochLength: info.EpochLength,
		Dynasty:     info.Dynasty,
		Head:        checkpointResponse(info.Head),
	})
}

// GetBlock returns a reported block.
func (s *Server) GetBlock(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetBlock")
	defer span.End()

	chain, ok := chainVar(w, r)
	if !ok {
		return
	}
	hash, ok := hashVar(w, r)
	if !ok {
		return
	}
	b, found, err := s.Backend.Block(chain, hash)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	if !found {
		httputil.HandleError(w, "Block not found", http.StatusNotFound)
		return
	}
	httputil.WriteJson(w, blockResponse(b))
}

// GetCheckpoint returns a checkpoint.
func (s *Server) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetCheckpoint")
	defer span.End()

	chain, ok := chainVar(w, r)
	if !ok {
		return
	}
	hash, ok := hashVar(w, r)
	if !ok {
		return
	}
	cp, found, err := s.Backend.Checkpoint(chain, hash)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	if !found {
		httputil.HandleError(w, "Checkpoint not found", http.StatusNotFound)
		return
	}
	httputil.WriteJson(w, checkpointResponse(cp))
}

// GetTransitionHash returns the transition hash a vote using the checkpoint
// as source must carry.
func (s *Server) GetTransitionHash(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetTransitionHash")
	defer span.End()

	chain, ok := chainVar(w, r)
	if !ok {
		return
	}
	hash, ok := hashVar(w, r)
	if !ok {
		return
	}
	th, err := s.Backend.TransitionHash(chain, hash)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &TransitionResponse{TransitionHash: th.Hex()})
}

// SubmitVote submits a signed vote.
func (s *Server) SubmitVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.SubmitVote")
	defer span.End()

	var req VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		httputil.HandleError(w, "Could not decode signature: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.Backend.Vote(ctx, &dispatcher.Vote{
		ChainID:        common.HexToAddress(req.ChainID),
		TransitionHash: common.HexToHash(req.TransitionHash),
		Source:         common.HexToHash(req.Source),
		Target:         common.HexToHash(req.Target),
		SourceHeight:   req.SourceHeight,
		TargetHeight:   req.TargetHeight,
		Signature:      sig,
	})
	if err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &VoteResponse{
		Signer:    res.Signer.Hex(),
		Weight:    res.Weight.ToBig().String(),
		Required:  res.Required.ToBig().String(),
		Justified: res.Justified,
	})
}

// GetValidatorWeight returns a validator's weight at a height.
func (s *Server) GetValidatorWeight(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetValidatorWeight")
	defer span.End()

	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		httputil.HandleError(w, "Invalid validator address: "+raw, http.StatusBadRequest)
		return
	}
	height, ok := s.heightQuery(w, r)
	if !ok {
		return
	}
	addr := common.HexToAddress(raw)
	httputil.WriteJson(w, &WeightResponse{
		Validator: addr.Hex(),
		Height:    height,
		Weight:    s.Backend.Weight(height, addr).ToBig().String(),
	})
}

// GetTotalWeight returns the total weight at a height and its supermajority.
func (s *Server) GetTotalWeight(w http.ResponseWriter, r *http.Request) {
	_, span := trace.StartSpan(r.Context(), "rpc.GetTotalWeight")
	defer span.End()

	height, ok := s.heightQuery(w, r)
	if !ok {
		return
	}
	info := s.Backend.TotalWeight(height)
	httputil.WriteJson(w, &TotalWeightResponse{
		Height:   info.Height,
		Total:    info.Total.ToBig().String(),
		Required: info.Required.ToBig().String(),
	})
}

// SubmitDeposit registers a new validator from the next height on.
func (s *Server) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.SubmitDeposit")
	defer span.End()

	var req DepositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		httputil.HandleError(w, "Invalid amount: "+req.Amount, http.StatusBadRequest)
		return
	}
	stake, overflow := uint256.FromBig(amount)
	if overflow {
		handleCoreError(w, registry.ErrWeightOverflow)
		return
	}
	if err := s.Backend.Deposit(ctx, common.HexToAddress(req.Depositor), common.HexToAddress(req.Validator), stake); err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &HeightResponse{CurrentHeight: s.Backend.CurrentHeight()})
}

// authorize recovers the signer of root from the hex signature. It writes a
// 401 response and returns false when no signer can be recovered.
func authorize(w http.ResponseWriter, root common.Hash, signature string) (common.Address, bool) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		httputil.HandleError(w, "Could not decode signature: "+err.Error(), http.StatusUnauthorized)
		return common.Address{}, false
	}
	caller, err := dispatcher.RecoverSigner(root, sig)
	if err != nil {
		httputil.HandleError(w, "Could not authenticate request: "+err.Error(), http.StatusUnauthorized)
		return common.Address{}, false
	}
	return caller, true
}

// SubmitEviction evicts a validator from the next height on. The request
// must be signed by the authority.
func (s *Server) SubmitEviction(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.SubmitEviction")
	defer span.End()

	var req EvictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	validator := common.HexToAddress(req.Validator)
	caller, ok := authorize(w, ledger.EvictionRoot(s.Backend.Domain(), validator), req.Signature)
	if !ok {
		return
	}
	if err := s.Backend.Evict(ctx, caller, validator); err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &HeightResponse{CurrentHeight: s.Backend.CurrentHeight()})
}

// CloseHeight advances the registry height. The request must be signed by
// the authority.
func (s *Server) CloseHeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.CloseHeight")
	defer span.End()

	var req CloseHeightRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := authorize(w, ledger.CloseHeightRoot(s.Backend.Domain(), req.ExpectedHeight), req.Signature)
	if !ok {
		return
	}
	if err := s.Backend.CloseHeight(ctx, caller, req.ExpectedHeight); err != nil {
		handleCoreError(w, err)
		return
	}
	httputil.WriteJson(w, &HeightResponse{CurrentHeight: s.Backend.CurrentHeight()})
}

// GetEvents returns the most recent stored events.
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "rpc.GetEvents")
	defer span.End()

	if s.Events == nil {
		httputil.HandleError(w, "Event history is not enabled", http.StatusNotFound)
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 0 {
			httputil.HandleError(w, "Invalid limit: "+raw, http.StatusBadRequest)
			return
		}
		limit = l
	}
	events, err := s.Events.Events(ctx, limit)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	if events == nil {
		events = []*kv.EventRecord{}
	}
	httputil.WriteJson(w, events)
}
