package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"ergoprover/pkg/cost"
	"ergoprover/pkg/sigma"
	"ergoprover/pkg/state"
)

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Signing failures the caller can act on
	CodeUnsatisfiable = -32001
	CodeCostLimit     = -32002
)

// Signer is the prover surface exposed over RPC
type Signer interface {
	Address() string
	SignWithBaseCost(tx *state.UnsignedTransaction, baseCost int64) (*state.SignedTransaction, error)
}

// VerifyFunc checks a signed transaction against its unsigned form
type VerifyFunc func(ctx context.Context, tx *state.UnsignedTransaction, signed *state.SignedTransaction) (bool, error)

// Server is a local JSON-RPC signing endpoint. It never broadcasts.
type Server struct {
	signer   Signer
	verify   VerifyFunc
	addr     string
	server   *http.Server
	listener net.Listener
	mu       sync.RWMutex
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      interface{}   `json:"id"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SignParams are the parameters of prover_sign
type SignParams struct {
	Transaction *state.UnsignedTransaction `json:"transaction"`
	BaseCost    int64                      `json:"baseCost"`
}

// VerifyParams are the parameters of prover_verify
type VerifyParams struct {
	Transaction *state.UnsignedTransaction `json:"transaction"`
	Signed      *state.SignedTransaction   `json:"signed"`
}

// NewServer creates a server listening on addr, e.g. "127.0.0.1:9053"
func NewServer(signer Signer, verify VerifyFunc, addr string) *Server {
	return &Server{
		signer: signer,
		verify: verify,
		addr:   addr,
	}
}

// Handler returns the HTTP handler serving JSON-RPC requests
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	return mux
}

// Start starts the RPC server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{Handler: s.Handler()}

	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("Starting RPC server")
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("RPC server error")
		}
	}()

	return nil
}

// Addr returns the bound address once the server has started
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop stops the RPC server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		log.Info().Msg("Stopping RPC server")
		return s.server.Close()
	}
	return nil
}

// handleRPC handles JSON-RPC requests
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &req, CodeParseError, "Parse error")
		return
	}

	// Set response headers
	w.Header().Set("Content-Type", "application/json")

	switch req.Method {
	case "prover_address":
		writeResult(w, &req, map[string]string{"address": s.signer.Address()})
	case "prover_sign":
		s.handleSign(w, &req)
	case "prover_verify":
		s.handleVerify(r.Context(), w, &req)
	default:
		writeError(w, &req, CodeMethodNotFound, "Method not found")
	}
}

// handleSign handles the prover_sign method
func (s *Server) handleSign(w http.ResponseWriter, req *JSONRPCRequest) {
	var params []SignParams
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params) < 1 || params[0].Transaction == nil {
		writeError(w, req, CodeInvalidParams, "Invalid params")
		return
	}

	signed, err := s.signer.SignWithBaseCost(params[0].Transaction, params[0].BaseCost)
	if err != nil {
		writeError(w, req, signErrorCode(err), err.Error())
		return
	}
	writeResult(w, req, signed)
}

// handleVerify handles the prover_verify method
func (s *Server) handleVerify(ctx context.Context, w http.ResponseWriter, req *JSONRPCRequest) {
	var params []VerifyParams
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params) < 1 ||
		params[0].Transaction == nil || params[0].Signed == nil {
		writeError(w, req, CodeInvalidParams, "Invalid params")
		return
	}

	ok, err := s.verify(ctx, params[0].Transaction, params[0].Signed)
	if err != nil {
		writeError(w, req, CodeInvalidParams, err.Error())
		return
	}
	writeResult(w, req, map[string]bool{"valid": ok})
}

func signErrorCode(err error) int {
	switch {
	case errors.Is(err, sigma.ErrUnsatisfiable):
		return CodeUnsatisfiable
	case errors.Is(err, cost.ErrLimitExceeded):
		return CodeCostLimit
	case errors.Is(err, sigma.ErrProving):
		return CodeInternalError
	default:
		return CodeInvalidParams
	}
}

func writeResult(w http.ResponseWriter, req *JSONRPCRequest, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON-RPC error response
func writeError(w http.ResponseWriter, req *JSONRPCRequest, code int, message string) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
		ID: req.ID,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}
