package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	actionrpc "sagachat/go-backend/internal/domains/actions/adapters/rpc"
	gaterpc "sagachat/go-backend/internal/domains/gate/adapters/rpc"
	keysrpc "sagachat/go-backend/internal/domains/keys/adapters/rpc"
	"sagachat/go-backend/internal/domains/rpckit"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const maxRPCBodyBytes int64 = 1 << 20 // 1 MiB

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if rpcErr := validateRPCAPIVersion(req.APIVersion); rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	reqID := fmt.Sprintf("rpc_%d", time.Now().UnixNano())
	started := time.Now()
	s.logger.Info("rpc request", "component", "rpc", "request_id", reqID, "method", req.Method)

	result, rpcErr := s.dispatchRPC(r.Context(), req.Method, req.Params)
	latency := time.Since(started).Milliseconds()
	if rpcErr != nil {
		s.logger.Warn("rpc failed", "component", "rpc", "request_id", reqID, "method", req.Method, "rpc_code", rpcErr.Code, "latency_ms", latency)
	} else {
		s.logger.Info("rpc response", "component", "rpc", "request_id", reqID, "method", req.Method, "latency_ms", latency)
	}
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return s.service.Health(ctx), nil
	case "rpc.version":
		return rpcVersionInfo(), nil
	}
	if result, rpcErr, ok := keysrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, toRPCError(rpcErr)
	}
	if result, rpcErr, ok := actionrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, toRPCError(rpcErr)
	}
	if result, rpcErr, ok := gaterpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, toRPCError(rpcErr)
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func toRPCError(err *rpckit.Error) *rpcError {
	if err == nil {
		return nil
	}
	return &rpcError{Code: err.Code, Message: err.Message}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}
