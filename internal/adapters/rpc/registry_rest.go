package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"sagachat/go-backend/internal/domains/contracts"
	keysusecase "sagachat/go-backend/internal/domains/keys/usecase"
	"sagachat/go-backend/internal/registry"
)

const maxRegistryBodyBytes int64 = 4 << 10

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	entry, err := s.service.LookupEncryptionKey(r.Context(), mux.Vars(r)["wallet"])
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handlePutKey(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRegistryBodyBytes)
	var body registry.PublishRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.EncryptionPublicKey) == "" || strings.TrimSpace(body.Signature) == "" {
		http.Error(w, "encryption_public_key and signature are required", http.StatusBadRequest)
		return
	}

	result, err := s.service.PublishEncryptionKey(r.Context(), mux.Vars(r)["wallet"], body.EncryptionPublicKey, body.Signature)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrKeyNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, keysusecase.ErrUnauthorizedPublish):
		http.Error(w, "forbidden", http.StatusForbidden)
	case contracts.ErrorCategory(err) == contracts.ErrorCategoryStorage:
		s.logger.Error("registry storage failure", "component", "rpc", "error", err.Error())
		http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
