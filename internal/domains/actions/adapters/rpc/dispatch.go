package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	actionusecase "sagachat/go-backend/internal/domains/actions/usecase"
	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/domains/rpckit"
	"sagachat/go-backend/pkg/models"
)

const (
	codeVerifyFailed     = -32040
	codeAdmitFailed      = -32041
	codeInvalidSignature = -32042
)

type actionParams struct {
	Kind   string                  `json:"kind"`
	Action json.RawMessage         `json:"action"`
	Signed models.SignedAction     `json:"signed"`
	Rules  []models.GateRuleRecord `json:"rules,omitempty"`
}

func Dispatch(ctx context.Context, service contracts.DaemonService, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "action.verify":
		p, err := decodeActionParams(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, rpcErr := callAction(codeVerifyFailed, func() (any, error) {
			return service.VerifyAction(ctx, p.Kind, p.Action, p.Signed)
		})
		return result, rpcErr, true
	case "action.admit":
		p, err := decodeActionParams(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, rpcErr := callAction(codeAdmitFailed, func() (any, error) {
			return service.AdmitAction(ctx, p.Kind, p.Action, p.Signed, p.Rules)
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

// callAction maps verification failures to their own code so clients can
// show "invalid signature" without parsing messages.
func callAction(serviceErrCode int, call func() (any, error)) (any, *rpckit.Error) {
	result, err := call()
	if err == nil {
		return result, nil
	}
	if errors.Is(err, actionusecase.ErrInvalidSignature) {
		return nil, rpckit.ServiceError(codeInvalidSignature, actionusecase.ErrInvalidSignature)
	}
	return nil, rpckit.ServiceError(serviceErrCode, err)
}

func decodeActionParams(raw json.RawMessage) (actionParams, error) {
	p, err := decodeSingleOrDirect[actionParams](raw)
	if err != nil {
		return actionParams{}, err
	}
	if strings.TrimSpace(p.Kind) == "" || len(p.Action) == 0 {
		return actionParams{}, errors.New("invalid params")
	}
	if strings.TrimSpace(p.Signed.Signature) == "" || strings.TrimSpace(p.Signed.SignerAddress) == "" {
		return actionParams{}, errors.New("invalid params")
	}
	return p, nil
}

func decodeSingleOrDirect[T any](raw json.RawMessage) (T, error) {
	var arr []T
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return arr[0], nil
	}
	var direct T
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}
	var zero T
	return zero, errors.New("invalid params")
}
