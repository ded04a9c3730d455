package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/domains/rpckit"
)

const codeKeyNotFound = -32004

func Dispatch(ctx context.Context, service contracts.DaemonService, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "registry.get":
		result, rpcErr := callWithSingleStringParam(rawParams, -32030, func(wallet string) (any, error) {
			return service.LookupEncryptionKey(ctx, wallet)
		})
		return result, rpcErr, true
	case "registry.put":
		params, err := decodePublishParams(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, err := service.PublishEncryptionKey(ctx, params.WalletAddress, params.EncryptionPublicKey, params.Signature)
		if err != nil {
			return nil, rpckit.ServiceError(-32031, err), true
		}
		return result, nil, true
	default:
		return nil, nil, false
	}
}

func callWithSingleStringParam(rawParams json.RawMessage, serviceErrCode int, call func(string) (any, error)) (any, *rpckit.Error) {
	param, err := decodeSingleStringParam(rawParams)
	if err != nil {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(param)
	if errors.Is(err, contracts.ErrKeyNotFound) {
		return nil, rpckit.ServiceError(codeKeyNotFound, err)
	}
	if err != nil {
		return nil, rpckit.ServiceError(serviceErrCode, err)
	}
	return result, nil
}

func decodeSingleStringParam(raw json.RawMessage) (string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 && strings.TrimSpace(arr[0]) != "" {
		return arr[0], nil
	}
	return "", errors.New("invalid params")
}

type publishParams struct {
	WalletAddress       string `json:"wallet_address"`
	EncryptionPublicKey string `json:"encryption_public_key"`
	Signature           string `json:"signature"`
}

func decodePublishParams(raw json.RawMessage) (publishParams, error) {
	parse := func(p publishParams) (publishParams, error) {
		p.WalletAddress = strings.TrimSpace(p.WalletAddress)
		p.EncryptionPublicKey = strings.TrimSpace(p.EncryptionPublicKey)
		p.Signature = strings.TrimSpace(p.Signature)
		if p.WalletAddress == "" || p.EncryptionPublicKey == "" || p.Signature == "" {
			return publishParams{}, errors.New("invalid params")
		}
		return p, nil
	}
	var arr []publishParams
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return parse(arr[0])
	}
	var direct publishParams
	if err := json.Unmarshal(raw, &direct); err == nil {
		return parse(direct)
	}
	return publishParams{}, errors.New("invalid params")
}
