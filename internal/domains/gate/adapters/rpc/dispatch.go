package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/domains/rpckit"
	"sagachat/go-backend/pkg/models"
)

func Dispatch(ctx context.Context, service contracts.DaemonService, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "gate.evaluate":
		wallet, rules, err := decodeEvaluateParams(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, rpcErr := callWithoutParams(-32050, func() (any, error) {
			return service.EvaluateGate(ctx, wallet, rules)
		})
		return result, rpcErr, true
	case "gate.parse_rules":
		rules, err := decodeRulesParam(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, rpcErr := callWithoutParams(-32051, func() (any, error) {
			parsed, err := service.ParseGateRules(rules)
			if err != nil {
				return nil, err
			}
			return map[string]any{"rules": parsed}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

func callWithoutParams(serviceErrCode int, call func() (any, error)) (any, *rpckit.Error) {
	result, err := call()
	if err != nil {
		return nil, rpckit.ServiceError(serviceErrCode, err)
	}
	return result, nil
}

func decodeEvaluateParams(raw json.RawMessage) (string, []models.GateRuleRecord, error) {
	type payload struct {
		WalletAddress string                  `json:"wallet_address"`
		Rules         []models.GateRuleRecord `json:"rules"`
	}
	var arr []payload
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return parseEvaluate(arr[0].WalletAddress, arr[0].Rules)
	}
	var direct payload
	if err := json.Unmarshal(raw, &direct); err == nil {
		return parseEvaluate(direct.WalletAddress, direct.Rules)
	}
	return "", nil, errors.New("invalid params")
}

func parseEvaluate(wallet string, rules []models.GateRuleRecord) (string, []models.GateRuleRecord, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return "", nil, errors.New("invalid params")
	}
	return wallet, rules, nil
}

func decodeRulesParam(raw json.RawMessage) ([]models.GateRuleRecord, error) {
	type payload struct {
		Rules []models.GateRuleRecord `json:"rules"`
	}
	var direct payload
	if err := json.Unmarshal(raw, &direct); err == nil && direct.Rules != nil {
		return direct.Rules, nil
	}
	var arr []models.GateRuleRecord
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	return nil, errors.New("invalid params")
}
