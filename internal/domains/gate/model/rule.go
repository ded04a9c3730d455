// Package model holds the community admission rules. Rules form a closed
// union keyed by gate type; records with an unknown type never become rules.
package model

import (
	"errors"
	"fmt"
	"strings"

	"sagachat/go-backend/pkg/models"
)

type RuleType string

const (
	RuleToken   RuleType = "TOKEN"
	RuleNFT     RuleType = "NFT"
	RuleGenesis RuleType = "GENESIS"
)

// DefaultMinBalance applies to TOKEN and NFT rules that omit min_balance.
const DefaultMinBalance = "1"

var (
	ErrUnknownGateType = errors.New("unknown gate type")
	ErrInvalidRule     = errors.New("invalid gate rule")
)

type Rule interface {
	Type() RuleType
	Record() models.GateRuleRecord
	sealed()
}

// GenesisRule is satisfied by holding a Genesis-collection NFT. The
// collection identity comes from configuration, not from the record.
type GenesisRule struct{}

// TokenRule requires at least MinBalance units of Mint across all accounts.
type TokenRule struct {
	Mint       string
	MinBalance string
	Symbol     string
}

// NFTRule requires ownership of Mint with at least MinBalance units.
type NFTRule struct {
	Mint       string
	MinBalance string
	Symbol     string
}

func (GenesisRule) Type() RuleType { return RuleGenesis }
func (TokenRule) Type() RuleType   { return RuleToken }
func (NFTRule) Type() RuleType     { return RuleNFT }

func (GenesisRule) sealed() {}
func (TokenRule) sealed()   {}
func (NFTRule) sealed()     {}

func (GenesisRule) Record() models.GateRuleRecord {
	return models.GateRuleRecord{GateType: string(RuleGenesis)}
}

func (r TokenRule) Record() models.GateRuleRecord {
	return models.GateRuleRecord{GateType: string(RuleToken), MintAddress: r.Mint, MinBalance: r.MinBalance, Symbol: r.Symbol}
}

func (r NFTRule) Record() models.GateRuleRecord {
	return models.GateRuleRecord{GateType: string(RuleNFT), MintAddress: r.Mint, MinBalance: r.MinBalance, Symbol: r.Symbol}
}

// ParseRule converts a persisted record into a rule. Gate types are matched
// case-insensitively; min_balance must be a non-negative decimal.
func ParseRule(rec models.GateRuleRecord) (Rule, error) {
	gateType := RuleType(strings.ToUpper(strings.TrimSpace(rec.GateType)))
	switch gateType {
	case RuleGenesis:
		return GenesisRule{}, nil
	case RuleToken, RuleNFT:
		mint := strings.TrimSpace(rec.MintAddress)
		if !models.IsWalletAddress(mint) {
			return nil, fmt.Errorf("%w: %s rule needs a valid mint_address", ErrInvalidRule, gateType)
		}
		minBalance := strings.TrimSpace(rec.MinBalance)
		if minBalance == "" {
			minBalance = DefaultMinBalance
		}
		if _, err := ParseAmount(minBalance); err != nil {
			return nil, fmt.Errorf("%w: min_balance %q: %v", ErrInvalidRule, rec.MinBalance, err)
		}
		symbol := strings.TrimSpace(rec.Symbol)
		if gateType == RuleToken {
			return TokenRule{Mint: mint, MinBalance: minBalance, Symbol: symbol}, nil
		}
		return NFTRule{Mint: mint, MinBalance: minBalance, Symbol: symbol}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateType, rec.GateType)
	}
}

// ParseRules parses every record or none.
func ParseRules(records []models.GateRuleRecord) ([]Rule, error) {
	rules := make([]Rule, 0, len(records))
	for i, rec := range records {
		rule, err := ParseRule(rec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func Records(rules []Rule) []models.GateRuleRecord {
	out := make([]models.GateRuleRecord, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Record())
	}
	return out
}
