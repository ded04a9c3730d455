package policy

import (
	"strings"

	"sagachat/go-backend/internal/chain"
	gatemodel "sagachat/go-backend/internal/domains/gate/model"
)

// User-facing denial reasons. Upstream error text never reaches a decision.
const (
	ReasonInsufficientBalance = "insufficient token balance"
	ReasonNFTNotHeld          = "required NFT not held"
	ReasonGenesisNotHeld      = "genesis NFT not held"
	ReasonChainUnavailable    = "on-chain state unavailable"
	ReasonTimeout             = "on-chain lookup timed out"
	ReasonInvalidRule         = "invalid rule"
)

// GenesisCollection identifies the Genesis NFTs: both fields must match on
// the same mint.
type GenesisCollection struct {
	MintAuthority string
	Group         string
}

// SumHoldings adds the UI amounts of accounts for mint. Accounts for other
// mints are ignored. An account whose uiAmountString is missing falls back
// to its raw amount and decimals; one that cannot be read at all makes the
// sum unusable.
func SumHoldings(accounts []chain.TokenAccount, mint string) (gatemodel.Amount, error) {
	var total gatemodel.Amount
	for _, acc := range accounts {
		if acc.Mint != mint {
			continue
		}
		amount, err := accountAmount(acc)
		if err != nil {
			return gatemodel.Amount{}, err
		}
		total = total.Add(amount)
	}
	return total, nil
}

func accountAmount(acc chain.TokenAccount) (gatemodel.Amount, error) {
	if ui := strings.TrimSpace(acc.UIAmountString); ui != "" {
		return gatemodel.ParseAmount(ui)
	}
	return gatemodel.AmountFromRaw(acc.Amount, acc.Decimals)
}

// MeetsMinimum parses minBalance (defaulting to 1) and compares.
func MeetsMinimum(total gatemodel.Amount, minBalance string) (bool, error) {
	if strings.TrimSpace(minBalance) == "" {
		minBalance = gatemodel.DefaultMinBalance
	}
	threshold, err := gatemodel.ParseAmount(minBalance)
	if err != nil {
		return false, err
	}
	return total.AtLeast(threshold), nil
}

// IsGenesisMint applies both Genesis predicates to one mint.
func IsGenesisMint(info chain.MintInfo, collection GenesisCollection) bool {
	if collection.MintAuthority == "" || collection.Group == "" {
		return false
	}
	return info.MintAuthority == collection.MintAuthority && info.GroupAddress == collection.Group
}

// GenesisCandidates returns the distinct mints of accounts with a non-zero
// balance, in account order.
func GenesisCandidates(accounts []chain.TokenAccount) []string {
	seen := make(map[string]struct{}, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		if !acc.HasBalance() || acc.Mint == "" {
			continue
		}
		if _, dup := seen[acc.Mint]; dup {
			continue
		}
		seen[acc.Mint] = struct{}{}
		out = append(out, acc.Mint)
	}
	return out
}
