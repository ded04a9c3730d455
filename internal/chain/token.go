package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// AccountFilter selects token accounts by mint or by owning program. Exactly
// one field must be set.
type AccountFilter struct {
	Mint      string
	ProgramID string
}

type TokenAccount struct {
	Pubkey         string
	Mint           string
	Owner          string
	ProgramID      string
	Amount         string
	Decimals       int
	UIAmountString string
}

// HasBalance reports whether the raw amount is non-zero.
func (a TokenAccount) HasBalance() bool {
	return strings.Trim(a.Amount, "0") != ""
}

// MintInfo is the subset of a jsonParsed mint account the gate inspects.
type MintInfo struct {
	Address       string
	ProgramID     string
	MintAuthority string
	Decimals      int
	// GroupAddress is the group named by the tokenGroupMember extension, if any.
	GroupAddress string
}

// TokenReader is implemented by Client and CachedMintReader.
type TokenReader interface {
	TokenAccountsByOwner(ctx context.Context, owner string, filter AccountFilter) ([]TokenAccount, error)
	MintInfo(ctx context.Context, mint string) (MintInfo, error)
}

type tokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       int    `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

type parsedTokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Owner string `json:"owner"`
		Data  struct {
			Program string `json:"program"`
			Parsed  struct {
				Type string `json:"type"`
				Info struct {
					Mint        string      `json:"mint"`
					Owner       string      `json:"owner"`
					TokenAmount tokenAmount `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

type mintExtension struct {
	Extension string          `json:"extension"`
	State     json.RawMessage `json:"state"`
}

type parsedMintAccount struct {
	Owner string `json:"owner"`
	Data  struct {
		Program string `json:"program"`
		Parsed  struct {
			Type string `json:"type"`
			Info struct {
				MintAuthority *string         `json:"mintAuthority"`
				Decimals      int             `json:"decimals"`
				Extensions    []mintExtension `json:"extensions"`
			} `json:"info"`
		} `json:"parsed"`
	} `json:"data"`
}

func (c *Client) TokenAccountsByOwner(ctx context.Context, owner string, filter AccountFilter) ([]TokenAccount, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrRPC)
	}
	var selector map[string]string
	switch {
	case filter.Mint != "" && filter.ProgramID == "":
		selector = map[string]string{"mint": filter.Mint}
	case filter.ProgramID != "" && filter.Mint == "":
		selector = map[string]string{"programId": filter.ProgramID}
	default:
		return nil, fmt.Errorf("%w: exactly one of mint or program id is required", ErrRPC)
	}

	var out struct {
		Value []parsedTokenAccount `json:"value"`
	}
	params := []any{owner, selector, map[string]string{"encoding": "jsonParsed"}}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &out); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(out.Value))
	for _, v := range out.Value {
		info := v.Account.Data.Parsed.Info
		if info.Mint == "" {
			return nil, fmt.Errorf("%w: token account %s is not jsonParsed", ErrInvalidResponse, v.Pubkey)
		}
		accounts = append(accounts, TokenAccount{
			Pubkey:         v.Pubkey,
			Mint:           info.Mint,
			Owner:          info.Owner,
			ProgramID:      v.Account.Owner,
			Amount:         info.TokenAmount.Amount,
			Decimals:       info.TokenAmount.Decimals,
			UIAmountString: info.TokenAmount.UIAmountString,
		})
	}
	return accounts, nil
}

func (c *Client) MintInfo(ctx context.Context, mint string) (MintInfo, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return MintInfo{}, fmt.Errorf("%w: mint is required", ErrRPC)
	}
	var out struct {
		Value *parsedMintAccount `json:"value"`
	}
	params := []any{mint, map[string]string{"encoding": "jsonParsed"}}
	if err := c.call(ctx, "getAccountInfo", params, &out); err != nil {
		return MintInfo{}, err
	}
	if out.Value == nil {
		return MintInfo{}, fmt.Errorf("%w: %s", ErrAccountNotFound, mint)
	}
	if out.Value.Data.Parsed.Type != "mint" {
		return MintInfo{}, fmt.Errorf("%w: account %s is not a mint", ErrInvalidResponse, mint)
	}

	info := out.Value.Data.Parsed.Info
	res := MintInfo{
		Address:   mint,
		ProgramID: out.Value.Owner,
		Decimals:  info.Decimals,
	}
	if info.MintAuthority != nil {
		res.MintAuthority = *info.MintAuthority
	}
	for _, ext := range info.Extensions {
		if ext.Extension != "tokenGroupMember" {
			continue
		}
		var member struct {
			Group string `json:"group"`
		}
		if err := json.Unmarshal(ext.State, &member); err != nil {
			return MintInfo{}, fmt.Errorf("%w: group member extension: %v", ErrInvalidResponse, err)
		}
		res.GroupAddress = member.Group
	}
	return res, nil
}
