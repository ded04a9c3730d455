package usecase

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sagachat/go-backend/internal/chain"
	gatemodel "sagachat/go-backend/internal/domains/gate/model"
	gatepolicy "sagachat/go-backend/internal/domains/gate/policy"
	"sagachat/go-backend/pkg/models"
)

func testAddress(t *testing.T, b byte) string {
	t.Helper()
	addr, err := models.WalletAddressFromKey(bytes.Repeat([]byte{b}, 32))
	if err != nil {
		t.Fatalf("address failed: %v", err)
	}
	return addr
}

type fakeChain struct {
	mu        sync.Mutex
	accounts  map[string][]chain.TokenAccount
	mints     map[string]chain.MintInfo
	accErr    error
	mintErr   map[string]error
	block     bool
	mintCalls int
}

func (f *fakeChain) TokenAccountsByOwner(ctx context.Context, owner string, filter chain.AccountFilter) ([]chain.TokenAccount, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.accErr != nil {
		return nil, f.accErr
	}
	key := filter.Mint
	if key == "" {
		key = filter.ProgramID
	}
	return f.accounts[key], nil
}

func (f *fakeChain) MintInfo(_ context.Context, mint string) (chain.MintInfo, error) {
	f.mu.Lock()
	f.mintCalls++
	f.mu.Unlock()
	if err := f.mintErr[mint]; err != nil {
		return chain.MintInfo{}, err
	}
	info, ok := f.mints[mint]
	if !ok {
		return chain.MintInfo{}, chain.ErrAccountNotFound
	}
	return info, nil
}

type countingRecorder struct {
	mu        sync.Mutex
	errors    map[string]int
	decisions int
	rules     int
}

func (r *countingRecorder) RecordError(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errors == nil {
		r.errors = map[string]int{}
	}
	r.errors[category]++
}

func (r *countingRecorder) RecordGateRule(string, bool) {
	r.mu.Lock()
	r.rules++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordGateDecision(bool, string) {
	r.mu.Lock()
	r.decisions++
	r.mu.Unlock()
}

type genesisFixture struct {
	wallet, authority, group, otherAuthority, otherGroup string
	cfg                                                  Config
}

func newGenesisFixture(t *testing.T) genesisFixture {
	f := genesisFixture{
		wallet:         testAddress(t, 1),
		authority:      testAddress(t, 2),
		group:          testAddress(t, 3),
		otherAuthority: testAddress(t, 4),
		otherGroup:     testAddress(t, 5),
	}
	f.cfg = DefaultConfig()
	f.cfg.Genesis = gatepolicy.GenesisCollection{MintAuthority: f.authority, Group: f.group}
	return f
}

func holding(mint, ui string) chain.TokenAccount {
	return chain.TokenAccount{Mint: mint, Amount: "1", Decimals: 0, UIAmountString: ui, ProgramID: chain.Token2022ProgramID}
}

func TestGenesisMixAndMatchIsDenied(t *testing.T) {
	f := newGenesisFixture(t)
	mintA := testAddress(t, 10)
	mintB := testAddress(t, 11)
	reader := &fakeChain{
		accounts: map[string][]chain.TokenAccount{
			chain.Token2022ProgramID: {holding(mintA, "1"), holding(mintB, "1")},
		},
		mints: map[string]chain.MintInfo{
			mintA: {Address: mintA, MintAuthority: f.authority, GroupAddress: f.otherGroup},
			mintB: {Address: mintB, MintAuthority: f.otherAuthority, GroupAddress: f.group},
		},
	}
	decision, err := NewEvaluator(reader, f.cfg, nil, nil).Evaluate(context.Background(), f.wallet, []gatemodel.Rule{gatemodel.GenesisRule{}})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.RuleType != "GENESIS" || decision.Reason != gatepolicy.ReasonGenesisNotHeld {
		t.Fatalf("mix-and-match must be denied, got %+v", decision)
	}
}

func TestGenesisSameMintBothPredicatesAdmits(t *testing.T) {
	f := newGenesisFixture(t)
	decoy := testAddress(t, 10)
	genesis := testAddress(t, 12)
	reader := &fakeChain{
		accounts: map[string][]chain.TokenAccount{
			chain.Token2022ProgramID: {holding(decoy, "1"), holding(genesis, "1")},
		},
		mints: map[string]chain.MintInfo{
			decoy:   {Address: decoy, MintAuthority: f.authority},
			genesis: {Address: genesis, MintAuthority: f.authority, GroupAddress: f.group},
		},
	}
	decision, err := NewEvaluator(reader, f.cfg, nil, nil).Evaluate(context.Background(), f.wallet, []gatemodel.Rule{gatemodel.GenesisRule{}})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !decision.Admitted {
		t.Fatalf("expected admission, got %+v", decision)
	}
}

func TestGenesisIgnoresEmptyAccounts(t *testing.T) {
	f := newGenesisFixture(t)
	genesis := testAddress(t, 12)
	empty := holding(genesis, "0")
	empty.Amount = "0"
	reader := &fakeChain{
		accounts: map[string][]chain.TokenAccount{chain.Token2022ProgramID: {empty}},
		mints:    map[string]chain.MintInfo{genesis: {MintAuthority: f.authority, GroupAddress: f.group}},
	}
	decision, _ := NewEvaluator(reader, f.cfg, nil, nil).Evaluate(context.Background(), f.wallet, []gatemodel.Rule{gatemodel.GenesisRule{}})
	if decision.Admitted {
		t.Fatal("a zero-balance account must not satisfy GENESIS")
	}
	if reader.mintCalls != 0 {
		t.Fatalf("expected no mint lookups for empty accounts, got %d", reader.mintCalls)
	}
}

func TestGenesisMintLookupFailureFailsClosed(t *testing.T) {
	f := newGenesisFixture(t)
	mint := testAddress(t, 12)
	reader := &fakeChain{
		accounts: map[string][]chain.TokenAccount{chain.Token2022ProgramID: {holding(mint, "1")}},
		mintErr:  map[string]error{mint: chain.ErrRPC},
	}
	recorder := &countingRecorder{}
	decision, _ := NewEvaluator(reader, f.cfg, nil, recorder).Evaluate(context.Background(), f.wallet, []gatemodel.Rule{gatemodel.GenesisRule{}})
	if decision.Admitted || decision.Reason != gatepolicy.ReasonChainUnavailable {
		t.Fatalf("expected fail-closed denial, got %+v", decision)
	}
	if recorder.errors["network"] != 1 {
		t.Fatalf("expected one network error recorded, got %v", recorder.errors)
	}
}

func TestTokenBalanceBoundaryIsExact(t *testing.T) {
	wallet := testAddress(t, 1)
	mint := testAddress(t, 20)
	rule := gatemodel.TokenRule{Mint: mint, MinBalance: "1"}

	cases := []struct {
		name     string
		accounts []chain.TokenAccount
		admitted bool
	}{
		{"exactly one over accounts", []chain.TokenAccount{holding(mint, "0.1"), holding(mint, "0.2"), holding(mint, "0.7")}, true},
		{"just below one", []chain.TokenAccount{holding(mint, "0.5"), holding(mint, "0.499999999")}, false},
		{"no accounts", nil, false},
		{"above one", []chain.TokenAccount{holding(mint, "1000000.000000001")}, true},
	}
	for _, tc := range cases {
		reader := &fakeChain{accounts: map[string][]chain.TokenAccount{mint: tc.accounts}}
		decision, err := NewEvaluator(reader, DefaultConfig(), nil, nil).Evaluate(context.Background(), wallet, []gatemodel.Rule{rule})
		if err != nil {
			t.Fatalf("%s: evaluate failed: %v", tc.name, err)
		}
		if decision.Admitted != tc.admitted {
			t.Fatalf("%s: expected admitted=%v, got %+v", tc.name, tc.admitted, decision)
		}
		if !tc.admitted && decision.Reason != gatepolicy.ReasonInsufficientBalance {
			t.Fatalf("%s: unexpected reason %q", tc.name, decision.Reason)
		}
	}
}

func TestRPCErrorDeniesWithoutLeakingDetail(t *testing.T) {
	wallet := testAddress(t, 1)
	mint := testAddress(t, 20)
	reader := &fakeChain{accErr: &chain.RPCError{Code: -32005, Message: "node is behind by 42 slots"}}
	decision, err := NewEvaluator(reader, DefaultConfig(), nil, nil).Evaluate(context.Background(), wallet, []gatemodel.Rule{gatemodel.NFTRule{Mint: mint, MinBalance: "1"}})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.RuleType != "NFT" || decision.Reason != gatepolicy.ReasonChainUnavailable {
		t.Fatalf("expected fail-closed NFT denial, got %+v", decision)
	}
}

func TestSlowNodeTimesOutClosed(t *testing.T) {
	wallet := testAddress(t, 1)
	cfg := DefaultConfig()
	cfg.RuleTimeout = 20 * time.Millisecond
	reader := &fakeChain{block: true}

	started := time.Now()
	decision, err := NewEvaluator(reader, cfg, nil, nil).Evaluate(context.Background(), wallet, []gatemodel.Rule{gatemodel.TokenRule{Mint: testAddress(t, 20), MinBalance: "1"}})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.Reason != gatepolicy.ReasonTimeout {
		t.Fatalf("expected timeout denial, got %+v", decision)
	}
	if time.Since(started) > 2*time.Second {
		t.Fatal("rule timeout did not bound evaluation")
	}
}

func TestStalledNodeThroughClientReportsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := DefaultConfig()
	cfg.RuleTimeout = 50 * time.Millisecond
	reader := chain.NewClient(srv.URL, chain.Options{Timeout: 5 * time.Second})
	recorder := &countingRecorder{}
	decision, err := NewEvaluator(reader, cfg, nil, recorder).Evaluate(context.Background(), testAddress(t, 1), []gatemodel.Rule{gatemodel.TokenRule{Mint: testAddress(t, 20), MinBalance: "1"}})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.Reason != gatepolicy.ReasonTimeout {
		t.Fatalf("expected timeout denial from stalled node, got %+v", decision)
	}
	if recorder.errors["network"] != 1 {
		t.Fatalf("expected one network error recorded, got %v", recorder.errors)
	}
}

func TestNilRuleIsDeniedNotPanicking(t *testing.T) {
	mint := testAddress(t, 20)
	reader := &fakeChain{accounts: map[string][]chain.TokenAccount{mint: {holding(mint, "5")}}}
	rules := []gatemodel.Rule{gatemodel.TokenRule{Mint: mint, MinBalance: "1"}, nil}
	decision, err := NewEvaluator(reader, DefaultConfig(), nil, nil).Evaluate(context.Background(), testAddress(t, 1), rules)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.Reason != gatepolicy.ReasonInvalidRule || decision.RuleType != "INVALID" {
		t.Fatalf("expected invalid-rule denial, got %+v", decision)
	}
	if len(decision.Failures) != 1 || decision.Failures[0].Index != 1 {
		t.Fatalf("unexpected failures: %+v", decision.Failures)
	}
}

func TestDecisionReportsFirstFailureInDeclarationOrder(t *testing.T) {
	f := newGenesisFixture(t)
	okMint := testAddress(t, 20)
	nftMint := testAddress(t, 21)
	reader := &fakeChain{
		accounts: map[string][]chain.TokenAccount{okMint: {holding(okMint, "5")}},
	}
	recorder := &countingRecorder{}
	rules := []gatemodel.Rule{
		gatemodel.TokenRule{Mint: okMint, MinBalance: "1"},
		gatemodel.NFTRule{Mint: nftMint, MinBalance: "1"},
		gatemodel.GenesisRule{},
	}
	decision, err := NewEvaluator(reader, f.cfg, nil, recorder).Evaluate(context.Background(), f.wallet, rules)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Admitted || decision.RuleType != "NFT" {
		t.Fatalf("expected NFT as first failure, got %+v", decision)
	}
	if len(decision.Failures) != 2 || decision.Failures[0].Index != 1 || decision.Failures[1].Index != 2 {
		t.Fatalf("unexpected failures: %+v", decision.Failures)
	}
	if recorder.rules != 3 || recorder.decisions != 1 {
		t.Fatalf("unexpected recorder counts: rules=%d decisions=%d", recorder.rules, recorder.decisions)
	}
}

func TestEvaluateEdgeCases(t *testing.T) {
	e := NewEvaluator(&fakeChain{}, DefaultConfig(), nil, nil)
	if _, err := e.Evaluate(context.Background(), "nope", nil); !errors.Is(err, ErrInvalidWallet) {
		t.Fatalf("expected ErrInvalidWallet, got %v", err)
	}
	decision, err := e.Evaluate(context.Background(), testAddress(t, 1), nil)
	if err != nil || !decision.Admitted {
		t.Fatalf("no rules must admit: %+v %v", decision, err)
	}
	if _, err := e.EvaluateRecords(context.Background(), testAddress(t, 1), []models.GateRuleRecord{{GateType: "VIP"}}); !errors.Is(err, gatemodel.ErrUnknownGateType) {
		t.Fatalf("expected ErrUnknownGateType, got %v", err)
	}

	noChain := NewEvaluator(nil, DefaultConfig(), nil, nil)
	decision, _ = noChain.Evaluate(context.Background(), testAddress(t, 1), []gatemodel.Rule{gatemodel.GenesisRule{}})
	if decision.Admitted {
		t.Fatal("missing chain reader must deny")
	}
}
