package hwsigner

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type nullSigner struct{}

func (nullSigner) PublicKey() []byte { return make([]byte, 32) }

func (nullSigner) SignMessage(context.Context, []byte) ([]byte, error) { return nil, nil }

type blockingSigner struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	release  chan struct{}
}

func (b *blockingSigner) PublicKey() []byte { return make([]byte, 32) }

func (b *blockingSigner) SignMessage(ctx context.Context, _ []byte) ([]byte, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		cur := b.maxSeen.Load()
		if n <= cur || b.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []byte("sig"), nil
}

func TestLocalSignerProducesVerifiableSignature(t *testing.T) {
	s, err := NewLocalSigner(make([]byte, ed25519.SeedSize))
	if err != nil {
		t.Fatalf("new signer failed: %v", err)
	}
	msg := []byte("hello")
	sig, err := s.SignMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if !ed25519.Verify(s.PublicKey(), msg, sig) {
		t.Fatal("signature must verify against signer public key")
	}
}

func TestLocalSignerRejectedPromptIsCancellation(t *testing.T) {
	s, err := GenerateLocalSigner()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	s.Approve = func(context.Context, []byte) bool { return false }
	_, err = s.SignMessage(context.Background(), []byte("x"))
	if !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
	if !IsCancelled(err) {
		t.Fatal("IsCancelled must recognise rejected prompt")
	}
}

func TestSerializedTreatsNullSignatureAsCancelled(t *testing.T) {
	_, err := Serialize(nullSigner{}).SignMessage(context.Background(), []byte("x"))
	if !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
}

func TestSerializedAllowsOneInFlightRequest(t *testing.T) {
	inner := &blockingSigner{release: make(chan struct{})}
	s := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SignMessage(context.Background(), []byte("m")); err != nil {
				t.Errorf("sign failed: %v", err)
			}
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for !s.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		inner.release <- struct{}{}
	}
	wg.Wait()
	if got := inner.maxSeen.Load(); got != 1 {
		t.Fatalf("expected at most one concurrent prompt, saw %d", got)
	}
}

func TestSerializedWaitRespectsContext(t *testing.T) {
	inner := &blockingSigner{release: make(chan struct{})}
	s := Serialize(inner)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.SignMessage(context.Background(), []byte("first"))
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.SignMessage(ctx, []byte("second")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting, got %v", err)
	}
	inner.release <- struct{}{}
	<-done
}

func TestUnavailableSigner(t *testing.T) {
	if Available(Unavailable{}) {
		t.Fatal("unavailable signer must report unavailable")
	}
	if _, err := (Unavailable{}).SignMessage(context.Background(), nil); !errors.Is(err, ErrSigningUnavailable) {
		t.Fatalf("expected ErrSigningUnavailable, got %v", err)
	}
}
