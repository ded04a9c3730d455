package hwsigner

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Serialized admits one signing request at a time. The device session is not
// reentrant, so a second caller waits until the first prompt resolves or its
// own context ends.
type Serialized struct {
	next Signer
	sem  *semaphore.Weighted
}

func Serialize(next Signer) *Serialized {
	if s, ok := next.(*Serialized); ok {
		return s
	}
	return &Serialized{next: next, sem: semaphore.NewWeighted(1)}
}

func (s *Serialized) PublicKey() []byte {
	return s.next.PublicKey()
}

func (s *Serialized) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	sig, err := s.next.SignMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 {
		return nil, ErrUserCancelled
	}
	return sig, nil
}

// Busy reports whether a prompt is currently in flight.
func (s *Serialized) Busy() bool {
	if !s.sem.TryAcquire(1) {
		return true
	}
	s.sem.Release(1)
	return false
}
