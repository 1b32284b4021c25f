package notifiermock

import (
	"context"
	"sync"

	"btc-lending-backend/internal/domain/notifier"
)

var _ notifier.Notifier = (*Recorder)(nil)

type Call struct {
	OwnerID string
	LoanID  string
}

// Recorder remembers every notification; Err, when set, is returned after
// recording.
type Recorder struct {
	Err error

	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) NotifyLiquidation(_ context.Context, ownerID, loanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{OwnerID: ownerID, LoanID: loanID})
	return r.Err
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
