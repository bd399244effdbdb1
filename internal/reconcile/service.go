package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier receives sync lifecycle outcomes. Implementations must not
// block; failures are theirs to swallow.
type Notifier interface {
	SyncCompleted(ctx context.Context, userID int, rep Report, took time.Duration)
	SyncFailed(ctx context.Context, userID int, err error)
}

// Invalidator drops cached read models for a username after convergence.
type Invalidator interface {
	Invalidate(ctx context.Context, username string)
}

// Service runs reconciliations detached from their triggering request.
// Duplicate triggers for an identity already in flight are coalesced: the
// caller still gets an acknowledgement, but no second pass starts.
type Service struct {
	rec    *Reconciler
	notify Notifier    // optional
	inval  Invalidator // optional
	log    *zap.Logger

	mu       sync.Mutex
	inflight map[int]struct{}
	wg       sync.WaitGroup
}

type ServiceOption func(*Service)

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notify = n }
}

func WithInvalidator(i Invalidator) ServiceOption {
	return func(s *Service) { s.inval = i }
}

func NewService(rec *Reconciler, log *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		rec:      rec,
		log:      log,
		inflight: make(map[int]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Trigger starts a detached reconciliation for the identity and returns
// immediately. The return reports whether a new pass was started; false
// means one was already running and this trigger was coalesced.
func (s *Service) Trigger(userID int, username string) bool {
	s.mu.Lock()
	if _, busy := s.inflight[userID]; busy {
		s.mu.Unlock()
		s.log.Info("reconciliation already in flight, coalescing trigger",
			zap.Int("user_id", userID),
		)
		return false
	}
	s.inflight[userID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(userID, username)
	return true
}

func (s *Service) run(userID int, username string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, userID)
		s.mu.Unlock()
	}()

	// Detached from the request on purpose: the trigger was acknowledged
	// before convergence and must not die with the request context.
	ctx := context.Background()
	start := time.Now()

	rep, err := s.rec.Reconcile(ctx, userID)
	if err != nil {
		s.log.Error("reconciliation aborted",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		if s.notify != nil {
			s.notify.SyncFailed(ctx, userID, err)
		}
		return
	}

	if s.notify != nil {
		s.notify.SyncCompleted(ctx, userID, rep, time.Since(start))
	}
	if s.inval != nil {
		s.inval.Invalidate(ctx, username)
	}
}

// Wait blocks until all in-flight reconciliations finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown waits for in-flight reconciliations, bounded by ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
