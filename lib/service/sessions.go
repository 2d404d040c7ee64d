package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
)

var (
	ErrSessionClosed   = errors.New("payment session is no longer open")
	ErrPaymentInFlight = errors.New("a payment for this session is already in flight")
)

// PaymentSession tracks one soul submission from invoice creation to a
// terminal state. Transitions only ever leave awaiting_payment, and a
// terminal state is sticky.
type PaymentSession struct {
	PaymentHash string
	Tier        string
	Amount      int64
	ExpiresAt   time.Time

	mu       sync.Mutex
	state    string
	inFlight bool
	cancel   context.CancelFunc
}

func (s *PaymentSession) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin marks the session as having a payment attempt in flight. Only
// one attempt may run at a time, and only while the session is still
// awaiting payment.
func (s *PaymentSession) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != common.SessionStateAwaitingPayment {
		return ErrSessionClosed
	}
	if s.inFlight {
		return ErrPaymentInFlight
	}
	s.inFlight = true
	return nil
}

func (s *PaymentSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *PaymentSession) transition(to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != common.SessionStateAwaitingPayment {
		return false
	}
	s.state = to
	return true
}

// Settle moves the session to its paid terminal state and stops the
// monitor. Returns false if another transition won.
func (s *PaymentSession) Settle() bool {
	ok := s.transition(common.SessionStateSettled)
	if ok {
		s.stopMonitor()
	}
	return ok
}

func (s *PaymentSession) Expire() bool {
	ok := s.transition(common.SessionStateExpired)
	if ok {
		s.stopMonitor()
	}
	return ok
}

// Abort tears the session down without side effects, the "go back"
// path of the flow.
func (s *PaymentSession) Abort() bool {
	ok := s.transition(common.SessionStateAborted)
	if ok {
		s.stopMonitor()
	}
	return ok
}

func (s *PaymentSession) stopMonitor() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *PaymentSession) bindMonitor(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// OpenSession registers a session for a freshly created invoice.
func (svc *SoulService) OpenSession(invoice *models.Invoice) *PaymentSession {
	session := &PaymentSession{
		PaymentHash: invoice.RHash,
		Tier:        invoice.Tier,
		Amount:      invoice.Amount,
		ExpiresAt:   invoice.ExpiresAt.Time,
		state:       common.SessionStateAwaitingPayment,
	}
	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()
	if svc.sessions == nil {
		svc.sessions = make(map[string]*PaymentSession)
	}
	svc.sessions[invoice.RHash] = session
	return session
}

func (svc *SoulService) Session(paymentHash string) (*PaymentSession, bool) {
	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()
	session, ok := svc.sessions[paymentHash]
	return session, ok
}

func (svc *SoulService) removeSession(paymentHash string) {
	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()
	delete(svc.sessions, paymentHash)
}
