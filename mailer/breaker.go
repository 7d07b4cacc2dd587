package mailer

import (
	"context"
	"personal-brand-api/logger"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSender stops calling a failing provider for a while so callers get
// an immediate error instead of waiting on timeouts.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(name string, next Sender, maxFailures uint32, openTimeout time.Duration) *BreakerSender {
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "mailer-" + name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Mail circuit breaker changed state")
		},
	}
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Send(ctx, msg)
	})
	return err
}

// State exposes the breaker state for health reporting and tests.
func (s *BreakerSender) State() gobreaker.State {
	return s.cb.State()
}
