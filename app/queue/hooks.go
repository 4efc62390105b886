package queue

import "time"

// Outcome is the terminal state of one processed stream entry.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeFailed       Outcome = "failed"
	OutcomeRetried      Outcome = "retried"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeRejected     Outcome = "rejected"
	OutcomeInterrupted  Outcome = "interrupted"
	OutcomeBrokerError  Outcome = "broker_error"
)

// Hooks lets callers observe queue activity without this package knowing
// about the metrics backend. Nil fields are skipped.
type Hooks struct {
	Published      func(err error)
	Processed      func(outcome Outcome, elapsed time.Duration)
	RetryScheduled func()
	DeadLettered   func()
}

func (h Hooks) published(err error) {
	if h.Published != nil {
		h.Published(err)
	}
}

func (h Hooks) processed(outcome Outcome, elapsed time.Duration) {
	if h.Processed != nil {
		h.Processed(outcome, elapsed)
	}
}

func (h Hooks) retryScheduled() {
	if h.RetryScheduled != nil {
		h.RetryScheduled()
	}
}

func (h Hooks) deadLettered() {
	if h.DeadLettered != nil {
		h.DeadLettered()
	}
}
