package issuance

import (
	"fmt"
	"time"

	"certgate/internal/capability"
	"certgate/pkg/domain"
	"certgate/pkg/platform/sentinel"
)

// State is a position in the request lifecycle.
type State string

const (
	StateReceived      State = "received"
	StatePolicyChecked State = "policy_checked"
	StateDenied        State = "denied"
	StateExecuting     State = "executing"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDenied || s == StateSucceeded || s == StateFailed
}

func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StateReceived:      {StatePolicyChecked},
	StatePolicyChecked: {StateDenied, StateExecuting, StateFailed},
	StateExecuting:     {StateExecuting, StateSucceeded, StateFailed},
}

// machine enforces the lifecycle. Executing is re-entered once per step.
type machine struct {
	state State
	step  int
}

func newMachine() *machine {
	return &machine{state: StateReceived, step: -1}
}

func (m *machine) advance(to State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			if to == StateExecuting {
				m.step++
			}
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("transition %s -> %s: %w", m.state, to, sentinel.ErrInvalidState)
}

// mustAdvance panics on an illegal transition. Only the orchestrator drives
// the machine, so a failure is a programming error.
func (m *machine) mustAdvance(to State) {
	if err := m.advance(to); err != nil {
		panic(err)
	}
}

// StepRecord is one executed pipeline step. Params and Result carry paths and
// sizes only; key material never enters the working context.
type StepRecord struct {
	Operation  string            `json:"operation"`
	Params     capability.Params `json:"params"`
	Result     capability.Result `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Succeeded reports whether the step completed.
func (r StepRecord) Succeeded() bool {
	return r.Error == ""
}

// Outcome is the result of processing one request.
type Outcome struct {
	RequestID  string                  `json:"request_id"`
	Request    domain.OperationRequest `json:"request"`
	State      State                   `json:"state"`
	Verdict    *domain.Verdict         `json:"policy_check,omitempty"`
	Steps      []StepRecord            `json:"steps"`
	Artifacts  map[string]string       `json:"artifacts,omitempty"`
	Error      string                  `json:"error,omitempty"`
	FailedStep string                  `json:"failed_step,omitempty"`
	Namespace  string                  `json:"namespace,omitempty"`

	// AuditError is set when the audit append failed. The terminal state
	// stands regardless.
	AuditError error `json:"-"`
}
