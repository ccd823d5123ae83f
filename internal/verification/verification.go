package verification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomePassed       Outcome = "passed"
	OutcomeFailed       Outcome = "failed"
	OutcomeInconclusive Outcome = "inconclusive"
)

// Expectation is one side effect a committed mutation should have produced.
type Expectation[T any] struct {
	Name  string
	Check func(data T) error
}

type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

type Report struct {
	Outcome   Outcome   `json:"outcome"`
	Results   []Result  `json:"results"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Failed lists the expectations that did not hold.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pass re-reads authoritative state after a settle delay. It is advisory only:
// it never retries or reverses the mutation it checks.
type Pass struct {
	SettleDelay time.Duration
	Sleeper     Sleeper
	Logger      *zap.Logger
}

func NewPass(settleDelay time.Duration, logger *zap.Logger) *Pass {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pass{SettleDelay: settleDelay, Sleeper: Sleep, Logger: logger}
}

// Run waits for the settle delay, calls refetch once and checks every expectation.
func Run[T any](ctx context.Context, p *Pass, refetch func(ctx context.Context) (T, error), expectations []Expectation[T]) *Report {
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = Sleep
	}

	report := &Report{}
	defer func() { report.CheckedAt = time.Now() }()

	if err := sleeper(ctx, p.SettleDelay); err != nil {
		report.Outcome = OutcomeInconclusive
		report.Error = fmt.Sprintf("settle wait interrupted: %v", err)
		return report
	}

	data, err := refetch(ctx)
	if err != nil {
		report.Outcome = OutcomeInconclusive
		report.Error = fmt.Sprintf("unable to re-fetch state: %v", err)
		p.logger().Warn("Verification inconclusive", zap.Error(err))
		return report
	}

	report.Outcome = OutcomePassed
	for _, exp := range expectations {
		res := Result{Name: exp.Name, Passed: true}
		if checkErr := exp.Check(data); checkErr != nil {
			res.Passed = false
			res.Reason = checkErr.Error()
			report.Outcome = OutcomeFailed
		}
		report.Results = append(report.Results, res)
	}

	if report.Outcome == OutcomeFailed {
		p.logger().Warn("Verification failed", zap.Int("failed", len(report.Failed())))
	}

	return report
}

func (p *Pass) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
