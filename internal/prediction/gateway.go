package prediction

import (
	"context"
	"log"
	"time"
)

// Status is the normalized state of a remote prediction job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// JobStatus is one observation of a remote job.
type JobStatus struct {
	Status Status
	Output []string
	Error  string
}

// JobClient submits work to a remote asynchronous prediction service and
// reads job state back.
type JobClient interface {
	Submit(ctx context.Context, modelID string, input map[string]any) (string, error)
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}

// RetryPolicy bounds the poll loop: at most MaxAttempts status checks with
// Interval between consecutive checks.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// OutcomeKind classifies the terminal result of one gateway invocation.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDegraded
	OutcomeTimedOut
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the terminal result of SubmitAndAwait. Output is set only for
// OutcomeSuccess, Reason only for OutcomeFailed.
type Outcome struct {
	Kind   OutcomeKind
	Output []string
	Reason string
}

// Gateway wraps a JobClient with bounded polling. Every invocation resolves
// to exactly one Outcome; faults inside the gateway never propagate to the
// caller as errors.
type Gateway struct {
	client JobClient
}

func NewGateway(client JobClient) *Gateway {
	return &Gateway{client: client}
}

// SubmitAndAwait submits one unit of work and polls until a terminal status
// is observed or the attempt budget is exhausted.
//
// A rejected submission fails immediately and is never retried. A succeeded
// job with a non-empty output yields Success, with an empty output Degraded.
// A failed job yields Failed with the provider's message. A broken poll
// attempt counts against the budget and polling continues. After MaxAttempts
// checks without a terminal status the result is TimedOut; cancellation of
// ctx during the wait is folded into TimedOut as well.
func (g *Gateway) SubmitAndAwait(ctx context.Context, modelID string, input map[string]any, policy RetryPolicy) Outcome {
	jobID, err := g.client.Submit(ctx, modelID, input)
	if err != nil {
		log.Printf("[Prediction] submit rejected (model=%s): %v", modelID, err)
		return Outcome{Kind: OutcomeFailed, Reason: "submission rejected: " + err.Error()}
	}

	log.Printf("[Prediction] job %s submitted (model=%s)", jobID, modelID)

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		status, err := g.client.Status(ctx, jobID)
		if err != nil {
			// Broken poll attempt: treat as non-terminal while attempts remain
			log.Printf("[Prediction] poll #%d (job=%s) — error: %v", attempt, jobID, err)
		} else {
			log.Printf("[Prediction] poll #%d (job=%s) — status: %s", attempt, jobID, status.Status)

			switch status.Status {
			case StatusSucceeded:
				if len(status.Output) == 0 {
					return Outcome{Kind: OutcomeDegraded}
				}
				return Outcome{Kind: OutcomeSuccess, Output: status.Output}
			case StatusFailed:
				reason := status.Error
				if reason == "" {
					reason = "prediction failed"
				}
				return Outcome{Kind: OutcomeFailed, Reason: reason}
			}
		}

		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			log.Printf("[Prediction] poll (job=%s) — context cancelled", jobID)
			return Outcome{Kind: OutcomeTimedOut}
		case <-time.After(policy.Interval):
		}
	}

	log.Printf("[Prediction] job %s did not finish within %d attempts", jobID, policy.MaxAttempts)
	return Outcome{Kind: OutcomeTimedOut}
}
