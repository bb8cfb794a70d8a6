package application

import (
	"fmt"
	"time"

	"jarvis/internal/domain"
)

type RecoveryAction string

const (
	// RecoverSilently re-listens without telling the user.
	RecoverSilently RecoveryAction = "silent"
	// RecoverWithApology prints the fallback message, then re-listens.
	RecoverWithApology RecoveryAction = "apologize"
	// RecoverAbort stops Run and returns the failure.
	RecoverAbort RecoveryAction = "abort"
)

func ParseRecoveryAction(s string) (RecoveryAction, error) {
	switch RecoveryAction(s) {
	case RecoverSilently, RecoverWithApology, RecoverAbort:
		return RecoveryAction(s), nil
	default:
		return "", fmt.Errorf("unknown recovery action: %q", s)
	}
}

// RecoveryPolicy is the loop's reaction to one kind of failure.
// EscalateAfter of zero never escalates.
type RecoveryPolicy struct {
	Action        RecoveryAction
	Pause         time.Duration
	EscalateAfter int
}

type Policies map[domain.FailureKind]RecoveryPolicy

func DefaultPolicies() Policies {
	return Policies{
		domain.FailureCaptureTimeout: {Action: RecoverSilently},
		domain.FailureCapture:        {Action: RecoverSilently, Pause: time.Second, EscalateAfter: 5},
		domain.FailureTranscription:  {Action: RecoverWithApology},
		domain.FailureGeneration:     {Action: RecoverWithApology, EscalateAfter: 3},
		domain.FailureSynthesis:      {Action: RecoverWithApology},
	}
}

// For returns the policy for kind, falling back to an apology for kinds nobody configured.
func (p Policies) For(kind domain.FailureKind) RecoveryPolicy {
	if policy, ok := p[kind]; ok {
		return policy
	}
	return RecoveryPolicy{Action: RecoverWithApology}
}

// Merge overlays the given policies on top of p and returns the result.
func (p Policies) Merge(overrides Policies) Policies {
	merged := make(Policies, len(p)+len(overrides))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
