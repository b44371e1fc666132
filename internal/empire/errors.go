package empire

import (
	"fmt"
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// Reason is the closed set of expected-rejection codes. Every rejection
// a caller can provoke through normal play carries one of these; only
// data bugs surface as plain errors.
type Reason string

const (
	ReasonLockedByPrerequisite    Reason = "locked_by_prerequisite"
	ReasonNoFieldCapacity         Reason = "no_field_capacity"
	ReasonInsufficientResources   Reason = "insufficient_resources"
	ReasonConstructionBusy        Reason = "construction_busy"
	ReasonMaxLevelReached         Reason = "max_level_reached"
	ReasonInsufficientFunds       Reason = "insufficient_funds"
	ReasonInsufficientRankOrFunds Reason = "insufficient_rank_or_funds"
	ReasonInvalidAbility          Reason = "invalid_ability"
	ReasonOnCooldown              Reason = "on_cooldown"
	ReasonInvalidArgument         Reason = "invalid_argument"
	ReasonNotFound                Reason = "not_found"
)

// Rejection is a tagged refusal of an operation. It implements error so
// it can flow through ordinary return paths, and callers branch on
// Reason rather than on message text.
type Rejection struct {
	Reason Reason
	Detail string

	// Populated per reason where useful to the caller.
	Missing   map[models.StructureKey]int // locked_by_prerequisite
	Shortfall models.Resources            // insufficient_resources / insufficient_funds
	Remaining time.Duration               // on_cooldown
}

func (r *Rejection) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
	}
	return string(r.Reason)
}

// ConfigurationError reports a catalog or persisted-state bug: the kind
// of failure no player action should be able to cause.
type ConfigurationError struct {
	Subject string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Subject, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Err: fmt.Errorf(format, args...)}
}
