package casting

import (
	"context"

	"github.com/villagemind/spellcore/internal/effect"
)

//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mockcasting -source=types.go

// Service is the host-facing entry point for running stored effects.
type Service interface {
	// Cast executes a stored effect for a caster against an optional target
	Cast(ctx context.Context, input *CastInput) (*CastResult, error)

	// LoadGrimoire registers every effect in a grimoire on the
	// interpreter so chain_effect/trigger_effect can resolve them,
	// returning how many were registered
	LoadGrimoire(ctx context.Context, grimoireID string) (int, error)
}

// Scheduler receives deferred operation batches for later ticks. The
// interpreter records delays; draining them on time is host work.
type Scheduler interface {
	Schedule(ctx context.Context, op effect.DelayedOperation) error
}

// CastInput identifies what to cast and who is involved.
type CastInput struct {
	EffectID string
	CasterID string
	TargetID string // optional for self/area effects
	Tick     int64

	// Extra feeds additional context.* variables into expressions
	Extra map[string]any
}

// CastResult carries the execution summary plus scheduling info.
type CastResult struct {
	Result  *effect.Result
	Delayed int // deferred batches handed to the scheduler
}
