package effect

import (
	"time"

	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/effect/expr"
)

// Limits are the hard resource bounds on one effect execution.
// Operation count, depth and chain depth breaches abort the execution
// with a fatal error; the entity/damage/spawn caps clamp instead.
type Limits struct {
	MaxOperations       int
	MaxDepth            int
	MaxEntitiesAffected int
	MaxDamagePerEffect  float64
	MaxSpawnsPerEffect  int
	MaxChainDepth       int
	MaxTargets          int

	// Timeout is recorded for the host scheduler; the interpreter's
	// protection against runaway execution is the deterministic
	// counters above, not wall-clock preemption.
	Timeout time.Duration

	Expression expr.Limits
}

// DefaultLimits suit authored village content; generated content runs
// under the same bounds.
var DefaultLimits = Limits{
	MaxOperations:       1000,
	MaxDepth:            10,
	MaxEntitiesAffected: 50,
	MaxDamagePerEffect:  100,
	MaxSpawnsPerEffect:  10,
	MaxChainDepth:       5,
	MaxTargets:          20,
	Timeout:             5 * time.Second,
	Expression:          expr.DefaultLimits,
}

// Interpreter executes effect definitions. An instance is not safe for
// concurrent use: all per-call accumulators live on the instance and
// are cleared by reset at the top of every Execute.
type Interpreter struct {
	limits    Limits
	registry  map[string]*EffectExpression
	evaluator *expr.Evaluator
	st        execState
}

// Config configures an Interpreter.
type Config struct {
	// Limits defaults to DefaultLimits; zero-valued fields inherit the
	// default for that field
	Limits *Limits
}

// execState is the per-execution accumulator set. Everything here is
// owned by exactly one Execute call and must never leak into the next.
type execState struct {
	ops        int
	chainDepth int

	affected      map[string]struct{}
	affectedOrder []string
	visited       map[string]struct{}

	damageDealt float64
	healingDone float64
	spawned     int
	chains      int

	events   []Event
	statMods []StatModification
	statuses []StatusApplication
	delayed  []DelayedOperation
}

// New creates an Interpreter.
func New(cfg *Config) *Interpreter {
	limits := DefaultLimits
	if cfg != nil && cfg.Limits != nil {
		limits = mergeLimits(*cfg.Limits)
	}

	return &Interpreter{
		limits:    limits,
		registry:  make(map[string]*EffectExpression),
		evaluator: expr.NewEvaluator(limits.Expression),
	}
}

func mergeLimits(l Limits) Limits {
	if l.MaxOperations <= 0 {
		l.MaxOperations = DefaultLimits.MaxOperations
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLimits.MaxDepth
	}
	if l.MaxEntitiesAffected <= 0 {
		l.MaxEntitiesAffected = DefaultLimits.MaxEntitiesAffected
	}
	if l.MaxDamagePerEffect <= 0 {
		l.MaxDamagePerEffect = DefaultLimits.MaxDamagePerEffect
	}
	if l.MaxSpawnsPerEffect <= 0 {
		l.MaxSpawnsPerEffect = DefaultLimits.MaxSpawnsPerEffect
	}
	if l.MaxChainDepth <= 0 {
		l.MaxChainDepth = DefaultLimits.MaxChainDepth
	}
	if l.MaxTargets <= 0 {
		l.MaxTargets = DefaultLimits.MaxTargets
	}
	if l.Timeout <= 0 {
		l.Timeout = DefaultLimits.Timeout
	}
	return l
}

// Limits returns the interpreter's effective limits.
func (in *Interpreter) Limits() Limits {
	return in.limits
}

// RegisterEffect makes an effect chainable/triggerable by ID. Effects
// without an ID cannot be registered.
func (in *Interpreter) RegisterEffect(effect *EffectExpression) error {
	if effect == nil {
		return apperrors.InvalidArgument("effect cannot be nil")
	}
	if effect.ID == "" {
		return apperrors.InvalidArgument("effect has no id")
	}
	in.registry[effect.ID] = effect
	return nil
}

// RegisteredEffect looks up a registered effect by ID.
func (in *Interpreter) RegisteredEffect(id string) (*EffectExpression, bool) {
	e, ok := in.registry[id]
	return e, ok
}

// DelayedOperations returns the deferred batches recorded by the last
// execution. The host scheduler drains these on the appropriate ticks;
// the interpreter never runs them itself.
func (in *Interpreter) DelayedOperations() []DelayedOperation {
	return in.st.delayed
}

// reset clears every per-call accumulator. Execute calls it on entry,
// so a pooled interpreter carries nothing between executions.
func (in *Interpreter) reset() {
	in.st = execState{
		affected: make(map[string]struct{}),
		visited:  make(map[string]struct{}),
	}
	in.evaluator.Reset()
}

// Execute runs one effect against the context. Soft outcomes
// (conditions not met, empty target set, caps clamping work away) come
// back in the Result with a nil error. A non-nil error is always the
// fatal, security-relevant class: limit breaches and unsafe input must
// reach the caller so content validation can reject the effect, never
// be absorbed into a quiet failure.
func (in *Interpreter) Execute(effect *EffectExpression, ctx *Context) (*Result, error) {
	if effect == nil {
		return nil, apperrors.InvalidArgument("effect cannot be nil")
	}
	if ctx == nil {
		return nil, apperrors.InvalidArgument("context cannot be nil")
	}
	if ctx.World == nil {
		return nil, apperrors.InvalidArgument("context has no world")
	}

	in.reset()

	if effect.ID != "" {
		in.registry[effect.ID] = effect
	}

	_, scope := scopeFor(ctx, ctx.Target)
	met, err := evaluateConditions(in.evaluator, effect.Conditions, scope)
	if err != nil {
		return in.classify(effect, err)
	}
	if !met {
		return &Result{
			Success: false,
			Reason:  ReasonConditionsNotMet,
			Timing:  effect.Timing,
		}, nil
	}

	targets, err := in.selectTargets(&effect.Target, ctx)
	if err != nil {
		return in.classify(effect, err)
	}
	if len(targets) == 0 {
		return in.buildResult(effect, true, ""), nil
	}

	for _, target := range targets {
		if !in.trackAffected(target.ID()) {
			// entity cap reached: remaining targets are skipped, the
			// work done so far stands
			continue
		}
		bound, _ := scopeFor(ctx, target)
		if err := in.executeOperations(effect.ID, effect.Operations, bound, 0); err != nil {
			return in.classify(effect, err)
		}
	}

	return in.buildResult(effect, true, ""), nil
}

// classify splits failures into the two disjoint classes: fatal
// (limit/unsafe-input) errors propagate, anything else becomes an
// unsuccessful result.
func (in *Interpreter) classify(effect *EffectExpression, err error) (*Result, error) {
	if apperrors.IsFatal(err) {
		return nil, err
	}
	res := in.buildResult(effect, false, err.Error())
	return res, nil
}

func (in *Interpreter) buildResult(effect *EffectExpression, success bool, errMsg string) *Result {
	return &Result{
		Success:           success,
		Error:             errMsg,
		AffectedEntities:  append([]string(nil), in.st.affectedOrder...),
		DamageDealt:       in.st.damageDealt,
		HealingDone:       in.st.healingDone,
		EntitiesSpawned:   in.st.spawned,
		EventsEmitted:     append([]Event(nil), in.st.events...),
		StatModifications: append([]StatModification(nil), in.st.statMods...),
		StatusesApplied:   append([]StatusApplication(nil), in.st.statuses...),
		ChainsInvoked:     in.st.chains,
		Timing:            effect.Timing,
	}
}

// trackAffected records an entity in the affected set, reporting
// whether work against it may proceed. Once the cap is reached, new
// entities are refused without error.
func (in *Interpreter) trackAffected(entityID string) bool {
	if entityID == "" {
		return true
	}
	if _, ok := in.st.affected[entityID]; ok {
		return true
	}
	if len(in.st.affected) >= in.limits.MaxEntitiesAffected {
		return false
	}
	in.st.affected[entityID] = struct{}{}
	in.st.affectedOrder = append(in.st.affectedOrder, entityID)
	return true
}

// countOperation charges one unit against the global operation budget.
func (in *Interpreter) countOperation() error {
	in.st.ops++
	if in.st.ops > in.limits.MaxOperations {
		return apperrors.LimitExceededf("maximum operation count of %d exceeded", in.limits.MaxOperations)
	}
	return nil
}
