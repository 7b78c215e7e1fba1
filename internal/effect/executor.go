package effect

import (
	"encoding/json"
	"math"
	"strings"

	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/effect/expr"
	"github.com/villagemind/spellcore/internal/world"
)

// executeOperations runs an operation list against the target bound in
// ctx. Every dispatch charges the global operation budget; nesting
// (conditionals, repeats, chains) recurses at depth+1 against the
// depth limit.
func (in *Interpreter) executeOperations(effectID string, ops []Operation, ctx *Context, depth int) error {
	if depth > in.limits.MaxDepth {
		return apperrors.LimitExceededf("maximum execution depth of %d exceeded", in.limits.MaxDepth)
	}

	for i := range ops {
		if err := in.countOperation(); err != nil {
			return err
		}

		op := &ops[i]
		if ctx.Target != nil && !in.trackAffected(ctx.Target.ID()) {
			// entity cap reached and this target was never admitted
			continue
		}

		if err := in.executeOperation(effectID, op, ctx, depth); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) executeOperation(effectID string, op *Operation, ctx *Context, depth int) error {
	switch op.Op {
	case OpModifyStat:
		return in.execStatWrite(op, ctx, false)
	case OpSetStat:
		return in.execStatWrite(op, ctx, true)
	case OpApplyStatus:
		return in.execApplyStatus(op, ctx)
	case OpRemoveStatus:
		return in.execRemoveStatus(op, ctx)
	case OpDealDamage:
		return in.execDealDamage(op, ctx)
	case OpHeal:
		return in.execHeal(op, ctx)
	case OpTeleport:
		return in.execTeleport(op, ctx)
	case OpPush:
		return in.execPush(op, ctx)
	case OpPull:
		return in.execPull(op, ctx)
	case OpSpawnEntity:
		return in.execSpawn(op, ctx, false)
	case OpSpawnItem:
		return in.execSpawn(op, ctx, true)
	case OpTransformEntity:
		return in.execTransformEntity(op, ctx)
	case OpTransformMaterial:
		return in.execTransformMaterial(op, ctx)
	case OpEmitEvent:
		return in.execEmitEvent(op, ctx)
	case OpChainEffect:
		return in.execChain(op, ctx, depth)
	case OpTriggerEffect:
		return in.execTrigger(op, ctx, depth)
	case OpConditional:
		return in.execConditional(effectID, op, ctx, depth)
	case OpRepeat:
		return in.execRepeat(effectID, op, ctx, depth)
	case OpDelay:
		return in.execDelay(effectID, op, ctx)
	}

	// the union is closed; reaching this means the document carried a
	// tag no release ever wrote
	return apperrors.UnsafeInputf("unknown operation %q", op.Op)
}

func (in *Interpreter) execStatWrite(op *Operation, ctx *Context, absolute bool) error {
	if err := validateStatName(op.Stat); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	amount, err := in.evalNumber(op.Amount, ctx, 0)
	if err != nil {
		return err
	}

	mod := &world.StatModifier{
		Version:  1,
		Stat:     op.Stat,
		Amount:   amount,
		Absolute: absolute,
	}
	if op.Duration > 0 {
		mod.ExpiresAt = ctx.Tick + op.Duration
	}
	if err := ctx.World.AddComponent(ctx.Target.ID(), mod); err != nil {
		return err
	}

	in.st.statMods = append(in.st.statMods, StatModification{
		EntityID: ctx.Target.ID(),
		Stat:     op.Stat,
		Amount:   amount,
		Absolute: absolute,
	})
	return nil
}

func (in *Interpreter) execApplyStatus(op *Operation, ctx *Context) error {
	if err := validateStatusName(op.Status); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	stacks := op.Stacks
	if stacks <= 0 {
		stacks = 1
	}
	status := &world.StatusEffect{
		Version: 1,
		Name:    op.Status,
		Stacks:  stacks,
	}
	if op.Duration > 0 {
		status.ExpiresAt = ctx.Tick + op.Duration
	}
	if err := ctx.World.AddComponent(ctx.Target.ID(), status); err != nil {
		return err
	}

	in.st.statuses = append(in.st.statuses, StatusApplication{
		EntityID: ctx.Target.ID(),
		Status:   op.Status,
		Stacks:   stacks,
	})
	return nil
}

func (in *Interpreter) execRemoveStatus(op *Operation, ctx *Context) error {
	if err := validateStatusName(op.Status); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	// Removal by name within the status component is the component
	// system's concern; here the status component is dropped wholesale
	// when it carries the named status.
	if c, ok := ctx.Target.Component(world.ComponentStatusEffect); ok {
		if status, ok := c.(*world.StatusEffect); ok && status.Name == op.Status {
			if err := ctx.World.RemoveComponent(ctx.Target.ID(), world.ComponentStatusEffect); err != nil {
				return err
			}
		}
	}

	in.st.statuses = append(in.st.statuses, StatusApplication{
		EntityID: ctx.Target.ID(),
		Status:   op.Status,
		Removed:  true,
	})
	return nil
}

func (in *Interpreter) execDealDamage(op *Operation, ctx *Context) error {
	amount, err := in.evalNumber(op.Amount, ctx, 0)
	if err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	// A negative damage roll heals. Deliberate: expressions like
	// "10 - target.resilience * 20" swing past zero and content relies
	// on the swing being beneficial.
	if amount < 0 {
		in.applyHealing(ctx.Target, -amount)
		return nil
	}

	remaining := in.limits.MaxDamagePerEffect - in.st.damageDealt
	if remaining <= 0 {
		return nil
	}
	applied := math.Min(amount, remaining)
	in.st.damageDealt += applied

	if needs := entityNeeds(ctx.Target); needs != nil {
		needs.Health = math.Max(0, needs.Health-applied/100)
	}
	return nil
}

func (in *Interpreter) execHeal(op *Operation, ctx *Context) error {
	amount, err := in.evalNumber(op.Amount, ctx, 0)
	if err != nil {
		return err
	}
	if ctx.Target == nil || amount <= 0 {
		return nil
	}

	in.applyHealing(ctx.Target, amount)
	return nil
}

// applyHealing restores health on the normalized 0-1 scale, never past
// full. Healing totals track the requested amount, not the applied
// fraction.
func (in *Interpreter) applyHealing(target world.Entity, amount float64) {
	in.st.healingDone += amount
	if needs := entityNeeds(target); needs != nil {
		needs.Health = math.Min(1.0, needs.Health+amount/100)
	}
}

func (in *Interpreter) execTeleport(op *Operation, ctx *Context) error {
	if op.To == nil {
		return apperrors.Validation("teleport requires a destination")
	}
	x, y, err := in.evalLocation(op.To, ctx)
	if err != nil {
		return err
	}
	if err := checkCoordinate(x); err != nil {
		return err
	}
	if err := checkCoordinate(y); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	pos := entityPosition(ctx.Target)
	if pos == nil {
		pos = &world.Position{}
		if err := ctx.World.AddComponent(ctx.Target.ID(), pos); err != nil {
			return err
		}
	}
	pos.X = x
	pos.Y = y
	return nil
}

// checkCoordinate rejects non-finite and out-of-bounds coordinates.
// This is an integrity check on effect content, not a gameplay rule.
func checkCoordinate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.UnsafeInput("coordinate is not a finite number")
	}
	if math.Abs(v) > MaxTeleportCoordinate {
		return apperrors.UnsafeInputf("coordinate %.0f outside world bounds", v)
	}
	return nil
}

func (in *Interpreter) execPush(op *Operation, ctx *Context) error {
	if ctx.Target == nil {
		return nil
	}
	pos := entityPosition(ctx.Target)
	if pos == nil {
		return nil
	}

	var dx, dy float64
	if op.Direction != nil {
		var err error
		dx, dy, err = in.evalLocation(op.Direction, ctx)
		if err != nil {
			return err
		}
	} else if casterPos := entityPosition(ctx.Caster); casterPos != nil {
		// default push direction is away from the caster
		dx = pos.X - casterPos.X
		dy = pos.Y - casterPos.Y
	}

	distance := 1.0
	if op.Distance != nil {
		var err error
		distance, err = in.evalNumber(op.Distance, ctx, 1)
		if err != nil {
			return err
		}
	}

	pos.X += dx * distance
	pos.Y += dy * distance
	return nil
}

func (in *Interpreter) execPull(op *Operation, ctx *Context) error {
	if ctx.Target == nil {
		return nil
	}
	pos := entityPosition(ctx.Target)
	casterPos := entityPosition(ctx.Caster)
	if pos == nil || casterPos == nil {
		return nil
	}

	distance := 1.0
	if op.Distance != nil {
		var err error
		distance, err = in.evalNumber(op.Distance, ctx, 1)
		if err != nil {
			return err
		}
	}

	dx := casterPos.X - pos.X
	dy := casterPos.Y - pos.Y
	distSq := dx*dx + dy*dy
	if distSq == 0 {
		return nil
	}

	// the one sqrt in the system: a normalized step needs the real
	// distance, and this runs once per pull, not per candidate
	dist := math.Sqrt(distSq)
	step := math.Min(distance, dist) / dist
	pos.X += dx * step
	pos.Y += dy * step
	return nil
}

func (in *Interpreter) execSpawn(op *Operation, ctx *Context, item bool) error {
	if item {
		if err := expr.ValidateIdentifier(op.ItemType); err != nil {
			return err
		}
	} else {
		if err := validateEntityType(op.EntityType); err != nil {
			return err
		}
	}

	count := 1.0
	if op.Count != nil {
		var err error
		count, err = in.evalNumber(op.Count, ctx, 1)
		if err != nil {
			return err
		}
	}
	if math.IsNaN(count) || count < 0 {
		return apperrors.UnsafeInputf("spawn count %v is negative", count)
	}

	remaining := in.limits.MaxSpawnsPerEffect - in.st.spawned
	if remaining < 0 {
		remaining = 0
	}
	// clamp in float64 first: converting an out-of-range float to int
	// is implementation-defined
	if count > float64(remaining) {
		count = float64(remaining)
	}
	n := int(count)

	var x, y float64
	if op.At != nil {
		var err error
		x, y, err = in.evalLocation(op.At, ctx)
		if err != nil {
			return err
		}
		if err := checkCoordinate(x); err != nil {
			return err
		}
		if err := checkCoordinate(y); err != nil {
			return err
		}
	} else if pos := entityPosition(ctx.Caster); pos != nil {
		x, y = pos.X, pos.Y
	}

	for i := 0; i < n; i++ {
		spawned := ctx.World.CreateEntity()
		id := spawned.ID()
		if err := ctx.World.AddComponent(id, &world.Position{X: x, Y: y}); err != nil {
			return err
		}
		if item {
			if err := ctx.World.AddComponent(id, &world.Item{Version: 1, ItemType: op.ItemType, Quantity: 1}); err != nil {
				return err
			}
			if err := ctx.World.AddComponent(id, &world.Tag{Name: "item"}); err != nil {
				return err
			}
		} else {
			if err := ctx.World.AddComponent(id, &world.Tag{Name: op.EntityType}); err != nil {
				return err
			}
			if err := ctx.World.AddComponent(id, &world.Identity{EntityType: op.EntityType}); err != nil {
				return err
			}
		}
		in.st.spawned++
		in.trackAffected(id)
	}
	return nil
}

func (in *Interpreter) execTransformEntity(op *Operation, ctx *Context) error {
	if err := validateEntityType(op.Into); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	transform := &world.Transformation{
		Version:    1,
		IntoType:   op.Into,
		OriginalID: ctx.Target.ID(),
	}
	if c, ok := ctx.Target.Component(world.ComponentIdentity); ok {
		if ident, ok := c.(*world.Identity); ok {
			transform.OriginalType = ident.EntityType
		}
	}
	if op.Duration > 0 {
		transform.ExpiresAt = ctx.Tick + op.Duration
	}
	return ctx.World.AddComponent(ctx.Target.ID(), transform)
}

func (in *Interpreter) execTransformMaterial(op *Operation, ctx *Context) error {
	if err := expr.ValidateIdentifier(op.FromMaterial); err != nil {
		return err
	}
	if err := expr.ValidateIdentifier(op.ToMaterial); err != nil {
		return err
	}
	if ctx.Target == nil {
		return nil
	}

	return ctx.World.AddComponent(ctx.Target.ID(), &world.MaterialTransform{
		Version: 1,
		From:    op.FromMaterial,
		To:      op.ToMaterial,
	})
}

func (in *Interpreter) execEmitEvent(op *Operation, ctx *Context) error {
	if err := expr.ValidateIdentifier(op.Event); err != nil {
		return err
	}

	event := Event{Name: op.Event}
	if ctx.Caster != nil {
		event.Source = ctx.Caster.ID()
	}
	if ctx.Target != nil {
		event.Target = ctx.Target.ID()
	}

	if len(op.Payload) > 0 {
		event.Payload = make(map[string]any, len(op.Payload))
		for key, raw := range op.Payload {
			event.Payload[key] = in.resolvePayloadValue(raw, ctx)
		}
	}

	in.st.events = append(in.st.events, event)
	return nil
}

// resolvePayloadValue resolves one emit_event payload field. Numbers
// pass through; strings with a known variable-reference prefix are
// evaluated as expressions, falling back to the literal string when
// evaluation fails; other strings stay literal; structured values are
// evaluated and fall back to nil. Prefix sniffing is a known sharp
// edge: a legitimate string that happens to start with "target." will
// be evaluated. Content that needs such strings must not route them
// through payloads.
func (in *Interpreter) resolvePayloadValue(raw any, ctx *Context) any {
	_, scope := scopeFor(ctx, ctx.Target)

	switch v := raw.(type) {
	case float64, int, int64, bool, nil:
		return v

	case string:
		if hasVariablePrefix(v) {
			node, err := expr.Parse(v)
			if err != nil {
				return v
			}
			val, err := in.evaluator.Evaluate(node, scope)
			if err != nil {
				return v
			}
			return val
		}
		return v
	}

	// structured payload values are expression documents
	var e Expression
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	if err := e.UnmarshalJSON(data); err != nil {
		return nil
	}
	val, err := in.evaluator.Evaluate(e.Node(), scope)
	if err != nil {
		return nil
	}
	return val
}

func hasVariablePrefix(s string) bool {
	for _, prefix := range []string{"caster.", "target.", "world.", "context."} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func (in *Interpreter) execChain(op *Operation, ctx *Context, depth int) error {
	chained, ok := in.registry[op.EffectID]
	if !ok {
		// effects register lazily; a missing chain target is a no-op,
		// not an authoring error
		return nil
	}

	selector := &chained.Target
	if op.Target != nil {
		selector = op.Target
	}
	targets, err := in.selectTargets(selector, ctx)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if !in.trackAffected(target.ID()) {
			continue
		}
		in.st.chainDepth++
		if in.st.chainDepth > in.limits.MaxChainDepth {
			in.st.chainDepth--
			return apperrors.LimitExceededf("maximum chain depth of %d exceeded", in.limits.MaxChainDepth)
		}
		in.st.chains++

		bound, _ := scopeFor(ctx, target)
		err := in.executeOperations(chained.ID, chained.Operations, bound, depth+1)
		in.st.chainDepth--
		if err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execTrigger(op *Operation, ctx *Context, depth int) error {
	triggered, ok := in.registry[op.EffectID]
	if !ok {
		return nil
	}
	if ctx.Target == nil {
		return nil
	}

	in.st.chainDepth++
	if in.st.chainDepth > in.limits.MaxChainDepth {
		in.st.chainDepth--
		return apperrors.LimitExceededf("maximum chain depth of %d exceeded", in.limits.MaxChainDepth)
	}
	in.st.chains++

	err := in.executeOperations(triggered.ID, triggered.Operations, ctx, depth+1)
	in.st.chainDepth--
	return err
}

func (in *Interpreter) execConditional(effectID string, op *Operation, ctx *Context, depth int) error {
	_, scope := scopeFor(ctx, ctx.Target)
	ok, err := evaluateCondition(in.evaluator, op.Condition, scope)
	if err != nil {
		return err
	}

	if ok {
		return in.executeOperations(effectID, op.Then, ctx, depth+1)
	}
	if len(op.Else) > 0 {
		return in.executeOperations(effectID, op.Else, ctx, depth+1)
	}
	return nil
}

func (in *Interpreter) execRepeat(effectID string, op *Operation, ctx *Context, depth int) error {
	times := 0.0
	if op.Times != nil {
		var err error
		times, err = in.evalNumber(op.Times, ctx, 0)
		if err != nil {
			return err
		}
	}
	if math.IsNaN(times) || times < 0 {
		return apperrors.UnsafeInputf("repeat count %v is negative", times)
	}

	// cap in float64 before converting; anything past the operation
	// budget trips countOperation inside the loop anyway
	if most := float64(in.limits.MaxOperations) + 1; times > most {
		times = most
	}

	for i := 0; i < int(times); i++ {
		if err := in.executeOperations(effectID, op.Operations, ctx, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execDelay(effectID string, op *Operation, ctx *Context) error {
	delayed := DelayedOperation{
		EffectID:   effectID,
		Operations: op.Operations,
		ExecuteAt:  ctx.Tick + op.Ticks,
	}
	if ctx.Target != nil {
		delayed.TargetID = ctx.Target.ID()
	}
	in.st.delayed = append(in.st.delayed, delayed)
	return nil
}

// evalNumber evaluates an optional amount expression with the target
// bound, defaulting when absent.
func (in *Interpreter) evalNumber(e *Expression, ctx *Context, def float64) (float64, error) {
	if e == nil || e.Node() == nil {
		return def, nil
	}
	_, scope := scopeFor(ctx, ctx.Target)
	return in.evaluator.EvaluateNumber(e.Node(), scope)
}

func (in *Interpreter) evalLocation(loc *Location, ctx *Context) (float64, float64, error) {
	x, err := in.evalNumber(loc.X, ctx, 0)
	if err != nil {
		return 0, 0, err
	}
	y, err := in.evalNumber(loc.Y, ctx, 0)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func entityNeeds(e world.Entity) *world.Needs {
	if e == nil {
		return nil
	}
	c, ok := e.Component(world.ComponentNeeds)
	if !ok {
		return nil
	}
	needs, ok := c.(*world.Needs)
	if !ok {
		return nil
	}
	return needs
}
