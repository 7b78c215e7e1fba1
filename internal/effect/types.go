// Package effect implements the spell-effect execution core: a typed,
// serializable effect language (expressions, conditions, target
// selectors, operations) and the sandboxed interpreter that evaluates
// effect trees against live world entities under hard resource limits.
package effect

import (
	"encoding/json"

	"github.com/villagemind/spellcore/internal/world"
)

// TargetType selects the base candidate set for an effect.
type TargetType string

const (
	TargetSelf   TargetType = "self"
	TargetSingle TargetType = "single"
	TargetArea   TargetType = "area"
	TargetCone   TargetType = "cone"
	TargetLine   TargetType = "line"
	TargetAll    TargetType = "all"
)

// TargetSelector declares which entities an effect applies to.
// Cone and line degrade to radius-based area selection; directional
// narrowing was never implemented upstream and authored content leans
// on the looser behavior.
type TargetSelector struct {
	Type            TargetType    `json:"type"`
	Radius          float64       `json:"radius,omitempty"`
	Filter          *TargetFilter `json:"filter,omitempty"`
	MaxTargets      int           `json:"maxTargets,omitempty"`
	ExcludeSelf     bool          `json:"excludeSelf,omitempty"`
	ExcludePrevious bool          `json:"excludePrevious,omitempty"`
}

// TargetFilter narrows a candidate set. Filters apply in a fixed
// order: entity types, then factions, then required components, then
// the custom predicate.
type TargetFilter struct {
	// EntityTypes passes entities carrying at least one listed type tag
	EntityTypes []string `json:"entityTypes,omitempty"`

	// Factions passes entities whose identity faction is listed
	Factions []string `json:"factions,omitempty"`

	// HasComponents requires every listed component
	HasComponents []string `json:"hasComponents,omitempty"`

	// CustomPredicate is evaluated per candidate with the candidate
	// bound as target; an erroring predicate excludes that candidate
	CustomPredicate *Expression `json:"customPredicate,omitempty"`
}

// OpType discriminates the closed operation union.
type OpType string

const (
	OpModifyStat        OpType = "modify_stat"
	OpSetStat           OpType = "set_stat"
	OpApplyStatus       OpType = "apply_status"
	OpRemoveStatus      OpType = "remove_status"
	OpDealDamage        OpType = "deal_damage"
	OpHeal              OpType = "heal"
	OpTeleport          OpType = "teleport"
	OpPush              OpType = "push"
	OpPull              OpType = "pull"
	OpSpawnEntity       OpType = "spawn_entity"
	OpSpawnItem         OpType = "spawn_item"
	OpTransformEntity   OpType = "transform_entity"
	OpTransformMaterial OpType = "transform_material"
	OpEmitEvent         OpType = "emit_event"
	OpChainEffect       OpType = "chain_effect"
	OpTriggerEffect     OpType = "trigger_effect"
	OpConditional       OpType = "conditional"
	OpRepeat            OpType = "repeat"
	OpDelay             OpType = "delay"
)

// Operation is one step of an effect, discriminated by Op. Only the
// fields relevant to the tag are populated; the executor's dispatch
// treats an unknown tag as a hard failure.
type Operation struct {
	Op OpType `json:"op"`

	// modify_stat / set_stat
	Stat string `json:"stat,omitempty"`

	// apply_status / remove_status
	Status string `json:"status,omitempty"`
	Stacks int    `json:"stacks,omitempty"`

	// modify_stat, apply_status, transform_entity: duration in ticks
	Duration int64 `json:"duration,omitempty"`

	// deal_damage / heal / modify_stat / set_stat
	Amount *Expression `json:"amount,omitempty"`

	// teleport destination, spawn location
	To *Location `json:"to,omitempty"`
	At *Location `json:"at,omitempty"`

	// push / pull
	Direction *Location   `json:"direction,omitempty"`
	Distance  *Expression `json:"distance,omitempty"`

	// spawn_entity / spawn_item
	EntityType string      `json:"entityType,omitempty"`
	ItemType   string      `json:"itemType,omitempty"`
	Count      *Expression `json:"count,omitempty"`

	// transform_entity
	Into string `json:"into,omitempty"`

	// transform_material
	FromMaterial string `json:"fromMaterial,omitempty"`
	ToMaterial   string `json:"toMaterial,omitempty"`

	// emit_event
	Event   string         `json:"event,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`

	// chain_effect / trigger_effect
	EffectID string          `json:"effectId,omitempty"`
	Target   *TargetSelector `json:"target,omitempty"`

	// conditional
	Condition *Condition  `json:"condition,omitempty"`
	Then      []Operation `json:"then,omitempty"`
	Else      []Operation `json:"else,omitempty"`

	// repeat
	Times *Expression `json:"times,omitempty"`

	// repeat / delay body
	Operations []Operation `json:"operations,omitempty"`

	// delay
	Ticks int64 `json:"ticks,omitempty"`
}

// EffectExpression is a complete, immutable effect definition. It is
// authored or generated once and registered by ID for chaining.
type EffectExpression struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Conditions []Condition     `json:"conditions,omitempty"`
	Target     TargetSelector  `json:"target"`
	Operations []Operation     `json:"operations"`
	Timing     json.RawMessage `json:"timing,omitempty"`
}

// Context is the per-execution scope an effect runs in. Target is
// rebound per resolved target during execution.
type Context struct {
	Caster world.Entity
	Target world.Entity
	World  world.World
	Tick   int64

	// Extra holds additional bound variables reachable as context.<key>
	Extra map[string]any
}

// Event is an emitted gameplay event with a resolved payload.
type Event struct {
	Name    string         `json:"name"`
	Source  string         `json:"source,omitempty"`
	Target  string         `json:"target,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// StatModification records one stat write for the result summary.
type StatModification struct {
	EntityID string  `json:"entityId"`
	Stat     string  `json:"stat"`
	Amount   float64 `json:"amount"`
	Absolute bool    `json:"absolute,omitempty"`
}

// StatusApplication records one status write for the result summary.
type StatusApplication struct {
	EntityID string `json:"entityId"`
	Status   string `json:"status"`
	Stacks   int    `json:"stacks"`
	Removed  bool   `json:"removed,omitempty"`
}

// DelayedOperation is a deferred batch the host scheduler must run at
// ExecuteAt. The interpreter records these; it never schedules.
type DelayedOperation struct {
	EffectID   string
	TargetID   string
	Operations []Operation
	ExecuteAt  int64
}

// Result summarizes one effect execution.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`

	AffectedEntities  []string            `json:"affectedEntities,omitempty"`
	DamageDealt       float64             `json:"damageDealt,omitempty"`
	HealingDone       float64             `json:"healingDone,omitempty"`
	EntitiesSpawned   int                 `json:"entitiesSpawned,omitempty"`
	EventsEmitted     []Event             `json:"eventsEmitted,omitempty"`
	StatModifications []StatModification  `json:"statModifications,omitempty"`
	StatusesApplied   []StatusApplication `json:"statusesApplied,omitempty"`
	ChainsInvoked     int                 `json:"chainsInvoked,omitempty"`

	Timing json.RawMessage `json:"timing,omitempty"`
}

// ReasonConditionsNotMet tags the soft failure returned when an
// effect's preconditions do not hold.
const ReasonConditionsNotMet = "conditions_not_met"
