package world

// Component type names used across the simulation. Effects address
// components by these names, so they double as the vocabulary of the
// hasComponents target filter.
const (
	ComponentPosition          = "position"
	ComponentNeeds             = "needs"
	ComponentIdentity          = "identity"
	ComponentStatModifier      = "stat_modifier"
	ComponentStatusEffect      = "status_effect"
	ComponentTransformation    = "transformation"
	ComponentMaterialTransform = "material_transform"
	ComponentItem              = "item"
)

// Component is any record attached to an entity. Implementations are
// plain tagged structs; the world does not require a common base
// beyond the type name.
type Component interface {
	ComponentType() string
}

// Position is a mutable 2D location.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (*Position) ComponentType() string { return ComponentPosition }

// Needs tracks an agent's drives on a normalized 0-1 scale.
type Needs struct {
	Health float64 `json:"health"`
	Hunger float64 `json:"hunger"`
	Energy float64 `json:"energy"`
	Social float64 `json:"social"`
}

func (*Needs) ComponentType() string { return ComponentNeeds }

// Identity carries who an entity is.
type Identity struct {
	Name       string `json:"name,omitempty"`
	Faction    string `json:"faction,omitempty"`
	EntityType string `json:"entityType,omitempty"`
}

func (*Identity) ComponentType() string { return ComponentIdentity }

// StatModifier is a timed stat adjustment written by effects.
// Absolute modifiers set the stat; otherwise the amount is additive.
// ExpiresAt is a simulation tick; zero means permanent.
type StatModifier struct {
	Version   int     `json:"version"`
	Stat      string  `json:"stat"`
	Amount    float64 `json:"amount"`
	Absolute  bool    `json:"absolute,omitempty"`
	Source    string  `json:"source,omitempty"`
	ExpiresAt int64   `json:"expiresAt,omitempty"`
}

func (*StatModifier) ComponentType() string { return ComponentStatModifier }

// StatusEffect is a named condition on an entity with a stack count.
type StatusEffect struct {
	Version   int    `json:"version"`
	Name      string `json:"name"`
	Stacks    int    `json:"stacks"`
	Source    string `json:"source,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

func (*StatusEffect) ComponentType() string { return ComponentStatusEffect }

// Transformation records that an entity has been turned into another
// entity type, keeping the original so it can be restored.
type Transformation struct {
	Version      int    `json:"version"`
	IntoType     string `json:"intoType"`
	OriginalID   string `json:"originalId"`
	OriginalType string `json:"originalType,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

func (*Transformation) ComponentType() string { return ComponentTransformation }

// MaterialTransform marks a from/to material change on terrain or
// structures. Applying the change is the building system's concern.
type MaterialTransform struct {
	Version int    `json:"version"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (*MaterialTransform) ComponentType() string { return ComponentMaterialTransform }

// Item marks an entity as a carryable item.
type Item struct {
	Version  int    `json:"version"`
	ItemType string `json:"itemType"`
	Quantity int    `json:"quantity"`
}

func (*Item) ComponentType() string { return ComponentItem }

// Tag is a bare marker component for entity-type tags (villager,
// animal, spirit, ...).
type Tag struct {
	Name string `json:"name"`
}

func (t *Tag) ComponentType() string { return t.Name }
