package effect

import (
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/effect/expr"
)

// Allow-lists for dynamically-named identifiers. Stat, status and
// entity-type names reach the executor from authored or generated
// content, so anything outside these sets is rejected hard rather than
// written into component maps.

// ValidStats are the stat names modify_stat/set_stat may touch.
var ValidStats = map[string]bool{
	"strength":     true,
	"agility":      true,
	"intelligence": true,
	"vitality":     true,
	"charisma":     true,
	"luck":         true,
	"speed":        true,
	"perception":   true,
}

// ValidStatuses are the status names apply_status/remove_status may use.
var ValidStatuses = map[string]bool{
	"blessed":      true,
	"cursed":       true,
	"burning":      true,
	"frozen":       true,
	"poisoned":     true,
	"shielded":     true,
	"hasted":       true,
	"slowed":       true,
	"regenerating": true,
	"stunned":      true,
	"invisible":    true,
	"charmed":      true,
}

// ValidEntityTypes are the entity-type tags targetable by filters,
// spawnable by spawn_entity and reachable by transform_entity.
var ValidEntityTypes = map[string]bool{
	"villager":  true,
	"animal":    true,
	"spirit":    true,
	"plant":     true,
	"item":      true,
	"structure": true,
	"elemental": true,
}

// MaxTeleportCoordinate bounds teleport destinations. Anything outside
// is treated as hostile input, not as a far-away place.
const MaxTeleportCoordinate = 10000.0

func validateStatName(name string) error {
	if err := expr.ValidateIdentifier(name); err != nil {
		return err
	}
	if !ValidStats[name] {
		return apperrors.UnsafeInputf("invalid stat name %q", name)
	}
	return nil
}

func validateStatusName(name string) error {
	if err := expr.ValidateIdentifier(name); err != nil {
		return err
	}
	if !ValidStatuses[name] {
		return apperrors.UnsafeInputf("invalid status name %q", name)
	}
	return nil
}

func validateEntityType(name string) error {
	if err := expr.ValidateIdentifier(name); err != nil {
		return err
	}
	if !ValidEntityTypes[name] {
		return apperrors.UnsafeInputf("invalid entity type %q", name)
	}
	return nil
}
