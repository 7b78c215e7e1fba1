package effect

import (
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/world"
)

// selectTargets resolves a selector to a concrete, order-preserving
// entity list of size at most the target cap.
func (in *Interpreter) selectTargets(sel *TargetSelector, ctx *Context) ([]world.Entity, error) {
	if sel == nil {
		return nil, apperrors.Validation("effect has no target selector")
	}

	candidates, err := in.baseCandidates(sel, ctx)
	if err != nil {
		return nil, err
	}

	if sel.Filter != nil {
		candidates = in.applyFilter(sel.Filter, candidates, ctx)
	}

	if sel.ExcludeSelf && ctx.Caster != nil {
		casterID := ctx.Caster.ID()
		kept := candidates[:0]
		for _, c := range candidates {
			if c.ID() != casterID {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if sel.ExcludePrevious {
		// The visited set is shared across every selector evaluation in
		// one execution. That coupling is what stops chain_effect from
		// bouncing forever between two targets, so selectors in the same
		// execution deliberately see each other's exclusions.
		kept := candidates[:0]
		for _, c := range candidates {
			if _, seen := in.st.visited[c.ID()]; !seen {
				kept = append(kept, c)
			}
		}
		candidates = kept
		for _, c := range candidates {
			in.st.visited[c.ID()] = struct{}{}
		}
	}

	max := sel.MaxTargets
	if max <= 0 || max > in.limits.MaxTargets {
		max = in.limits.MaxTargets
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates, nil
}

func (in *Interpreter) baseCandidates(sel *TargetSelector, ctx *Context) ([]world.Entity, error) {
	switch sel.Type {
	case TargetSelf:
		if ctx.Caster == nil {
			return nil, nil
		}
		return []world.Entity{ctx.Caster}, nil

	case TargetSingle:
		if ctx.Target == nil {
			return nil, nil
		}
		return []world.Entity{ctx.Target}, nil

	case TargetArea, TargetCone, TargetLine:
		// cone/line degrade to radius selection, see TargetSelector docs
		return in.entitiesWithinRadius(ctx, sel.Radius), nil

	case TargetAll:
		return ctx.World.Query().With(world.ComponentPosition).Entities(), nil
	}

	return nil, apperrors.Validationf("unknown target selector type %q", sel.Type)
}

// entitiesWithinRadius compares squared distances. No square root is
// taken here; this loop runs against every positioned entity.
func (in *Interpreter) entitiesWithinRadius(ctx *Context, radius float64) []world.Entity {
	origin := entityPosition(ctx.Caster)
	if origin == nil {
		return nil
	}

	radiusSq := radius * radius
	var out []world.Entity
	for _, e := range ctx.World.Query().With(world.ComponentPosition).Entities() {
		pos := entityPosition(e)
		if pos == nil {
			continue
		}
		dx := pos.X - origin.X
		dy := pos.Y - origin.Y
		if dx*dx+dy*dy <= radiusSq {
			out = append(out, e)
		}
	}
	return out
}

// applyFilter narrows candidates in the documented fixed order:
// entity types, factions, required components, custom predicate.
func (in *Interpreter) applyFilter(f *TargetFilter, candidates []world.Entity, ctx *Context) []world.Entity {
	if len(f.EntityTypes) > 0 {
		kept := candidates[:0]
		for _, c := range candidates {
			if entityHasAnyType(c, f.EntityTypes) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if len(f.Factions) > 0 {
		kept := candidates[:0]
		for _, c := range candidates {
			if factionAllowed(c, f.Factions) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if len(f.HasComponents) > 0 {
		kept := candidates[:0]
		for _, c := range candidates {
			all := true
			for _, comp := range f.HasComponents {
				if !c.HasComponent(comp) {
					all = false
					break
				}
			}
			if all {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if f.CustomPredicate != nil && f.CustomPredicate.Node() != nil {
		kept := candidates[:0]
		for _, c := range candidates {
			_, scope := scopeFor(ctx, c)
			ok, err := in.evaluator.EvaluateBool(f.CustomPredicate.Node(), scope)
			// an erroring predicate excludes the candidate; it does not
			// abort the selection
			if err == nil && ok {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	return candidates
}

func entityHasAnyType(e world.Entity, types []string) bool {
	for _, t := range types {
		if e.HasComponent(t) {
			return true
		}
	}
	if c, ok := e.Component(world.ComponentIdentity); ok {
		if ident, ok := c.(*world.Identity); ok {
			for _, t := range types {
				if ident.EntityType == t {
					return true
				}
			}
		}
	}
	return false
}

func factionAllowed(e world.Entity, factions []string) bool {
	c, ok := e.Component(world.ComponentIdentity)
	if !ok {
		return false
	}
	ident, ok := c.(*world.Identity)
	if !ok {
		return false
	}
	for _, f := range factions {
		if ident.Faction == f {
			return true
		}
	}
	return false
}

func entityPosition(e world.Entity) *world.Position {
	if e == nil {
		return nil
	}
	c, ok := e.Component(world.ComponentPosition)
	if !ok {
		return nil
	}
	pos, ok := c.(*world.Position)
	if !ok {
		return nil
	}
	return pos
}
