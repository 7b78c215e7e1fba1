package effect

import (
	"github.com/villagemind/spellcore/internal/world"
)

// contextScope binds an execution context to the expression
// evaluator's variable namespaces: caster.*, target.*, world.*,
// context.*. Resolution failures report "undefined" so the evaluator
// raises its fatal undefined-variable error; nothing here defaults.
type contextScope struct {
	ctx *Context
}

func (s *contextScope) Resolve(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	switch path[0] {
	case "caster":
		return resolveEntityField(s.ctx.Caster, path[1:])
	case "target":
		return resolveEntityField(s.ctx.Target, path[1:])
	case "world":
		return s.resolveWorldField(path[1:])
	case "context":
		return s.resolveContextField(path[1:])
	}

	// bare names fall through to the extension bag
	if len(path) == 1 && s.ctx.Extra != nil {
		val, ok := s.ctx.Extra[path[0]]
		return val, ok
	}
	return nil, false
}

func resolveEntityField(e world.Entity, rest []string) (any, bool) {
	if e == nil || len(rest) != 1 {
		return nil, false
	}

	switch rest[0] {
	case "id":
		return e.ID(), true
	case "x", "y":
		c, ok := e.Component(world.ComponentPosition)
		if !ok {
			return nil, false
		}
		pos, ok := c.(*world.Position)
		if !ok {
			return nil, false
		}
		if rest[0] == "x" {
			return pos.X, true
		}
		return pos.Y, true
	case "health", "hunger", "energy", "social":
		c, ok := e.Component(world.ComponentNeeds)
		if !ok {
			return nil, false
		}
		needs, ok := c.(*world.Needs)
		if !ok {
			return nil, false
		}
		switch rest[0] {
		case "health":
			return needs.Health, true
		case "hunger":
			return needs.Hunger, true
		case "energy":
			return needs.Energy, true
		default:
			return needs.Social, true
		}
	case "faction", "name", "entityType":
		c, ok := e.Component(world.ComponentIdentity)
		if !ok {
			return nil, false
		}
		ident, ok := c.(*world.Identity)
		if !ok {
			return nil, false
		}
		switch rest[0] {
		case "faction":
			return ident.Faction, true
		case "name":
			return ident.Name, true
		default:
			return ident.EntityType, true
		}
	}

	return nil, false
}

func (s *contextScope) resolveWorldField(rest []string) (any, bool) {
	if len(rest) != 1 {
		return nil, false
	}

	switch rest[0] {
	case "tick":
		return float64(s.ctx.Tick), true
	case "entityCount":
		if s.ctx.World == nil {
			return nil, false
		}
		return float64(len(s.ctx.World.Query().Entities())), true
	}
	return nil, false
}

func (s *contextScope) resolveContextField(rest []string) (any, bool) {
	if len(rest) != 1 || s.ctx.Extra == nil {
		return nil, false
	}
	val, ok := s.ctx.Extra[rest[0]]
	if !ok {
		return nil, false
	}

	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return val, true
}

// scopeFor builds a scope with the given target bound, leaving the
// rest of the context shared. Used when rebinding per resolved target
// and per filter candidate.
func scopeFor(ctx *Context, target world.Entity) (*Context, *contextScope) {
	bound := &Context{
		Caster: ctx.Caster,
		Target: target,
		World:  ctx.World,
		Tick:   ctx.Tick,
		Extra:  ctx.Extra,
	}
	return bound, &contextScope{ctx: bound}
}
