package casting

import (
	"context"
	"log"
	"sync"

	"github.com/villagemind/spellcore/internal/effect"
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/repositories/effects"
	"github.com/villagemind/spellcore/internal/world"
)

type service struct {
	repo        effects.Repository
	interpreter *effect.Interpreter
	scheduler   Scheduler
	world       world.World

	// the interpreter's accumulators are per-call state on the
	// instance; overlapping executions must be serialized
	mu sync.Mutex
}

// ServiceConfig holds the casting service dependencies.
type ServiceConfig struct {
	Repository  effects.Repository
	Interpreter *effect.Interpreter
	Scheduler   Scheduler
	World       world.World
}

// NewService creates a casting service.
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("effect repository is required")
	}
	if cfg.World == nil {
		panic("world is required")
	}

	svc := &service{
		repo:        cfg.Repository,
		interpreter: cfg.Interpreter,
		scheduler:   cfg.Scheduler,
		world:       cfg.World,
	}
	if svc.interpreter == nil {
		svc.interpreter = effect.New(nil)
	}
	return svc
}

func (s *service) Cast(ctx context.Context, input *CastInput) (*CastResult, error) {
	if input == nil {
		return nil, apperrors.InvalidArgument("input cannot be nil")
	}
	if input.EffectID == "" {
		return nil, apperrors.InvalidArgument("effect id is required")
	}
	if input.CasterID == "" {
		return nil, apperrors.InvalidArgument("caster id is required")
	}

	record, err := s.repo.Get(ctx, input.EffectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load effect")
	}
	if record.Definition == nil {
		return nil, apperrors.Internalf("effect %q has no definition", input.EffectID)
	}

	caster, ok := s.world.Entity(input.CasterID)
	if !ok {
		return nil, apperrors.NotFoundf("caster %q not found", input.CasterID)
	}

	var target world.Entity
	if input.TargetID != "" {
		target, ok = s.world.Entity(input.TargetID)
		if !ok {
			return nil, apperrors.NotFoundf("target %q not found", input.TargetID)
		}
	}

	execCtx := &effect.Context{
		Caster: caster,
		Target: target,
		World:  s.world,
		Tick:   input.Tick,
		Extra:  input.Extra,
	}

	s.mu.Lock()
	result, err := s.interpreter.Execute(record.Definition, execCtx)
	delayed := s.interpreter.DelayedOperations()
	s.mu.Unlock()

	if err != nil {
		// fatal class: unsafe content or a breached limit. Surface it
		// to whoever validated or generated the effect; the simulation
		// tick itself carries on.
		return nil, apperrors.Wrapf(err, "effect %q rejected", input.EffectID)
	}

	out := &CastResult{Result: result}
	for _, op := range delayed {
		if s.scheduler == nil {
			log.Printf("dropping delayed operations for effect %s: no scheduler configured", op.EffectID)
			continue
		}
		if err := s.scheduler.Schedule(ctx, op); err != nil {
			log.Printf("failed to schedule delayed operations for effect %s: %v", op.EffectID, err)
			continue
		}
		out.Delayed++
	}

	return out, nil
}

func (s *service) LoadGrimoire(ctx context.Context, grimoireID string) (int, error) {
	if grimoireID == "" {
		return 0, apperrors.InvalidArgument("grimoire id is required")
	}

	records, err := s.repo.ListByGrimoire(ctx, grimoireID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to list grimoire effects")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	registered := 0
	for _, record := range records {
		if record == nil || record.Definition == nil {
			continue
		}
		if err := s.interpreter.RegisterEffect(record.Definition); err != nil {
			log.Printf("skipping unregistrable effect %s: %v", record.ID, err)
			continue
		}
		registered++
	}
	return registered, nil
}
