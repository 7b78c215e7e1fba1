package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/villagemind/spellcore/internal/config"
	"github.com/villagemind/spellcore/internal/effect"
	"github.com/villagemind/spellcore/internal/repositories/effects"
	"github.com/villagemind/spellcore/internal/services/casting"
	"github.com/villagemind/spellcore/internal/world"
)

// villaged is a minimal simulation host: it seeds a tiny village,
// stores a demo effect, and casts it through the full service stack.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var repo effects.Repository
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable (%v), using in-memory effect store", err)
		repo = effects.NewInMemory()
	} else {
		defer client.Close()
		repo = effects.NewRedis(&effects.RedisRepoConfig{Client: client})
		log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
	}

	w := world.NewMemoryWorld(nil)
	caster, err := world.SeedVillager(w, "Maren", "village", 0, 0)
	if err != nil {
		log.Fatalf("Failed to seed caster: %v", err)
	}
	target, err := world.SeedVillager(w, "Tobin", "village", 3, 0)
	if err != nil {
		log.Fatalf("Failed to seed target: %v", err)
	}

	limits := effect.DefaultLimits
	if cfg.Interpreter.MaxOperations > 0 {
		limits.MaxOperations = cfg.Interpreter.MaxOperations
	}
	if cfg.Interpreter.MaxDepth > 0 {
		limits.MaxDepth = cfg.Interpreter.MaxDepth
	}
	if cfg.Interpreter.MaxEntitiesAffected > 0 {
		limits.MaxEntitiesAffected = cfg.Interpreter.MaxEntitiesAffected
	}
	if cfg.Interpreter.MaxDamagePerEffect > 0 {
		limits.MaxDamagePerEffect = cfg.Interpreter.MaxDamagePerEffect
	}
	if cfg.Interpreter.MaxSpawnsPerEffect > 0 {
		limits.MaxSpawnsPerEffect = cfg.Interpreter.MaxSpawnsPerEffect
	}
	if cfg.Interpreter.MaxChainDepth > 0 {
		limits.MaxChainDepth = cfg.Interpreter.MaxChainDepth
	}

	svc := casting.NewService(&casting.ServiceConfig{
		Repository:  repo,
		Interpreter: effect.New(&effect.Config{Limits: &limits}),
		World:       w,
	})

	demo := &effects.Record{
		ID:         "demo-mending-touch",
		GrimoireID: "village-basics",
		Definition: &effect.EffectExpression{
			ID:   "demo-mending-touch",
			Name: "Mending Touch",
			Target: effect.TargetSelector{
				Type: effect.TargetSingle,
			},
			Operations: []effect.Operation{
				{Op: effect.OpHeal, Amount: effect.MustSource("10 + caster.energy * 12.5")},
				{Op: effect.OpApplyStatus, Status: "regenerating", Duration: 30},
				{Op: effect.OpEmitEvent, Event: "spell_cast", Payload: map[string]any{
					"spell":  "mending_touch",
					"health": "target.health",
				}},
			},
		},
	}
	if err := repo.Create(ctx, demo); err != nil {
		log.Printf("Demo effect already stored: %v", err)
	}

	registered, err := svc.LoadGrimoire(ctx, demo.GrimoireID)
	if err != nil {
		log.Fatalf("Failed to load grimoire: %v", err)
	}
	log.Printf("Loaded grimoire %s: %d effect(s)", demo.GrimoireID, registered)

	result, err := svc.Cast(ctx, &casting.CastInput{
		EffectID: demo.ID,
		CasterID: caster.ID(),
		TargetID: target.ID(),
		Tick:     1,
	})
	if err != nil {
		log.Fatalf("Cast rejected: %v", err)
	}

	log.Printf("Cast succeeded: success=%v affected=%v healing=%.1f events=%d",
		result.Result.Success,
		result.Result.AffectedEntities,
		result.Result.HealingDone,
		len(result.Result.EventsEmitted))
}
