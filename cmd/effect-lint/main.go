package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/villagemind/spellcore/internal/effect"
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/world"
)

// effect-lint validates authored or generated effect JSON files by
// parsing them and dry-running each against a scratch world. Unsafe
// content and limit breaches are reported as rejections; soft
// failures (conditions not met, empty targets) pass the lint.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <effect.json> [...]", os.Args[0])
	}

	failed := 0
	for _, path := range os.Args[1:] {
		if err := lintFile(path); err != nil {
			fmt.Printf("REJECT %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("OK     %s\n", path)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func lintFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var def effect.EffectExpression
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	w := world.NewMemoryWorld(nil)
	caster, err := world.SeedVillager(w, "lint-caster", "village", 0, 0)
	if err != nil {
		return err
	}
	target, err := world.SeedVillager(w, "lint-target", "village", 1, 0)
	if err != nil {
		return err
	}

	interp := effect.New(nil)
	_, err = interp.Execute(&def, &effect.Context{
		Caster: caster,
		Target: target,
		World:  w,
		Tick:   1,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", apperrors.GetCode(err), err)
	}
	return nil
}
