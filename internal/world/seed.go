package world

// SeedVillager creates a positioned villager with full health and the
// component set the interpreter reads (position, needs, identity, tag).
func SeedVillager(w *MemoryWorld, name, faction string, x, y float64) (Entity, error) {
	e := w.CreateEntity()
	components := []Component{
		&Position{X: x, Y: y},
		&Needs{Health: 1.0, Hunger: 0.5, Energy: 0.8},
		&Identity{Name: name, Faction: faction, EntityType: "villager"},
		&Tag{Name: "villager"},
	}
	for _, c := range components {
		if err := w.AddComponent(e.ID(), c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SeedAnimal creates a positioned animal entity.
func SeedAnimal(w *MemoryWorld, name string, x, y float64) (Entity, error) {
	e := w.CreateEntity()
	components := []Component{
		&Position{X: x, Y: y},
		&Needs{Health: 1.0},
		&Identity{Name: name, EntityType: "animal"},
		&Tag{Name: "animal"},
	}
	for _, c := range components {
		if err := w.AddComponent(e.ID(), c); err != nil {
			return nil, err
		}
	}
	return e, nil
}
