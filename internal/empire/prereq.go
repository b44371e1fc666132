package empire

import "github.com/castevet/empire-core/internal/models"

// Resolver answers whether an empire meets a structure's prerequisites.
// Prerequisites are conjunctive: every named dependency must be at or
// above its required level. Buildings are read from the planet,
// research from the empire; the two share one keyspace so a building
// may require research and vice versa.
type Resolver struct {
	catalog *models.Catalog
}

// NewResolver creates a resolver over a catalog
func NewResolver(catalog *models.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Missing returns the prerequisites of key the empire does not meet,
// mapped to the required level. Empty means unlocked. For research, or
// structures with no planet context, planet may be nil and building
// prerequisites count as level 0.
func (r *Resolver) Missing(e *models.Empire, planet *models.Planet, key models.StructureKey) (map[models.StructureKey]int, error) {
	entry := r.catalog.Structure(key)
	if entry == nil {
		return nil, configErr("catalog", "unknown structure %q", key)
	}
	var missing map[models.StructureKey]int
	for dep, required := range entry.Prerequisites {
		depEntry := r.catalog.Structure(dep)
		if depEntry == nil {
			return nil, configErr("catalog", "structure %q requires unknown %q", key, dep)
		}
		var have int
		if depEntry.Kind == models.KindResearch {
			have = e.ResearchLevel(dep)
		} else if planet != nil {
			have = planet.BuildingLevel(dep)
		}
		if have < required {
			if missing == nil {
				missing = make(map[models.StructureKey]int)
			}
			missing[dep] = required
		}
	}
	return missing, nil
}

// Unlocked reports whether every prerequisite of key is met
func (r *Resolver) Unlocked(e *models.Empire, planet *models.Planet, key models.StructureKey) (bool, error) {
	missing, err := r.Missing(e, planet, key)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}
