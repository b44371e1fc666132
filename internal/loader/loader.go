// Package loader reads the game catalogs from a data directory.
// Each file is validated against an embedded JSON schema before it is
// decoded, so a malformed catalog fails loudly at startup with the
// offending path instead of surfacing later as an odd quote.
package loader

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/castevet/empire-core/internal/models"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Catalog file names expected in the data directory
const (
	BuildingsFile  = "buildings.json"
	ResearchFile   = "research.json"
	OfficersFile   = "officers.json"
	PromotionsFile = "promotions.json"
)

// Load reads, validates and assembles the full catalog from dataDir
func Load(dataDir string) (*models.Catalog, error) {
	var buildings, research []*models.CatalogEntry
	if err := loadFile(dataDir, BuildingsFile, "schema/structures.json", &buildings); err != nil {
		return nil, err
	}
	if err := loadFile(dataDir, ResearchFile, "schema/structures.json", &research); err != nil {
		return nil, err
	}
	for _, e := range buildings {
		if e.Kind == "" {
			e.Kind = models.KindBuilding
		}
	}
	for _, e := range research {
		if e.Kind == "" {
			e.Kind = models.KindResearch
		}
	}

	var archetypes []*models.ArchetypeEntry
	if err := loadFile(dataDir, OfficersFile, "schema/officers.json", &archetypes); err != nil {
		return nil, err
	}

	// Promotion ranks arrive as JSON object keys, i.e. strings.
	var rawPromotions map[string]models.PromotionCost
	if err := loadFile(dataDir, PromotionsFile, "schema/promotions.json", &rawPromotions); err != nil {
		return nil, err
	}
	promotions := make(models.PromotionTable, len(rawPromotions))
	for rankStr, cost := range rawPromotions {
		rank, err := strconv.Atoi(rankStr)
		if err != nil {
			return nil, fmt.Errorf("%s: rank %q is not a number", PromotionsFile, rankStr)
		}
		promotions[rank] = cost
	}

	catalog, err := models.NewCatalog(append(buildings, research...), archetypes, promotions)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", dataDir, err)
	}
	return catalog, nil
}

func loadFile(dataDir, name, schemaPath string, out any) error {
	path := filepath.Join(dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if err := validate(schemaPath, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func validate(schemaPath string, data []byte) error {
	raw, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("embedded schema %s: %w", schemaPath, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaPath, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("compile schema %s: %w", schemaPath, err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", schemaPath, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
