package refdata

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lcatools/flowlink/internal/ident"
)

// SeedData is the YAML shape of a reference data seed file. Seeding is how a
// fresh local database gets its unit groups and starting flows; identities
// are derived from the defining fields, so applying the same seed twice is a
// no-op.
type SeedData struct {
	UnitGroups []SeedUnitGroup `yaml:"unit_groups"`
	Flows      []SeedFlow      `yaml:"flows"`
	Locations  []SeedLocation  `yaml:"locations"`
}

// SeedUnitGroup declares a unit group, its default flow property and its
// member units. Exactly one unit must carry factor 1; that is the group's
// reference unit.
type SeedUnitGroup struct {
	Name            string     `yaml:"name"`
	DefaultProperty string     `yaml:"default_property"`
	Units           []SeedUnit `yaml:"units"`
}

// SeedUnit is one member unit of a group.
type SeedUnit struct {
	Symbol string  `yaml:"symbol"`
	Factor float64 `yaml:"factor"`
}

// SeedFlow declares a canonical flow. Unit must be a symbol declared by one
// of the seed's unit groups; the flow's property is that group's default.
type SeedFlow struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Unit     string `yaml:"unit"`
	Location string `yaml:"location"`
}

// SeedLocation declares a location.
type SeedLocation struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// LoadSeed parses a YAML seed file.
func LoadSeed(path string) (*SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &data, nil
}

// Seed applies a seed to the database. Unit groups are written first so that
// flows can resolve their property through their unit symbol. Applying the
// same seed twice is idempotent.
func (s *SQLite) Seed(ctx context.Context, data *SeedData) error {
	propertyBySymbol := make(map[string]Ref)

	for _, g := range data.UnitGroups {
		groupID := ident.MakeID("unit group", g.Name)
		property := Ref{
			ID:   ident.MakeID("flow property", g.DefaultProperty),
			Name: g.DefaultProperty,
		}

		refUnits := 0
		for _, u := range g.Units {
			if u.Factor == 1 {
				refUnits++
			}
		}
		if refUnits != 1 {
			return fmt.Errorf("unit group %q: want exactly one unit with factor 1, got %d",
				g.Name, refUnits)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO unit_groups (id, name, default_property_id, default_property_name)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, groupID, g.Name, property.ID, property.Name)
		if err != nil {
			return RemoteWrite("seed", g.Name, err)
		}

		for _, u := range g.Units {
			if u.Factor <= 0 {
				return fmt.Errorf("unit %q in group %q: factor must be > 0", u.Symbol, g.Name)
			}
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO units (id, symbol, unit_group_id, factor)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, ident.MakeID("unit", g.Name, u.Symbol), u.Symbol, groupID, u.Factor)
			if err != nil {
				return RemoteWrite("seed", u.Symbol, err)
			}
			propertyBySymbol[u.Symbol] = property
		}
	}

	for _, f := range data.Flows {
		flowType, ok := ParseFlowType(f.Type)
		if !ok {
			return fmt.Errorf("flow %q: unknown flow type %q", f.Name, f.Type)
		}
		property, ok := propertyBySymbol[f.Unit]
		if !ok {
			return fmt.Errorf("flow %q: unit %q not declared by any seed unit group", f.Name, f.Unit)
		}
		flow := Flow{
			ID:           ident.MakeID(string(flowType), f.Name, f.Category, property.Name),
			Name:         f.Name,
			Type:         flowType,
			Category:     f.Category,
			FlowProperty: property,
			RefUnit:      f.Unit,
			Location:     f.Location,
		}
		if err := s.CreateFlow(ctx, flow); err != nil {
			return err
		}
	}

	for _, l := range data.Locations {
		loc := Location{
			ID:   ident.MakeID("location", l.Name),
			Name: l.Name,
			Code: l.Code,
		}
		if err := s.CreateLocation(ctx, loc); err != nil {
			return err
		}
	}
	return nil
}
