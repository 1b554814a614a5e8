package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/positions.yaml
var referenceFS embed.FS

var (
	ErrPositionUnavailable = errors.New("position unavailable on this world")
	ErrInvalidLocation     = errors.New("not docked on a world")
)

// TechTier classifies a planet's technology. Tiers are cumulative: a
// world satisfies a position requirement when its own tier is at least
// the required one.
type TechTier string

const (
	TierPrimitive    TechTier = "PR"
	TierRudimentary  TechTier = "RUD"
	TierSpatial      TechTier = "ES"
	TierInterstellar TechTier = "INT"
	TierPostStellar  TechTier = "POL"
	TierSuperior     TechTier = "N.S"
)

var tierRank = map[TechTier]int{
	TierPrimitive:    0,
	TierRudimentary:  1,
	TierSpatial:      2,
	TierInterstellar: 3,
	TierPostStellar:  4,
	TierSuperior:     5,
}

// Satisfies reports whether a planet of this tier can host a position
// requiring the given tier.
func (t TechTier) Satisfies(required TechTier) bool {
	pr, ok1 := tierRank[t]
	rr, ok2 := tierRank[required]
	return ok1 && ok2 && pr >= rr
}

// CatalogEntry is one row of the game manual's position table.
type CatalogEntry struct {
	Position      string   `yaml:"position" json:"position"`
	TechTier      TechTier `yaml:"tech_tier" json:"tech_tier"`
	MinPopulation int      `yaml:"min_population" json:"min_population"`
	SearchDice    string   `yaml:"search_dice" json:"search_dice"`
	BaseSalary    int      `yaml:"base_salary" json:"base_salary"`
	HireThreshold string   `yaml:"hire_threshold" json:"hire_threshold"`
}

// InitialCrewMember seeds a new company's roster at setup.
type InitialCrewMember struct {
	Position   string     `yaml:"position"`
	Name       string     `yaml:"name"`
	Salary     int        `yaml:"salary"`
	Experience Experience `yaml:"experience"`
	Morale     Morale     `yaml:"morale"`
	Recruiter  bool       `yaml:"recruiter"`
}

// ReferenceData bundles the static rule tables injected into the
// engine: the position catalog, the starting crew, and the crew name
// pool. It is read-only configuration, never mutated by gameplay.
type ReferenceData struct {
	Positions   []CatalogEntry      `yaml:"positions"`
	InitialCrew []InitialCrewMember `yaml:"initial_crew"`
	CrewNames   []string            `yaml:"crew_names"`
}

// loadReferenceData reads the rule tables from path when set, falling
// back to the embedded defaults.
func loadReferenceData(path string) (*ReferenceData, error) {
	var raw []byte
	var err error
	if path != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read reference data %s: %w", path, err)
		}
	} else {
		raw, err = referenceFS.ReadFile("data/positions.yaml")
		if err != nil {
			return nil, fmt.Errorf("read embedded reference data: %w", err)
		}
	}
	var rd ReferenceData
	if err := yaml.Unmarshal(raw, &rd); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	if err := rd.validate(); err != nil {
		return nil, err
	}
	return &rd, nil
}

func (rd *ReferenceData) validate() error {
	if len(rd.Positions) == 0 {
		return errors.New("reference data: no positions")
	}
	for _, entry := range rd.Positions {
		if _, ok := tierRank[entry.TechTier]; !ok {
			return fmt.Errorf("reference data: position %q has unknown tech tier %q", entry.Position, entry.TechTier)
		}
		if _, err := parseDiceFormula(entry.SearchDice); err != nil {
			return fmt.Errorf("reference data: position %q: %w", entry.Position, err)
		}
		if _, err := parseHireThreshold(entry.HireThreshold); err != nil {
			return fmt.Errorf("reference data: position %q: %w", entry.Position, err)
		}
		if entry.BaseSalary < 0 {
			return fmt.Errorf("reference data: position %q has negative salary", entry.Position)
		}
	}
	return nil
}

func (rd *ReferenceData) entry(position string) *CatalogEntry {
	for i := range rd.Positions {
		if rd.Positions[i].Position == position {
			return &rd.Positions[i]
		}
	}
	return nil
}

// PlanetInfo is the slice of planet state the hiring rules care about.
type PlanetInfo struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	TechTier   TechTier `json:"tech_tier"`
	Population int      `json:"population"`
}

// availablePositions filters the catalog by the current planet's tech
// tier and population. Pure: identical inputs yield identical lists.
func availablePositions(catalog []CatalogEntry, planet PlanetInfo) []CatalogEntry {
	out := []CatalogEntry{}
	for _, entry := range catalog {
		if !planet.TechTier.Satisfies(entry.TechTier) {
			continue
		}
		if planet.Population < entry.MinPopulation {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// parseHireThreshold reads the manual's "N+" notation: success when
// the modified roll is at least N.
func parseHireThreshold(s string) (int, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "+")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("malformed hire threshold %q", s)
	}
	return n, nil
}
