package main

import "testing"

func TestTechTierSatisfies(t *testing.T) {
	if !TierInterstellar.Satisfies(TierSpatial) {
		t.Fatalf("INT should satisfy ES")
	}
	if !TierSpatial.Satisfies(TierSpatial) {
		t.Fatalf("a tier satisfies itself")
	}
	if TierRudimentary.Satisfies(TierSpatial) {
		t.Fatalf("RUD must not satisfy ES")
	}
	if TechTier("??").Satisfies(TierPrimitive) {
		t.Fatalf("unknown tier must satisfy nothing")
	}
}

func TestAvailablePositionsFilter(t *testing.T) {
	reference, err := loadReferenceData("")
	if err != nil {
		t.Fatalf("loadReferenceData: %v", err)
	}

	// A rudimentary village: only the low-tech, low-population roles.
	village := PlanetInfo{TechTier: TierRudimentary, Population: 2500}
	got := availablePositions(reference.Positions, village)
	if len(got) != 2 {
		t.Fatalf("village positions = %d, want 2 (%+v)", len(got), got)
	}
	for _, e := range got {
		if e.TechTier != TierRudimentary {
			t.Fatalf("village offered %s (%s)", e.Position, e.TechTier)
		}
	}

	// A spatial port with a modest population: population still gates.
	port := PlanetInfo{TechTier: TierSpatial, Population: 6000}
	for _, e := range availablePositions(reference.Positions, port) {
		if e.MinPopulation > port.Population {
			t.Fatalf("%s requires pop %d, port has %d", e.Position, e.MinPopulation, port.Population)
		}
		if e.Position == "Abogado" || e.Position == "Médico" {
			t.Fatalf("%s should be gated by population", e.Position)
		}
	}

	// The capital offers the full catalog. Filtering is idempotent:
	// the same planet always yields the same list.
	capital := PlanetInfo{TechTier: TierSuperior, Population: 10_000_000}
	first := availablePositions(reference.Positions, capital)
	second := availablePositions(reference.Positions, capital)
	if len(first) != len(reference.Positions) || len(first) != len(second) {
		t.Fatalf("capital positions = %d/%d, want %d", len(first), len(second), len(reference.Positions))
	}
}

func TestParseHireThreshold(t *testing.T) {
	n, err := parseHireThreshold("8+")
	if err != nil || n != 8 {
		t.Fatalf("8+ = %d err %v", n, err)
	}
	n, err = parseHireThreshold(" 10+ ")
	if err != nil || n != 10 {
		t.Fatalf("10+ = %d err %v", n, err)
	}
	for _, raw := range []string{"", "+", "1+", "x+"} {
		if _, err := parseHireThreshold(raw); err == nil {
			t.Fatalf("parseHireThreshold(%q) accepted malformed threshold", raw)
		}
	}
}

func TestReferenceDataValidate(t *testing.T) {
	reference, err := loadReferenceData("")
	if err != nil {
		t.Fatalf("embedded reference data invalid: %v", err)
	}
	if reference.entry("Abogado") == nil {
		t.Fatalf("catalog missing Abogado")
	}
	if reference.entry("Cartógrafo") != nil {
		t.Fatalf("entry invented a position")
	}

	bad := &ReferenceData{Positions: []CatalogEntry{{
		Position: "X", TechTier: "??", SearchDice: "1D6", HireThreshold: "5+",
	}}}
	if err := bad.validate(); err == nil {
		t.Fatalf("unknown tier passed validation")
	}
	bad.Positions[0].TechTier = TierSpatial
	bad.Positions[0].SearchDice = "nope"
	if err := bad.validate(); err == nil {
		t.Fatalf("malformed dice passed validation")
	}
}
