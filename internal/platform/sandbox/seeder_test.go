package sandbox

import (
	"bufio"
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"
	"testing"
)

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

func testRegistry() *Registry {
	return &Registry{
		Phases:        lookups(phaseNames),
		StudyTypes:    lookups(studyTypeNames),
		Statuses:      lookups(statusNames),
		Conditions:    lookups(conditionNames),
		Sponsors:      lookups(sponsorNames),
		Interventions: lookups(interventionNames),
	}
}

func TestDataGenerator_GenerateStudy(t *testing.T) {
	gen := NewDataGenerator(42)
	s := gen.GenerateStudy(testRegistry(), 7, DefaultSeedConfig())

	if s.StudyID != 7 {
		t.Errorf("expected study id 7, got %d", s.StudyID)
	}
	if !regexp.MustCompile(`^NCT\d{8}$`).MatchString(s.NCTID) {
		t.Errorf("unexpected nct id %q", s.NCTID)
	}
	if s.Enrollment < 10 || s.Enrollment >= 1000 {
		t.Errorf("enrollment out of range: %d", s.Enrollment)
	}
	if !s.CompletionDate.After(s.StartDate) {
		t.Errorf("completion %v not after start %v", s.CompletionDate, s.StartDate)
	}
	if len(s.ConditionIDs) != 2 || len(s.InterventionIDs) != 2 || len(s.SponsorIDs) != 1 {
		t.Errorf("unexpected association counts %+v", s)
	}
	if len(s.Outcomes) != 2 || s.Outcomes[0].Type != "primary" {
		t.Errorf("unexpected outcomes %+v", s.Outcomes)
	}
	if len(s.Docs) != 1 || s.Docs[0].DocID != "Prot_000" {
		t.Errorf("unexpected docs %+v", s.Docs)
	}
}

func TestDataGenerator_DistinctAssociations(t *testing.T) {
	gen := NewDataGenerator(3)
	cfg := DefaultSeedConfig()
	cfg.ConditionsPerStudy = 10
	s := gen.GenerateStudy(testRegistry(), 1, cfg)
	seen := map[int64]bool{}
	for _, id := range s.ConditionIDs {
		if seen[id] {
			t.Fatalf("condition %d picked twice", id)
		}
		seen[id] = true
	}
}

func TestDataGenerator_PickIDsCapped(t *testing.T) {
	gen := NewDataGenerator(1)
	if got := gen.pickIDs(lookups([]string{"a", "b"}), 5); len(got) != 2 {
		t.Errorf("expected 2 ids, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

func TestSeeder_Generate(t *testing.T) {
	cfg := DefaultSeedConfig()
	cfg.Studies = 25
	s := NewSeeder(cfg)
	res, err := s.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Studies != 25 || res.Conditions != 50 || res.Outcomes != 50 || res.Docs != 25 {
		t.Errorf("unexpected result %+v", res)
	}
	reg := s.Registry()
	if len(reg.Studies) != 25 || len(reg.Phases) != len(phaseNames) {
		t.Errorf("unexpected registry sizes: %d studies, %d phases", len(reg.Studies), len(reg.Phases))
	}
	nct := map[string]bool{}
	for _, st := range reg.Studies {
		if nct[st.NCTID] {
			t.Errorf("duplicate nct id %s", st.NCTID)
		}
		nct[st.NCTID] = true
	}
}

func TestSeeder_Deterministic(t *testing.T) {
	cfg := DefaultSeedConfig()
	cfg.Studies = 10
	cfg.Seed = 99

	a, b := NewSeeder(cfg), NewSeeder(cfg)
	a.Generate()
	b.Generate()
	if !reflect.DeepEqual(a.Registry(), b.Registry()) {
		t.Error("same seed produced different registries")
	}
}

func TestSeeder_NegativeStudies(t *testing.T) {
	if _, err := NewSeeder(SeedConfig{Studies: -1}).Generate(); err == nil {
		t.Error("expected error")
	}
}

func TestSeeder_ExportNDJSON(t *testing.T) {
	cfg := DefaultSeedConfig()
	cfg.Studies = 3
	s := NewSeeder(cfg)

	var buf bytes.Buffer
	if err := s.ExportNDJSON(&buf); err == nil {
		t.Error("expected error before Generate")
	}

	s.Generate()
	buf.Reset()
	if err := s.ExportNDJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var st map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &st); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if st["nct_id"] == "" {
			t.Errorf("line %d: missing nct_id", lines)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("expected 3 lines, got %d", lines)
	}
}
