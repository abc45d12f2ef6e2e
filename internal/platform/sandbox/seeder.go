// Package sandbox generates a reproducible synthetic registry for demos,
// local development and integration tests.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	Studies               int   `json:"studies"`
	ConditionsPerStudy    int   `json:"conditionsPerStudy"`
	SponsorsPerStudy      int   `json:"sponsorsPerStudy"`
	InterventionsPerStudy int   `json:"interventionsPerStudy"`
	OutcomesPerStudy      int   `json:"outcomesPerStudy"`
	DocsPerStudy          int   `json:"docsPerStudy"`
	Seed                  int64 `json:"seed"`
}

// DefaultSeedConfig returns a SeedConfig sized for a demo database.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Studies:               100,
		ConditionsPerStudy:    2,
		SponsorsPerStudy:      1,
		InterventionsPerStudy: 2,
		OutcomesPerStudy:      2,
		DocsPerStudy:          1,
		Seed:                  1,
	}
}

// ---------------------------------------------------------------------------
// Generated records
// ---------------------------------------------------------------------------

// Lookup is an id/name row of one of the lookup tables.
type Lookup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Outcome struct {
	Type        string `json:"outcome_type"`
	Measure     string `json:"measure"`
	TimeFrame   string `json:"time_frame"`
	Description string `json:"description"`
}

type Doc struct {
	DocID   string `json:"doc_id"`
	Type    string `json:"doc_type"`
	URL     string `json:"doc_url"`
	Comment string `json:"doc_comment"`
}

// Study is a generated registry entry with its associations.
type Study struct {
	StudyID             int64     `json:"study_id"`
	NCTID               string    `json:"nct_id"`
	OfficialTitle       string    `json:"official_title"`
	BriefTitle          string    `json:"brief_title"`
	BriefSummary        string    `json:"brief_summary"`
	DetailedDescription string    `json:"detailed_description"`
	Keywords            string    `json:"keywords"`
	StartDate           time.Time `json:"start_date"`
	CompletionDate      time.Time `json:"completion_date"`
	Enrollment          int       `json:"enrollment"`
	StudyTypeID         int64     `json:"study_type_id"`
	PhaseID             int64     `json:"phase_id"`
	OverallStatusID     int64     `json:"overall_status_id"`
	LastKnownStatusID   int64     `json:"last_known_status_id"`
	ConditionIDs        []int64   `json:"condition_ids"`
	SponsorIDs          []int64   `json:"sponsor_ids"`
	InterventionIDs     []int64   `json:"intervention_ids"`
	Outcomes            []Outcome `json:"outcomes"`
	Docs                []Doc     `json:"docs"`
}

// Registry is a complete generated data set.
type Registry struct {
	Phases        []Lookup  `json:"phases"`
	StudyTypes    []Lookup  `json:"study_types"`
	Statuses      []Lookup  `json:"statuses"`
	Conditions    []Lookup  `json:"conditions"`
	Sponsors      []Lookup  `json:"sponsors"`
	Interventions []Lookup  `json:"interventions"`
	Studies       []Study   `json:"studies"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// SeedResult summarizes a generate or load run.
type SeedResult struct {
	Studies       int           `json:"studies"`
	Conditions    int           `json:"conditions"`
	Sponsors      int           `json:"sponsors"`
	Interventions int           `json:"interventions"`
	Outcomes      int           `json:"outcomes"`
	Docs          int           `json:"docs"`
	Duration      time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Reference vocabularies
// ---------------------------------------------------------------------------

var (
	phaseNames = []string{
		"N/A", "Early Phase 1", "Phase 1", "Phase 1/Phase 2",
		"Phase 2", "Phase 2/Phase 3", "Phase 3", "Phase 4",
	}
	studyTypeNames = []string{"Interventional", "Observational", "Expanded Access"}
	statusNames    = []string{
		"Not yet recruiting", "Recruiting", "Enrolling by invitation",
		"Active, not recruiting", "Completed", "Suspended", "Terminated",
		"Withdrawn", "Unknown status",
	}
	conditionNames = []string{
		"Asthma", "Chronic Obstructive Pulmonary Disease", "Type 2 Diabetes Mellitus",
		"Hypertension", "Alzheimer Disease", "Parkinson Disease", "Breast Cancer",
		"Non-small Cell Lung Cancer", "Prostate Cancer", "Multiple Sclerosis",
		"Rheumatoid Arthritis", "Crohn Disease", "Heart Failure", "Atrial Fibrillation",
		"Major Depressive Disorder", "Schizophrenia", "HIV Infections", "Hepatitis C",
		"Tuberculosis", "Malaria", "Obesity", "Chronic Kidney Disease", "Psoriasis",
		"Migraine", "Osteoarthritis", "Sickle Cell Disease", "Cystic Fibrosis",
		"Duchenne Muscular Dystrophy", "Huntington Disease", "Polycystic Kidney Disease",
	}
	sponsorNames = []string{
		"National Cancer Institute", "Pfizer", "Novartis", "Hoffmann-La Roche",
		"Merck Sharp & Dohme", "AstraZeneca", "GlaxoSmithKline", "Sanofi",
		"Eli Lilly and Company", "Bristol-Myers Squibb", "Johns Hopkins University",
		"Mayo Clinic", "Massachusetts General Hospital", "University of California, San Francisco",
		"Assistance Publique - Hôpitaux de Paris", "Critical Path Institute",
	}
	interventionNames = []string{
		"Placebo", "Metformin", "Pembrolizumab", "Nivolumab", "Atorvastatin",
		"Insulin Glargine", "Adalimumab", "Cognitive Behavioral Therapy",
		"Exercise Training", "Dietary Supplement: Vitamin D", "Aspirin",
		"Radiation Therapy", "Surgery", "Lisinopril", "Tenofovir", "Ivermectin",
		"Deep Brain Stimulation", "Gene Therapy", "Mobile Health Application",
	}
	measures = []string{
		"Overall survival", "Progression-free survival", "Change in HbA1c",
		"Forced expiratory volume in 1 second", "Number of adverse events",
		"Change in systolic blood pressure", "Quality of life score",
		"Time to first exacerbation", "Pharmacokinetics: Cmax",
	}
	timeFrames = []string{"12 weeks", "24 weeks", "6 months", "1 year", "2 years", "Day 28"}
	docTypes   = []string{"Study Protocol", "Statistical Analysis Plan", "Informed Consent Form"}
	designs    = []string{"randomized", "open-label", "double-blind", "single-arm", "crossover"}
)

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// DataGenerator produces registry records from a seeded random source. Two
// generators with the same seed produce the same records.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen.
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// pickIDs returns n distinct ids from lookups (fewer if lookups is smaller).
func (g *DataGenerator) pickIDs(lookups []Lookup, n int) []int64 {
	if n > len(lookups) {
		n = len(lookups)
	}
	ids := make([]int64, 0, n)
	for _, i := range g.rng.Perm(len(lookups))[:n] {
		ids = append(ids, lookups[i].ID)
	}
	return ids
}

func (g *DataGenerator) randomDate(minYear, maxYear int) time.Time {
	y := minYear + g.rng.Intn(maxYear-minYear+1)
	m := time.Month(1 + g.rng.Intn(12))
	d := 1 + g.rng.Intn(28) // safe for all months
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lookups(names []string) []Lookup {
	out := make([]Lookup, len(names))
	for i, n := range names {
		out[i] = Lookup{ID: int64(i + 1), Name: n}
	}
	return out
}

func nameOf(ls []Lookup, id int64) string {
	for _, l := range ls {
		if l.ID == id {
			return l.Name
		}
	}
	return ""
}

// GenerateStudy produces study number n against the lookups in reg.
func (g *DataGenerator) GenerateStudy(reg *Registry, n int, cfg SeedConfig) Study {
	conditionIDs := g.pickIDs(reg.Conditions, cfg.ConditionsPerStudy)
	interventionIDs := g.pickIDs(reg.Interventions, cfg.InterventionsPerStudy)

	condition := "Healthy Volunteers"
	if len(conditionIDs) > 0 {
		condition = nameOf(reg.Conditions, conditionIDs[0])
	}
	intervention := "Standard of Care"
	if len(interventionIDs) > 0 {
		intervention = nameOf(reg.Interventions, interventionIDs[0])
	}
	design := g.pick(designs)
	start := g.randomDate(2005, 2023)

	s := Study{
		StudyID:       int64(n),
		NCTID:         fmt.Sprintf("NCT%08d", 1000000+n),
		OfficialTitle: fmt.Sprintf("A %s Study of %s in Participants With %s", design, intervention, condition),
		BriefTitle:    fmt.Sprintf("%s for %s", intervention, condition),
		BriefSummary: fmt.Sprintf("This %s study evaluates the safety and efficacy of %s in adults with %s.",
			design, intervention, condition),
		DetailedDescription: fmt.Sprintf("Participants with %s are assigned to %s.\n\n"+
			"Primary and secondary outcomes are assessed at scheduled visits.", condition, intervention),
		Keywords:          fmt.Sprintf("%s, %s, %s", condition, intervention, design),
		StartDate:         start,
		CompletionDate:    start.AddDate(1+g.rng.Intn(5), g.rng.Intn(12), 0),
		Enrollment:        10 + g.rng.Intn(990),
		StudyTypeID:       reg.StudyTypes[g.rng.Intn(len(reg.StudyTypes))].ID,
		PhaseID:           reg.Phases[g.rng.Intn(len(reg.Phases))].ID,
		OverallStatusID:   reg.Statuses[g.rng.Intn(len(reg.Statuses))].ID,
		LastKnownStatusID: reg.Statuses[g.rng.Intn(len(reg.Statuses))].ID,
		ConditionIDs:      conditionIDs,
		SponsorIDs:        g.pickIDs(reg.Sponsors, cfg.SponsorsPerStudy),
		InterventionIDs:   interventionIDs,
	}
	for i := 0; i < cfg.OutcomesPerStudy; i++ {
		typ := "secondary"
		if i == 0 {
			typ = "primary"
		}
		s.Outcomes = append(s.Outcomes, Outcome{
			Type:        typ,
			Measure:     g.pick(measures),
			TimeFrame:   g.pick(timeFrames),
			Description: fmt.Sprintf("Assessed in all randomized participants with %s.", condition),
		})
	}
	for i := 0; i < cfg.DocsPerStudy; i++ {
		docID := fmt.Sprintf("%s_%03d", docTypeCode(i), i)
		s.Docs = append(s.Docs, Doc{
			DocID: docID,
			Type:  docTypes[i%len(docTypes)],
			URL:   fmt.Sprintf("https://clinicaltrials.example.org/ProvidedDocs/%s/%s.pdf", s.NCTID, docID),
		})
	}
	return s
}

func docTypeCode(i int) string {
	return [...]string{"Prot", "SAP", "ICF"}[i%3]
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// Seeder generates a Registry and loads it into Postgres.
type Seeder struct {
	generator *DataGenerator
	config    SeedConfig
	mu        sync.RWMutex
	registry  *Registry
}

// NewSeeder creates a new Seeder with the given config.
func NewSeeder(config SeedConfig) *Seeder {
	return &Seeder{
		generator: NewDataGenerator(config.Seed),
		config:    config,
	}
}

// Generate creates the lookups and config.Studies studies.
func (s *Seeder) Generate() (*SeedResult, error) {
	if s.config.Studies < 0 {
		return nil, fmt.Errorf("studies must not be negative")
	}
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := &Registry{
		Phases:        lookups(phaseNames),
		StudyTypes:    lookups(studyTypeNames),
		Statuses:      lookups(statusNames),
		Conditions:    lookups(conditionNames),
		Sponsors:      lookups(sponsorNames),
		Interventions: lookups(interventionNames),
		LoadedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, s.generator.rng.Intn(365)),
	}
	result := &SeedResult{}
	for i := 1; i <= s.config.Studies; i++ {
		st := s.generator.GenerateStudy(reg, i, s.config)
		reg.Studies = append(reg.Studies, st)
		result.Conditions += len(st.ConditionIDs)
		result.Sponsors += len(st.SponsorIDs)
		result.Interventions += len(st.InterventionIDs)
		result.Outcomes += len(st.Outcomes)
		result.Docs += len(st.Docs)
	}
	result.Studies = len(reg.Studies)
	result.Duration = time.Since(start)
	s.registry = reg
	return result, nil
}

// Registry returns the last generated data set, or nil before Generate.
func (s *Seeder) Registry() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// ExportNDJSON writes the generated studies as newline-delimited JSON.
func (s *Seeder) ExportNDJSON(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.registry == nil {
		return fmt.Errorf("nothing generated")
	}
	enc := json.NewEncoder(w)
	for _, st := range s.registry.Studies {
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encoding study %s: %w", st.NCTID, err)
		}
	}
	return nil
}

// registryTables are emptied before a load, children first.
var registryTables = []string{
	"study_doc", "study_outcome", "study_to_intervention", "study_to_sponsor",
	"study_to_condition", "study", "intervention", "sponsor", "condition",
	"status", "study_type", "phase", "dataload",
}

// Load replaces the registry tables with the generated data in one
// transaction and advances the id sequences past the loaded rows.
func (s *Seeder) Load(ctx context.Context, pool *pgxpool.Pool) error {
	reg := s.Registry()
	if reg == nil {
		return fmt.Errorf("nothing generated")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range registryTables {
		if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{t}.Sanitize()+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", t, err)
		}
	}

	for _, l := range []struct {
		table, id, name string
		rows            []Lookup
	}{
		{"phase", "phase_id", "phase_name", reg.Phases},
		{"study_type", "study_type_id", "study_type_name", reg.StudyTypes},
		{"status", "status_id", "status_name", reg.Statuses},
		{"condition", "condition_id", "condition_name", reg.Conditions},
		{"sponsor", "sponsor_id", "sponsor_name", reg.Sponsors},
		{"intervention", "intervention_id", "intervention_name", reg.Interventions},
	} {
		rows := make([][]interface{}, len(l.rows))
		for i, r := range l.rows {
			rows[i] = []interface{}{r.ID, r.Name}
		}
		if err := copyRows(ctx, tx, l.table, []string{l.id, l.name}, rows); err != nil {
			return err
		}
	}

	var (
		studies, s2c, s2p, s2i, outcomes, docs [][]interface{}
	)
	for _, st := range reg.Studies {
		studies = append(studies, []interface{}{
			st.StudyID, st.NCTID, st.OfficialTitle, st.BriefTitle, st.BriefSummary,
			st.DetailedDescription, st.Keywords, st.StartDate, st.CompletionDate,
			st.Enrollment, st.StudyTypeID, st.PhaseID, st.OverallStatusID, st.LastKnownStatusID,
		})
		for _, id := range st.ConditionIDs {
			s2c = append(s2c, []interface{}{st.StudyID, id})
		}
		for _, id := range st.SponsorIDs {
			s2p = append(s2p, []interface{}{st.StudyID, id})
		}
		for _, id := range st.InterventionIDs {
			s2i = append(s2i, []interface{}{st.StudyID, id})
		}
		for _, o := range st.Outcomes {
			outcomes = append(outcomes, []interface{}{st.StudyID, o.Type, o.Measure, o.TimeFrame, o.Description})
		}
		for _, d := range st.Docs {
			docs = append(docs, []interface{}{st.StudyID, d.DocID, d.Type, d.URL, d.Comment})
		}
	}

	copies := []struct {
		table string
		cols  []string
		rows  [][]interface{}
	}{
		{"study", []string{
			"study_id", "nct_id", "official_title", "brief_title", "brief_summary",
			"detailed_description", "keywords", "start_date", "completion_date",
			"enrollment", "study_type_id", "phase_id", "overall_status_id", "last_known_status_id",
		}, studies},
		{"study_to_condition", []string{"study_id", "condition_id"}, s2c},
		{"study_to_sponsor", []string{"study_id", "sponsor_id"}, s2p},
		{"study_to_intervention", []string{"study_id", "intervention_id"}, s2i},
		{"study_outcome", []string{"study_id", "outcome_type", "measure", "time_frame", "description"}, outcomes},
		{"study_doc", []string{"study_id", "doc_id", "doc_type", "doc_url", "doc_comment"}, docs},
	}
	for _, c := range copies {
		if err := copyRows(ctx, tx, c.table, c.cols, c.rows); err != nil {
			return err
		}
	}

	for table, id := range map[string]string{
		"phase": "phase_id", "study_type": "study_type_id", "status": "status_id",
		"condition": "condition_id", "sponsor": "sponsor_id", "intervention": "intervention_id",
		"study": "study_id",
	} {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 0) + 1, false) FROM %s",
			table, id, id, table))
		if err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}

	if _, err := tx.Exec(ctx, "INSERT INTO dataload (updated_on) VALUES ($1)", reg.LoadedAt); err != nil {
		return fmt.Errorf("record dataload: %w", err)
	}
	return tx.Commit(ctx)
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, cols []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}
