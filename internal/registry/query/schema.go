package query

// Table is a relation that may appear in a FROM list. Values only exist for the
// tables declared in this file, so a Table can never carry request input.
type Table struct {
	name  string
	alias string
}

// Alias returns the alias the table is referenced by in predicates.
func (t Table) Alias() string { return t.alias }

// SQL returns the FROM-list form, e.g. "study s".
func (t Table) SQL() string { return t.name + " " + t.alias }

// Column is an allow-listed column of one of the declared tables.
type Column struct {
	table  Table
	name   string
	vector bool // column already holds a tsvector
}

// Table returns the table the column belongs to.
func (c Column) Table() Table { return c.table }

// Name returns the unqualified column name, e.g. "phase_id".
func (c Column) Name() string { return c.name }

// String returns the qualified column reference, e.g. "s.phase_id".
func (c Column) String() string { return c.table.alias + "." + c.name }

// Fact and lookup tables of the registry.
var (
	Study               = Table{name: "study", alias: "s"}
	Phase               = Table{name: "phase", alias: "ph"}
	StudyType           = Table{name: "study_type", alias: "t"}
	Status              = Table{name: "status", alias: "st"}
	Condition           = Table{name: "condition", alias: "c"}
	Sponsor             = Table{name: "sponsor", alias: "sp"}
	Intervention        = Table{name: "intervention", alias: "i"}
	StudyToCondition    = Table{name: "study_to_condition", alias: "s2c"}
	StudyToSponsor      = Table{name: "study_to_sponsor", alias: "s2p"}
	StudyToIntervention = Table{name: "study_to_intervention", alias: "s2i"}
)

var (
	StudyID                = Column{table: Study, name: "study_id"}
	StudyNCTID             = Column{table: Study, name: "nct_id"}
	StudyOfficialTitle     = Column{table: Study, name: "official_title"}
	StudyFulltext          = Column{table: Study, name: "fulltext", vector: true}
	StudyPhaseID           = Column{table: Study, name: "phase_id"}
	StudyTypeID            = Column{table: Study, name: "study_type_id"}
	StudyEnrollment        = Column{table: Study, name: "enrollment"}
	StudyOverallStatusID   = Column{table: Study, name: "overall_status_id"}
	StudyLastKnownStatusID = Column{table: Study, name: "last_known_status_id"}

	PhaseID          = Column{table: Phase, name: "phase_id"}
	PhaseName        = Column{table: Phase, name: "phase_name"}
	StudyTypeKey     = Column{table: StudyType, name: "study_type_id"}
	StudyTypeName    = Column{table: StudyType, name: "study_type_name"}
	StatusID         = Column{table: Status, name: "status_id"}
	StatusName       = Column{table: Status, name: "status_name"}
	ConditionID      = Column{table: Condition, name: "condition_id"}
	ConditionName    = Column{table: Condition, name: "condition_name"}
	SponsorID        = Column{table: Sponsor, name: "sponsor_id"}
	SponsorName      = Column{table: Sponsor, name: "sponsor_name"}
	InterventionID   = Column{table: Intervention, name: "intervention_id"}
	InterventionName = Column{table: Intervention, name: "intervention_name"}

	S2CStudyID        = Column{table: StudyToCondition, name: "study_id"}
	S2CConditionID    = Column{table: StudyToCondition, name: "condition_id"}
	S2PStudyID        = Column{table: StudyToSponsor, name: "study_id"}
	S2PSponsorID      = Column{table: StudyToSponsor, name: "sponsor_id"}
	S2IStudyID        = Column{table: StudyToIntervention, name: "study_id"}
	S2IInterventionID = Column{table: StudyToIntervention, name: "intervention_id"}
)

// Association describes a many-to-many link from study to a lookup table.
type Association struct {
	Link       Table  // association table
	LinkStudy  Column // association column referencing study
	LinkLookup Column // association column referencing the lookup row
	Lookup     Table
	LookupID   Column
	LookupName Column
}

var (
	Conditions = Association{
		Link: StudyToCondition, LinkStudy: S2CStudyID, LinkLookup: S2CConditionID,
		Lookup: Condition, LookupID: ConditionID, LookupName: ConditionName,
	}
	Sponsors = Association{
		Link: StudyToSponsor, LinkStudy: S2PStudyID, LinkLookup: S2PSponsorID,
		Lookup: Sponsor, LookupID: SponsorID, LookupName: SponsorName,
	}
	Interventions = Association{
		Link: StudyToIntervention, LinkStudy: S2IStudyID, LinkLookup: S2IInterventionID,
		Lookup: Intervention, LookupID: InterventionID, LookupName: InterventionName,
	}
)

// ByName joins the association and lookup tables and matches the lookup name
// against a text query.
func (a Association) ByName(term string, mode Mode) Clause {
	return Clause{
		Tables: []Table{a.Link, a.Lookup},
		Where: []Predicate{
			Join{Left: StudyID, Right: a.LinkStudy},
			Join{Left: a.LinkLookup, Right: a.LookupID},
			TextSearch{Column: a.LookupName, Mode: mode, Term: term},
		},
	}
}

// ByIDs joins only the association table and filters on lookup id membership.
func (a Association) ByIDs(ids []int64) Clause {
	return Clause{
		Tables: []Table{a.Link},
		Where: []Predicate{
			Join{Left: StudyID, Right: a.LinkStudy},
			Membership{Column: a.LinkLookup, IDs: ids},
		},
	}
}
