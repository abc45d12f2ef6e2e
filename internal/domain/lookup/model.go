package lookup

import (
	"encoding/json"

	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
)

// Kind describes one listable lookup table and how its rows are counted
// against studies.
type Kind struct {
	Path string // route segment, e.g. "conditions"

	ID   query.Column
	Name query.Column
	// Ref is the column that points at ID; Counted is the study key counted
	// through it.
	Ref     query.Column
	Counted query.Column
	// Sparse keeps lookup rows that no study references.
	Sparse bool
}

var (
	Phases = Kind{
		Path: "phases", ID: query.PhaseID, Name: query.PhaseName,
		Ref: query.StudyPhaseID, Counted: query.StudyID, Sparse: true,
	}
	StudyTypes = Kind{
		Path: "study_types", ID: query.StudyTypeKey, Name: query.StudyTypeName,
		Ref: query.StudyTypeID, Counted: query.StudyID, Sparse: true,
	}
	Statuses = Kind{
		Path: "statuses", ID: query.StatusID, Name: query.StatusName,
		Ref: query.StudyOverallStatusID, Counted: query.StudyID, Sparse: true,
	}
	Conditions = Kind{
		Path: "conditions", ID: query.ConditionID, Name: query.ConditionName,
		Ref: query.S2CConditionID, Counted: query.S2CStudyID,
	}
	Sponsors = Kind{
		Path: "sponsors", ID: query.SponsorID, Name: query.SponsorName,
		Ref: query.S2PSponsorID, Counted: query.S2PStudyID,
	}
	Interventions = Kind{
		Path: "interventions", ID: query.InterventionID, Name: query.InterventionName,
		Ref: query.S2IInterventionID, Counted: query.S2IStudyID,
	}
)

// Kinds lists every lookup served by the API.
var Kinds = []Kind{Phases, StudyTypes, Statuses, Conditions, Sponsors, Interventions}

// Row is a lookup entry with the number of studies that reference it. It is
// encoded with the table's own key names, e.g. {"phase_id", "phase_name",
// "num_studies"}.
type Row struct {
	Kind       Kind
	ID         int64
	Name       string
	NumStudies int
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		r.Kind.ID.Name():   r.ID,
		r.Kind.Name.Name(): r.Name,
		"num_studies":      r.NumStudies,
	})
}

// ListOptions narrows a listing. An empty Name lists every row.
type ListOptions struct {
	Name       string
	BoolSearch int
	Limit      int
	Offset     int
}
