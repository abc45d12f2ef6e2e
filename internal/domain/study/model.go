package study

import "time"

// SearchResult is one row of a registry search.
type SearchResult struct {
	StudyID int64  `db:"study_id" json:"study_id"`
	NCTID   string `db:"nct_id" json:"nct_id"`
	Title   string `db:"official_title" json:"title"`
}

// SearchResults is the search response: the total number of matching
// studies and the (possibly limited) page of records.
type SearchResults struct {
	Count   int             `json:"count"`
	Records []*SearchResult `json:"records"`
}

// Detail is a study with its lookup names and every child collection.
// Text columns that are NULL in the registry are rendered as "".
type Detail struct {
	StudyID             int64  `db:"study_id" json:"study_id"`
	StudyTypeID         *int64 `db:"study_type_id" json:"study_type_id"`
	StudyType           string `db:"study_type" json:"study_type"`
	PhaseID             *int64 `db:"phase_id" json:"phase_id"`
	Phase               string `db:"phase" json:"phase"`
	OverallStatusID     *int64 `db:"overall_status_id" json:"overall_status_id"`
	OverallStatus       string `db:"overall_status" json:"overall_status"`
	LastKnownStatusID   *int64 `db:"last_known_status_id" json:"last_known_status_id"`
	LastKnownStatus     string `db:"last_known_status" json:"last_known_status"`
	NCTID               string `db:"nct_id" json:"nct_id"`
	OfficialTitle       string `db:"official_title" json:"official_title"`
	BriefTitle          string `db:"brief_title" json:"brief_title"`
	DetailedDescription string `db:"detailed_description" json:"detailed_description"`
	OrgStudyID          string `db:"org_study_id" json:"org_study_id"`
	Acronym             string `db:"acronym" json:"acronym"`
	Source              string `db:"source" json:"source"`
	Rank                string `db:"rank" json:"rank"`
	BriefSummary        string `db:"brief_summary" json:"brief_summary"`
	WhyStopped          string `db:"why_stopped" json:"why_stopped"`
	HasExpandedAccess   string `db:"has_expanded_access" json:"has_expanded_access"`
	TargetDuration      string `db:"target_duration" json:"target_duration"`
	BiospecRetention    string `db:"biospec_retention" json:"biospec_retention"`
	BiospecDescription  string `db:"biospec_description" json:"biospec_description"`
	Keywords            string `db:"keywords" json:"keywords"`
	StartDate           string `db:"start_date" json:"start_date"`
	CompletionDate      string `db:"completion_date" json:"completion_date"`
	Enrollment          *int64 `db:"enrollment" json:"enrollment"`

	Sponsors      []Sponsor      `json:"sponsors"`
	Conditions    []Condition    `json:"conditions"`
	Interventions []Intervention `json:"interventions"`
	Outcomes      []Outcome      `json:"study_outcomes"`
	Docs          []Doc          `json:"study_docs"`
}

type Sponsor struct {
	SponsorID   int64  `db:"sponsor_id" json:"sponsor_id"`
	SponsorName string `db:"sponsor_name" json:"sponsor_name"`
}

type Condition struct {
	ConditionID   int64  `db:"condition_id" json:"condition_id"`
	ConditionName string `db:"condition_name" json:"condition_name"`
}

type Intervention struct {
	InterventionID   int64  `db:"intervention_id" json:"intervention_id"`
	InterventionName string `db:"intervention_name" json:"intervention_name"`
}

type Outcome struct {
	StudyOutcomeID int64  `db:"study_outcome_id" json:"study_outcome_id"`
	OutcomeType    string `db:"outcome_type" json:"outcome_type"`
	Measure        string `db:"measure" json:"measure"`
	TimeFrame      string `db:"time_frame" json:"time_frame"`
	Description    string `db:"description" json:"description"`
}

// Flatten joins the outcome's fields for single-cell export.
func (o Outcome) Flatten() []string {
	return []string{o.OutcomeType, o.Measure, o.TimeFrame, o.Description}
}

type Doc struct {
	StudyDocID int64  `db:"study_doc_id" json:"study_doc_id"`
	DocID      string `db:"doc_id" json:"doc_id"`
	DocType    string `db:"doc_type" json:"doc_type"`
	DocURL     string `db:"doc_url" json:"doc_url"`
	DocComment string `db:"doc_comment" json:"doc_comment"`
}

// Flatten joins the document's fields for single-cell export.
func (d Doc) Flatten() []string {
	return []string{d.DocID, d.DocType, d.DocURL, d.DocComment}
}

// CartItem is the minimal study record shown in a user's cart.
type CartItem struct {
	StudyID int64  `db:"study_id" json:"study_id"`
	NCTID   string `db:"nct_id" json:"nct_id"`
	Title   string `db:"brief_title" json:"title"`
}

// ExportStudy holds the flat columns available to the CSV export.
type ExportStudy struct {
	StudyID             int64
	NCTID               string
	OfficialTitle       string
	BriefTitle          string
	BriefSummary        string
	DetailedDescription string
	Keywords            string
	Enrollment          *int64
	StartDate           *time.Time
	CompletionDate      *time.Time
	LastKnownStatus     string
	OverallStatus       string
}

type Summary struct {
	NumStudies int `json:"num_studies"`
}

// Dataload reports the registry size and when it was last refreshed.
// UpdatedOn is "NA" when no load has been recorded.
type Dataload struct {
	NumStudies int    `json:"num_studies"`
	UpdatedOn  string `json:"updated_on"`
}
