package study

import (
	"strings"

	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
)

// Filter is the set of optional search inputs. Zero values mean "not
// supplied"; every supplied value narrows the result.
type Filter struct {
	Text              string
	TextBool          int
	ConditionNames    string
	ConditionsBool    int
	SponsorNames      string
	SponsorsBool      int
	InterventionNames string
	InterventionsBool int

	ConditionIDs string
	SponsorIDs   string
	StudyTypeIDs string
	PhaseIDs     string

	Enrollment        string
	OverallStatusID   int64
	LastKnownStatusID int64

	Limit  int
	Offset int
}

// Clauses returns one clause unit per supplied filter.
func (f Filter) Clauses() []query.Clause {
	var clauses []query.Clause
	add := func(c query.Clause) { clauses = append(clauses, c) }

	if term := strings.TrimSpace(f.Text); term != "" {
		add(query.Clause{Where: []query.Predicate{
			query.TextSearch{Column: query.StudyFulltext, Mode: query.ModeOf(f.TextBool), Term: term},
		}})
	}
	if term := strings.TrimSpace(f.ConditionNames); term != "" {
		add(query.Conditions.ByName(term, query.ModeOf(f.ConditionsBool)))
	}
	if f.ConditionIDs != "" {
		add(query.Conditions.ByIDs(query.ParseIDs(f.ConditionIDs)))
	}
	if term := strings.TrimSpace(f.SponsorNames); term != "" {
		add(query.Sponsors.ByName(term, query.ModeOf(f.SponsorsBool)))
	}
	if f.SponsorIDs != "" {
		add(query.Sponsors.ByIDs(query.ParseIDs(f.SponsorIDs)))
	}
	if term := strings.TrimSpace(f.InterventionNames); term != "" {
		add(query.Interventions.ByName(term, query.ModeOf(f.InterventionsBool)))
	}
	if f.StudyTypeIDs != "" {
		add(query.Clause{Where: []query.Predicate{
			query.Membership{Column: query.StudyTypeID, IDs: query.ParseIDs(f.StudyTypeIDs)},
		}})
	}
	if f.PhaseIDs != "" {
		add(query.Clause{Where: []query.Predicate{
			query.Membership{Column: query.StudyPhaseID, IDs: query.ParseIDs(f.PhaseIDs)},
		}})
	}
	if op, n, ok := query.ParseComparison(f.Enrollment); ok {
		add(query.Clause{Where: []query.Predicate{
			query.Range{Column: query.StudyEnrollment, Op: op, Value: n},
		}})
	}
	if f.OverallStatusID > 0 {
		add(query.Clause{Where: []query.Predicate{
			query.Range{Column: query.StudyOverallStatusID, Op: query.Eq, Value: f.OverallStatusID},
		}})
	}
	if f.LastKnownStatusID > 0 {
		add(query.Clause{Where: []query.Predicate{
			query.Range{Column: query.StudyLastKnownStatusID, Op: query.Eq, Value: f.LastKnownStatusID},
		}})
	}
	return clauses
}

// Queries renders the count and selection queries for the filter. ok is
// false when no filter was supplied.
func (f Filter) Queries() (count, rows query.Query, ok bool) {
	b := query.NewStudySearch()
	for _, c := range f.Clauses() {
		b.Add(c)
	}
	if b.Empty() {
		return query.Query{}, query.Query{}, false
	}
	count, rows = b.Build(query.Page{Limit: f.Limit, Offset: f.Offset})
	return count, rows, true
}
