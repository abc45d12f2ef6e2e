package study

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultExportFields is the column set used when a download names none.
var DefaultExportFields = []string{
	"nct_id", "official_title", "brief_title", "brief_summary",
	"detailed_description", "keywords", "enrollment", "start_date",
	"completion_date", "last_known_status", "overall_status", "conditions",
	"interventions", "outcomes", "sponsors", "study_docs",
}

const (
	childSep    = ";"
	subfieldSep = "::"
)

var flatFields = map[string]func(*ExportStudy) string{
	"study_id":             func(e *ExportStudy) string { return strconv.FormatInt(e.StudyID, 10) },
	"nct_id":               func(e *ExportStudy) string { return e.NCTID },
	"official_title":       func(e *ExportStudy) string { return e.OfficialTitle },
	"brief_title":          func(e *ExportStudy) string { return e.BriefTitle },
	"brief_summary":        func(e *ExportStudy) string { return e.BriefSummary },
	"detailed_description": func(e *ExportStudy) string { return e.DetailedDescription },
	"keywords":             func(e *ExportStudy) string { return e.Keywords },
	"enrollment":           func(e *ExportStudy) string { return formatInt(e.Enrollment) },
	"start_date":           func(e *ExportStudy) string { return formatDate(e.StartDate) },
	"completion_date":      func(e *ExportStudy) string { return formatDate(e.CompletionDate) },
	"last_known_status":    func(e *ExportStudy) string { return e.LastKnownStatus },
	"overall_status":       func(e *ExportStudy) string { return e.OverallStatus },
}

// childFields are fetched per study, one query per requested field.
var childFields = map[string]func(ctx context.Context, r Repository, studyID int64) ([]string, error){
	"conditions": func(ctx context.Context, r Repository, id int64) ([]string, error) {
		rows, err := r.ListConditions(ctx, id)
		return names(rows, func(c Condition) string { return c.ConditionName }), err
	},
	"interventions": func(ctx context.Context, r Repository, id int64) ([]string, error) {
		rows, err := r.ListInterventions(ctx, id)
		return names(rows, func(i Intervention) string { return i.InterventionName }), err
	},
	"sponsors": func(ctx context.Context, r Repository, id int64) ([]string, error) {
		rows, err := r.ListSponsors(ctx, id)
		return names(rows, func(s Sponsor) string { return s.SponsorName }), err
	},
	"outcomes": func(ctx context.Context, r Repository, id int64) ([]string, error) {
		rows, err := r.ListOutcomes(ctx, id)
		return names(rows, func(o Outcome) string { return strings.Join(o.Flatten(), subfieldSep) }), err
	},
	"study_docs": func(ctx context.Context, r Repository, id int64) ([]string, error) {
		rows, err := r.ListDocs(ctx, id)
		return names(rows, func(d Doc) string { return strings.Join(d.Flatten(), subfieldSep) }), err
	},
}

func names[T any](rows []T, name func(T) string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, name(r))
	}
	return out
}

// ExportFields parses a comma-separated column list. Unknown names are
// dropped; an empty or entirely unknown list yields DefaultExportFields.
func ExportFields(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if knownField(f) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return append([]string(nil), DefaultExportFields...)
	}
	return fields
}

func knownField(f string) bool {
	if _, ok := flatFields[f]; ok {
		return true
	}
	_, ok := childFields[f]
	return ok
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}

func formatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// writeCSV renders the header and one row per study. Child collections are
// fetched through repo for the fields that ask for them.
func writeCSV(ctx context.Context, repo Repository, studies []*ExportStudy, fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(fields))
	for _, st := range studies {
		for i, f := range fields {
			if flat, ok := flatFields[f]; ok {
				record[i] = clean(flat(st))
				continue
			}
			values, err := childFields[f](ctx, repo, st.StudyID)
			if err != nil {
				return nil, err
			}
			record[i] = clean(strings.Join(values, childSep))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
