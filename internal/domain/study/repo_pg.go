package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) CountMatches(ctx context.Context, q query.Query) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count studies: %w", err)
	}
	return n, nil
}

func (r *repoPG) SelectMatches(ctx context.Context, q query.Query) ([]*SearchResult, error) {
	rows, err := r.conn(ctx).Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("select studies: %w", err)
	}
	defer rows.Close()

	var out []*SearchResult
	for rows.Next() {
		var (
			res   SearchResult
			title *string
		)
		if err := rows.Scan(&res.StudyID, &res.NCTID, &title); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		res.Title = "NA"
		if title != nil && *title != "" {
			res.Title = *title
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select studies: %w", err)
	}
	return out, nil
}

const detailSQL = `
	SELECT s.study_id, s.study_type_id, COALESCE(t.study_type_name, ''),
		s.phase_id, COALESCE(ph.phase_name, ''),
		s.overall_status_id, COALESCE(os.status_name, ''),
		s.last_known_status_id, COALESCE(lks.status_name, ''),
		s.nct_id, COALESCE(s.official_title, ''), COALESCE(s.brief_title, ''),
		COALESCE(s.detailed_description, ''), COALESCE(s.org_study_id, ''),
		COALESCE(s.acronym, ''), COALESCE(s.source, ''), COALESCE(s.rank, ''),
		COALESCE(s.brief_summary, ''), COALESCE(s.why_stopped, ''),
		COALESCE(s.has_expanded_access, ''), COALESCE(s.target_duration, ''),
		COALESCE(s.biospec_retention, ''), COALESCE(s.biospec_description, ''),
		COALESCE(s.keywords, ''),
		COALESCE(to_char(s.start_date, 'YYYY-MM-DD'), ''),
		COALESCE(to_char(s.completion_date, 'YYYY-MM-DD'), ''),
		s.enrollment
	FROM study s
	LEFT JOIN study_type t ON t.study_type_id = s.study_type_id
	LEFT JOIN phase ph ON ph.phase_id = s.phase_id
	LEFT JOIN status os ON os.status_id = s.overall_status_id
	LEFT JOIN status lks ON lks.status_id = s.last_known_status_id
	WHERE s.nct_id = $1`

func (r *repoPG) GetByNCTID(ctx context.Context, nctID string) (*Detail, error) {
	var d Detail
	err := r.conn(ctx).QueryRow(ctx, detailSQL, nctID).Scan(
		&d.StudyID, &d.StudyTypeID, &d.StudyType,
		&d.PhaseID, &d.Phase,
		&d.OverallStatusID, &d.OverallStatus,
		&d.LastKnownStatusID, &d.LastKnownStatus,
		&d.NCTID, &d.OfficialTitle, &d.BriefTitle,
		&d.DetailedDescription, &d.OrgStudyID,
		&d.Acronym, &d.Source, &d.Rank,
		&d.BriefSummary, &d.WhyStopped,
		&d.HasExpandedAccess, &d.TargetDuration,
		&d.BiospecRetention, &d.BiospecDescription,
		&d.Keywords, &d.StartDate, &d.CompletionDate,
		&d.Enrollment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get study %s: %w", nctID, err)
	}
	return &d, nil
}

func (r *repoPG) ListSponsors(ctx context.Context, studyID int64) ([]Sponsor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.sponsor_id, p.sponsor_name
		FROM study_to_sponsor s2p
		JOIN sponsor p ON p.sponsor_id = s2p.sponsor_id
		WHERE s2p.study_id = $1
		ORDER BY p.sponsor_name`, studyID)
	if err != nil {
		return nil, fmt.Errorf("list sponsors: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Sponsor])
	if err != nil {
		return nil, fmt.Errorf("list sponsors: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListConditions(ctx context.Context, studyID int64) ([]Condition, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.condition_id, c.condition_name
		FROM study_to_condition s2c
		JOIN condition c ON c.condition_id = s2c.condition_id
		WHERE s2c.study_id = $1
		ORDER BY c.condition_name`, studyID)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Condition])
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListInterventions(ctx context.Context, studyID int64) ([]Intervention, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.intervention_id, i.intervention_name
		FROM study_to_intervention s2i
		JOIN intervention i ON i.intervention_id = s2i.intervention_id
		WHERE s2i.study_id = $1
		ORDER BY i.intervention_name`, studyID)
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Intervention])
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListOutcomes(ctx context.Context, studyID int64) ([]Outcome, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT study_outcome_id, COALESCE(outcome_type, '') AS outcome_type,
			COALESCE(measure, '') AS measure, COALESCE(time_frame, '') AS time_frame,
			COALESCE(description, '') AS description
		FROM study_outcome
		WHERE study_id = $1
		ORDER BY study_outcome_id`, studyID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Outcome])
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListDocs(ctx context.Context, studyID int64) ([]Doc, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT study_doc_id, COALESCE(doc_id, '') AS doc_id,
			COALESCE(doc_type, '') AS doc_type, COALESCE(doc_url, '') AS doc_url,
			COALESCE(doc_comment, '') AS doc_comment
		FROM study_doc
		WHERE study_id = $1
		ORDER BY study_doc_id`, studyID)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Doc])
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListCart(ctx context.Context, ids []int64) ([]*CartItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT study_id, nct_id, COALESCE(brief_title, '') AS brief_title
		FROM study
		WHERE study_id = ANY($1::bigint[])
		ORDER BY study_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[CartItem])
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return out, nil
}

func (r *repoPG) ListExport(ctx context.Context, ids []int64) ([]*ExportStudy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.study_id, s.nct_id,
			COALESCE(s.official_title, ''), COALESCE(s.brief_title, ''),
			COALESCE(s.brief_summary, ''), COALESCE(s.detailed_description, ''),
			COALESCE(s.keywords, ''), s.enrollment, s.start_date, s.completion_date,
			COALESCE(lks.status_name, ''), COALESCE(os.status_name, '')
		FROM study s
		LEFT JOIN status lks ON lks.status_id = s.last_known_status_id
		LEFT JOIN status os ON os.status_id = s.overall_status_id
		WHERE s.study_id = ANY($1::bigint[])
		ORDER BY s.study_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list export: %w", err)
	}
	defer rows.Close()

	var out []*ExportStudy
	for rows.Next() {
		var e ExportStudy
		if err := rows.Scan(&e.StudyID, &e.NCTID,
			&e.OfficialTitle, &e.BriefTitle,
			&e.BriefSummary, &e.DetailedDescription,
			&e.Keywords, &e.Enrollment, &e.StartDate, &e.CompletionDate,
			&e.LastKnownStatus, &e.OverallStatus); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list export: %w", err)
	}
	return out, nil
}

func (r *repoPG) CountStudies(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM study`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count studies: %w", err)
	}
	return n, nil
}

func (r *repoPG) LatestDataload(ctx context.Context) (*time.Time, error) {
	var at *time.Time
	if err := r.conn(ctx).QueryRow(ctx, `SELECT MAX(updated_on) FROM dataload`).Scan(&at); err != nil {
		return nil, fmt.Errorf("latest dataload: %w", err)
	}
	return at, nil
}
