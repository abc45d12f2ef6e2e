package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
)

// ErrInvalidInput marks request values the service refuses before touching
// the datastore.
var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo    Repository
	tx      db.TxRunner
	log     zerolog.Logger
	metrics *Metrics
}

func NewService(repo Repository, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		log:  log.With().Str("component", "study").Logger(),
	}
}

// SetMetrics attaches optional search collectors.
func (s *Service) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Search runs the filter's count and selection queries in one read-only
// transaction. A filter that supplies nothing matches nothing, and the
// datastore is not queried.
func (s *Service) Search(ctx context.Context, f Filter) (*SearchResults, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	countQ, rowsQ, ok := f.Queries()
	if !ok {
		s.metrics.observe("empty", 0)
		return &SearchResults{Count: 0, Records: []*SearchResult{}}, nil
	}

	res := &SearchResults{Records: []*SearchResult{}}
	err := s.tx.ReadTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.CountMatches(ctx, countQ)
		if err != nil {
			return err
		}
		res.Count = n
		records, err := s.repo.SelectMatches(ctx, rowsQ)
		if err != nil {
			return err
		}
		if records != nil {
			res.Records = records
		}
		return nil
	})
	if err != nil {
		s.metrics.observe("error", 0)
		s.log.Error().Err(err).Str("sql", rowsQ.SQL).Msg("search failed")
		return nil, err
	}
	s.metrics.observe("ok", res.Count)
	return res, nil
}

// Detail returns the study with its children, or nil when nctID is unknown.
func (s *Service) Detail(ctx context.Context, nctID string) (*Detail, error) {
	if nctID == "" {
		return nil, fmt.Errorf("%w: nct_id is required", ErrInvalidInput)
	}
	var out *Detail
	err := s.tx.ReadTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetByNCTID(ctx, nctID)
		if err != nil || d == nil {
			return err
		}
		if d.Sponsors, err = s.repo.ListSponsors(ctx, d.StudyID); err != nil {
			return err
		}
		if d.Conditions, err = s.repo.ListConditions(ctx, d.StudyID); err != nil {
			return err
		}
		if d.Interventions, err = s.repo.ListInterventions(ctx, d.StudyID); err != nil {
			return err
		}
		if d.Outcomes, err = s.repo.ListOutcomes(ctx, d.StudyID); err != nil {
			return err
		}
		if d.Docs, err = s.repo.ListDocs(ctx, d.StudyID); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("nct_id", nctID).Msg("study detail failed")
		return nil, err
	}
	if out != nil {
		ensureChildren(out)
	}
	return out, nil
}

// ensureChildren renders absent collections as [] rather than null.
func ensureChildren(d *Detail) {
	if d.Sponsors == nil {
		d.Sponsors = []Sponsor{}
	}
	if d.Conditions == nil {
		d.Conditions = []Condition{}
	}
	if d.Interventions == nil {
		d.Interventions = []Intervention{}
	}
	if d.Outcomes == nil {
		d.Outcomes = []Outcome{}
	}
	if d.Docs == nil {
		d.Docs = []Doc{}
	}
}

// Cart returns the minimal records for the given study ids.
func (s *Service) Cart(ctx context.Context, ids []int64) ([]*CartItem, error) {
	items := []*CartItem{}
	if len(ids) == 0 {
		return items, nil
	}
	err := s.tx.ReadTx(ctx, func(ctx context.Context) error {
		rows, err := s.repo.ListCart(ctx, ids)
		if err != nil {
			return err
		}
		if rows != nil {
			items = rows
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("view cart failed")
		return nil, err
	}
	return items, nil
}

// Export renders the requested studies as CSV with the given columns. The
// header is always present, even when no study matches.
func (s *Service) Export(ctx context.Context, ids []int64, fields []string) ([]byte, error) {
	if len(fields) == 0 {
		fields = DefaultExportFields
	}
	var out []byte
	err := s.tx.ReadTx(ctx, func(ctx context.Context) error {
		var studies []*ExportStudy
		if len(ids) > 0 {
			var err error
			if studies, err = s.repo.ListExport(ctx, ids); err != nil {
				return err
			}
		}
		var err error
		out, err = writeCSV(ctx, s.repo, studies, fields)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int("studies", len(ids)).Msg("export failed")
		return nil, err
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	n, err := s.repo.CountStudies(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("summary failed")
		return nil, err
	}
	return &Summary{NumStudies: n}, nil
}

// Dataload reports the registry size and the time of the latest load.
func (s *Service) Dataload(ctx context.Context) (*Dataload, error) {
	out := &Dataload{UpdatedOn: "NA"}
	err := s.tx.ReadTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.CountStudies(ctx)
		if err != nil {
			return err
		}
		out.NumStudies = n
		at, err := s.repo.LatestDataload(ctx)
		if err != nil {
			return err
		}
		if at != nil {
			out.UpdatedOn = at.Format("2006-01-02")
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("dataload failed")
		return nil, err
	}
	return out, nil
}
