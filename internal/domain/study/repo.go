package study

import (
	"context"
	"time"

	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
)

// Repository reads studies from the registry. Implementations run every
// statement on the connection carried by ctx when there is one.
type Repository interface {
	// CountMatches and SelectMatches execute queries rendered by Filter.Queries.
	CountMatches(ctx context.Context, q query.Query) (int, error)
	SelectMatches(ctx context.Context, q query.Query) ([]*SearchResult, error)

	// GetByNCTID returns nil and no error when the study does not exist.
	GetByNCTID(ctx context.Context, nctID string) (*Detail, error)
	ListSponsors(ctx context.Context, studyID int64) ([]Sponsor, error)
	ListConditions(ctx context.Context, studyID int64) ([]Condition, error)
	ListInterventions(ctx context.Context, studyID int64) ([]Intervention, error)
	ListOutcomes(ctx context.Context, studyID int64) ([]Outcome, error)
	ListDocs(ctx context.Context, studyID int64) ([]Doc, error)

	ListCart(ctx context.Context, ids []int64) ([]*CartItem, error)
	ListExport(ctx context.Context, ids []int64) ([]*ExportStudy, error)

	CountStudies(ctx context.Context) (int, error)
	// LatestDataload returns nil when no load has been recorded.
	LatestDataload(ctx context.Context) (*time.Time, error)
}
