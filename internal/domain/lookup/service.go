package lookup

import (
	"context"

	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "lookup").Logger()}
}

func (s *Service) List(ctx context.Context, kind Kind, opts ListOptions) ([]Row, error) {
	rows, err := s.repo.List(ctx, kind, opts)
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind.Path).Str("name", opts.Name).Msg("lookup listing failed")
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}
