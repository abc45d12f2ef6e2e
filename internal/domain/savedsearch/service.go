package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "savedsearch").Logger()}
}

// Save stores the search for email. Saving an identical search again is a
// no-op and reports the same result.
func (s *Service) Save(ctx context.Context, email string, ss *SavedSearch) (*SaveResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(ss.SearchName) == "" {
		return nil, fmt.Errorf("%w: search_name is required", ErrInvalidInput)
	}
	created, err := s.repo.Save(ctx, email, ss)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("save search failed")
		return nil, err
	}
	s.log.Debug().Str("email", email).Str("search_name", ss.SearchName).Bool("created", created).Msg("search saved")
	return &SaveResult{NumSavedSearches: 1}, nil
}

func (s *Service) List(ctx context.Context, email string) ([]*SavedSearch, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	out, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("list saved searches failed")
		return nil, err
	}
	if out == nil {
		out = []*SavedSearch{}
	}
	return out, nil
}
