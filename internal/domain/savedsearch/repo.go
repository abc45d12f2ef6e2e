package savedsearch

import "context"

type Repository interface {
	// Save stores s for the user with email unless an identical search
	// exists. created reports whether a row was inserted.
	Save(ctx context.Context, email string, s *SavedSearch) (created bool, err error)
	// ListByEmail returns the user's searches ordered by name, creating the
	// user when unknown.
	ListByEmail(ctx context.Context, email string) ([]*SavedSearch, error)
}
