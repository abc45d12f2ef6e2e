package savedsearch

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type repoGorm struct{ db *gorm.DB }

func NewRepoGorm(db *gorm.DB) Repository {
	return &repoGorm{db: db}
}

// lockedUser fetches or creates the web user for email while holding a
// transaction-scoped advisory lock on it, so concurrent requests for the same
// address cannot both miss the lookup and insert.
func lockedUser(tx *gorm.DB, email string) (*WebUser, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", email).Error; err != nil {
		return nil, fmt.Errorf("lock user %s: %w", email, err)
	}
	var u WebUser
	if err := tx.Where(WebUser{Email: email}).FirstOrCreate(&u).Error; err != nil {
		return nil, fmt.Errorf("get or create web user: %w", err)
	}
	return &u, nil
}

func (r *repoGorm) Save(ctx context.Context, email string, s *SavedSearch) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := lockedUser(tx, email)
		if err != nil {
			return err
		}
		s.WebUserID = u.WebUserID

		res := tx.Where(s.identity()).FirstOrCreate(s)
		if res.Error != nil {
			return fmt.Errorf("get or create saved search: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return nil
	})
	return created, err
}

func (r *repoGorm) ListByEmail(ctx context.Context, email string) ([]*SavedSearch, error) {
	var out []*SavedSearch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := lockedUser(tx, email)
		if err != nil {
			return err
		}
		if err := tx.Where("web_user_id = ?", u.WebUserID).Order("search_name").Find(&out).Error; err != nil {
			return fmt.Errorf("list saved searches: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
