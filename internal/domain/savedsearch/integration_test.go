//go:build integration

package savedsearch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/platform/db/dbtest"
)

func TestIntegration_SaveIsIdempotent(t *testing.T) {
	pg := dbtest.Start(t)
	pg.Truncate(t, "saved_search", "web_user")

	gdb, err := db.OpenGorm(pg.Pool, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	svc := NewService(NewRepoGorm(gdb), zerolog.Nop())
	ctx := context.Background()

	search := func() *SavedSearch {
		return &SavedSearch{SearchName: "diabetes p2", Conditions: "diabetes", PhaseIDs: "2", Enrollment: 10}
	}

	for i := 0; i < 2; i++ {
		res, err := svc.Save(ctx, "a@example.org", search())
		if err != nil {
			t.Fatalf("Save #%d: %v", i+1, err)
		}
		if res.NumSavedSearches != 1 {
			t.Errorf("Save #%d: expected num_saved_searches 1, got %d", i+1, res.NumSavedSearches)
		}
	}

	var rows int
	if err := pg.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM saved_search`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected 1 stored search, got %d", rows)
	}

	other := search()
	other.Enrollment = 20
	if _, err := svc.Save(ctx, "a@example.org", other); err != nil {
		t.Fatalf("Save different: %v", err)
	}

	list, err := svc.List(ctx, "a@example.org")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 saved searches, got %d", len(list))
	}

	empty, err := svc.List(ctx, "nobody@example.org")
	if err != nil {
		t.Fatalf("List unknown: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %v", empty)
	}
}

func TestIntegration_ConcurrentSaveAndListForNewUser(t *testing.T) {
	pg := dbtest.Start(t)
	pg.Truncate(t, "saved_search", "web_user")

	gdb, err := db.OpenGorm(pg.Pool, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	svc := NewService(NewRepoGorm(gdb), zerolog.Nop())
	ctx := context.Background()

	const rounds = 10
	for i := 0; i < rounds; i++ {
		email := fmt.Sprintf("new%d@example.org", i)
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Save(ctx, email, &SavedSearch{SearchName: "s", Conditions: "asthma"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.List(ctx, email)
			errs <- err
		}()
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("round %d: %v", i, err)
			}
		}
	}

	var users int
	if err := pg.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM web_user`).Scan(&users); err != nil {
		t.Fatalf("count: %v", err)
	}
	if users != rounds {
		t.Errorf("expected %d web users, got %d", rounds, users)
	}
}
