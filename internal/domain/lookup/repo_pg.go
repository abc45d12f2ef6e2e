package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
	"github.com/criticalpathinstitute/ctweb/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// listSQL renders the listing statement for kind. Identifiers come from the
// query package's declarations; the name filter and window are bound.
func listSQL(kind Kind, opts ListOptions) (string, []interface{}) {
	var preds []query.Predicate
	name := strings.TrimSpace(opts.Name)
	if name != "" {
		preds = append(preds, query.TextSearch{Column: kind.Name, Mode: query.ModeOf(opts.BoolSearch), Term: name})
	}
	where, args := query.Where(preds...)

	join := "JOIN"
	if kind.Sparse {
		join = "LEFT JOIN"
	}
	order := kind.Name.String()
	if name != "" {
		order = "num_studies DESC, " + order
	}

	sql := fmt.Sprintf(`SELECT %[1]s, %[2]s, COUNT(DISTINCT %[3]s) AS num_studies
FROM %[4]s
%[5]s %[6]s ON %[7]s = %[1]s
WHERE %[8]s
GROUP BY %[1]s, %[2]s
ORDER BY %[9]s`,
		kind.ID, kind.Name, kind.Counted,
		kind.ID.Table().SQL(),
		join, kind.Ref.Table().SQL(), kind.Ref,
		where, order)

	window, wargs := pagination.Params{Limit: opts.Limit, Offset: opts.Offset}.SQL(len(args) + 1)
	return sql + window, append(args, wargs...)
}

func (r *repoPG) List(ctx context.Context, kind Kind, opts ListOptions) ([]Row, error) {
	sql, args := listSQL(kind, opts)
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Path, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row := Row{Kind: kind}
		if err := rows.Scan(&row.ID, &row.Name, &row.NumStudies); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", kind.Path, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Path, err)
	}
	return out, nil
}
