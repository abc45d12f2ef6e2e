package lookup

import "context"

type Repository interface {
	List(ctx context.Context, kind Kind, opts ListOptions) ([]Row, error)
}
