package ports

import (
	"context"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// UserRepository reads accounts owned by the external identity service.
type UserRepository interface {
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}
