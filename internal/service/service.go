package service

import (
	"context"
	"errors"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"
	"go-ecom-api/internal/ws"
	"go-ecom-api/pkg/validator"

	"github.com/google/uuid"
)

// EventPublisher receives live-feed events after a write commits.
type EventPublisher interface {
	Publish(ev ws.Event)
}

type nopEvents struct{}

func (nopEvents) Publish(ws.Event) {}

// CacheTTLs are the expiries of the catalog read models.
type CacheTTLs struct {
	Product  time.Duration
	Category time.Duration
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperror.Validation("%s", validator.Message(errs))
	}
	return nil
}

// lookupErr classifies a failed single-record read.
func lookupErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("%s not found", what)
	}
	return apperror.Database("failed to load "+what, err)
}

// authorizeOwned runs the policy gate and reports records outside the
// principal's scope as missing so their existence does not leak.
func authorizeOwned(p policy.Principal, action policy.Action, ownerID uuid.UUID, what string) error {
	err := policy.Authorize(p, action, ownerID)
	if errors.Is(err, policy.ErrNotOwner) {
		return apperror.NotFound("%s not found", what)
	}
	return err
}

func actor(p policy.Principal) string {
	return p.UserID.String()
}

// invalidateProducts drops every read model a change to products can stale.
func invalidateProducts(ctx context.Context, c cache.Cache, ids []uuid.UUID, owners []uuid.UUID) {
	keys := []string{cache.AllProductsKey}
	for _, id := range ids {
		keys = append(keys, cache.ProductKey(id))
	}
	seen := map[uuid.UUID]bool{}
	for _, owner := range owners {
		if !seen[owner] {
			seen[owner] = true
			keys = append(keys, cache.OwnerProductsKey(owner))
		}
	}
	c.Delete(ctx, keys...)
}
