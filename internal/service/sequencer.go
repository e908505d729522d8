package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

// nextSortOrder returns the key for an item appended to the collection.
func nextSortOrder(ctx context.Context, exec sqlx.ExtContext, store sortOrderStore, templateID string) (int, error) {
	current, err := store.ListOrder(ctx, exec, templateID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return ordering.NextSortOrder(current), nil
}

// reorderCollection applies a full permutation. Membership drift since the client
// loaded the list is rejected with ORDER_MISMATCH and nothing is written.
func reorderCollection(ctx context.Context, exec sqlx.ExtContext, store sortOrderStore, templateID string, ids []string) error {
	current, err := store.ListOrder(ctx, exec, templateID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	next, err := ordering.Reorder(current, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrOrderMismatch.Code, appErrors.ErrOrderMismatch.Status, appErrors.ErrOrderMismatch.Message)
	}
	return persistOrder(ctx, exec, store, templateID, ordering.Diff(current, next))
}

// moveInCollection moves one item a single step; moving past either end is a no-op.
func moveInCollection(ctx context.Context, exec sqlx.ExtContext, store sortOrderStore, templateID, id string, direction ordering.Direction) error {
	current, err := store.ListOrder(ctx, exec, templateID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	changes, err := ordering.MoveOneStep(current, id, direction)
	switch {
	case errors.Is(err, ordering.ErrUnknownItem):
		return appErrors.Clone(appErrors.ErrNotFound, "item not found")
	case errors.Is(err, ordering.ErrInvalidDirection):
		return appErrors.Clone(appErrors.ErrValidation, "direction must be up or down")
	case err != nil:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move item")
	}
	return persistOrder(ctx, exec, store, templateID, changes)
}

func persistOrder(ctx context.Context, exec sqlx.ExtContext, store sortOrderStore, templateID string, changes []ordering.Entry) error {
	if len(changes) == 0 {
		return nil
	}
	if err := store.UpdateSortOrders(ctx, exec, templateID, changes); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save order")
	}
	return nil
}
