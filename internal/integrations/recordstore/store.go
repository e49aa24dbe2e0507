// Package recordstore describes the remote record store holding owners,
// collection points, containers and pickups.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/models"
)

// Store is the request/response API of the four record collections.
// Lookups of a missing record return an error matching apperrors.ErrNotFound.
type Store interface {
	GetOwner(ctx context.Context, key string) (*models.Owner, error)
	CreateOwner(ctx context.Context, in *models.OwnerInput) (*models.Owner, error)

	ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error)
	GetPoint(ctx context.Context, id string) (*models.CollectionPoint, error)
	CreatePoint(ctx context.Context, in *models.CollectionPointInput) (*models.CollectionPoint, error)
	UpdatePointTimeOfDay(ctx context.Context, id, timeOfDay string) error

	ListContainers(ctx context.Context, pointID string) ([]*models.Container, error)
	GetContainer(ctx context.Context, id string) (*models.Container, error)
	CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error)

	ListPickups(ctx context.Context, containerID string, pendingOnly bool) ([]*models.Pickup, error)
	CreatePickup(ctx context.Context, in *models.PickupInput) (*models.Pickup, error)
}

// StatusError is a non-success response of the record store.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("record store %s: http %d", e.Op, e.Code)
	}
	return fmt.Sprintf("record store %s: http %d: %s", e.Op, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

func (e *StatusError) Is(target error) bool {
	return target == apperrors.ErrNotFound && e.Code == http.StatusNotFound
}

func NotFound(op string) error {
	return &StatusError{Op: op, Code: http.StatusNotFound}
}

func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
