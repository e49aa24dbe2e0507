// Package memstore is an in-process record store used by local runs and
// tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	owners     map[string]models.Owner
	points     map[string]models.CollectionPoint
	containers map[string]models.Container
	pickups    map[string]models.Pickup
	// insertion order of pickups, for stable listings
	pickupSeq []string
}

var _ recordstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		owners:     make(map[string]models.Owner),
		points:     make(map[string]models.CollectionPoint),
		containers: make(map[string]models.Container),
		pickups:    make(map[string]models.Pickup),
	}
}

func (s *Store) GetOwner(ctx context.Context, key string) (*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[key]
	if !ok {
		return nil, recordstore.NotFound("get owner")
	}
	return &o, nil
}

func (s *Store) CreateOwner(ctx context.Context, in *models.OwnerInput) (*models.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := models.Owner(*in)
	s.owners[o.Key] = o
	return &o, nil
}

func (s *Store) ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CollectionPoint
	for _, p := range s.points {
		if p.OwnerKey == ownerKey {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPoint(ctx context.Context, id string) (*models.CollectionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[id]
	if !ok {
		return nil, recordstore.NotFound("get point")
	}
	return &p, nil
}

func (s *Store) CreatePoint(ctx context.Context, in *models.CollectionPointInput) (*models.CollectionPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.CollectionPoint{
		ID:         uuid.NewString(),
		OwnerKey:   in.OwnerKey,
		Address:    in.Address,
		Locality:   in.Locality,
		PostalCode: in.PostalCode,
		Province:   in.Province,
		SourceType: in.SourceType,
		TimeOfDay:  in.TimeOfDay,
	}
	s.points[p.ID] = p
	return &p, nil
}

func (s *Store) UpdatePointTimeOfDay(ctx context.Context, id, timeOfDay string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[id]
	if !ok {
		return recordstore.NotFound("update point")
	}
	p.TimeOfDay = timeOfDay
	s.points[id] = p
	return nil
}

func (s *Store) ListContainers(ctx context.Context, pointID string) ([]*models.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Container
	for _, c := range s.containers {
		if c.PointID == pointID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[id]
	if !ok {
		return nil, recordstore.NotFound("get container")
	}
	return &c, nil
}

func (s *Store) CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Container{
		ID:             uuid.NewString(),
		PointID:        in.PointID,
		CapacityLiters: in.CapacityLiters,
		WasteCategory:  in.WasteCategory,
		Cadence:        in.Cadence,
		Punctual:       in.Punctual,
	}
	s.containers[c.ID] = c
	return &c, nil
}

func (s *Store) ListPickups(ctx context.Context, containerID string, pendingOnly bool) ([]*models.Pickup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Pickup
	for _, id := range s.pickupSeq {
		p := s.pickups[id]
		if p.ContainerID != containerID {
			continue
		}
		if pendingOnly && p.Completed() {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (s *Store) CreatePickup(ctx context.Context, in *models.PickupInput) (*models.Pickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Pickup{
		ID:            uuid.NewString(),
		ContainerID:   in.ContainerID,
		RequestDate:   in.RequestDate,
		EstimatedDate: in.EstimatedDate,
		Cadence:       in.Cadence,
	}
	s.pickups[p.ID] = p
	s.pickupSeq = append(s.pickupSeq, p.ID)
	return &p, nil
}

// CompletePickup records the actual collection date. It stands in for the
// operator workflow that closes pickups.
func (s *Store) CompletePickup(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[id]
	if !ok {
		return recordstore.NotFound("complete pickup")
	}
	p.ActualDate = &at
	s.pickups[id] = p
	return nil
}
