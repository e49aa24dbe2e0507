package scheduler

import (
	"context"
	"net/http"
	"sync"

	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore/memstore"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/stretchr/testify/mock"
)

// flakyStore is a memstore with injectable failures and call counters.
type flakyStore struct {
	*memstore.Store

	mu    sync.Mutex
	calls map[string]int

	failListPickups  int
	failGetContainer int
	failUpdatePoint  error
	failCreateOn     map[string]error
	// afterUpdate runs after a successful point update, standing in for a
	// concurrent writer.
	afterUpdate func()
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		Store:        memstore.New(),
		calls:        map[string]int{},
		failCreateOn: map[string]error{},
	}
}

func unavailable(op string) error {
	return &recordstore.StatusError{Op: op, Code: http.StatusServiceUnavailable}
}

func (f *flakyStore) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *flakyStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *flakyStore) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *flakyStore) ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error) {
	f.count("ListPoints")
	return f.Store.ListPoints(ctx, ownerKey)
}

func (f *flakyStore) GetPoint(ctx context.Context, id string) (*models.CollectionPoint, error) {
	f.count("GetPoint")
	return f.Store.GetPoint(ctx, id)
}

func (f *flakyStore) UpdatePointTimeOfDay(ctx context.Context, id, timeOfDay string) error {
	f.count("UpdatePointTimeOfDay")
	if f.failUpdatePoint != nil {
		return f.failUpdatePoint
	}
	if err := f.Store.UpdatePointTimeOfDay(ctx, id, timeOfDay); err != nil {
		return err
	}
	if f.afterUpdate != nil {
		f.afterUpdate()
	}
	return nil
}

func (f *flakyStore) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	f.count("GetContainer")
	if f.failGetContainer > 0 {
		f.failGetContainer--
		return nil, unavailable("get container")
	}
	return f.Store.GetContainer(ctx, id)
}

func (f *flakyStore) CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error) {
	f.count("CreateContainer")
	return f.Store.CreateContainer(ctx, in)
}

func (f *flakyStore) ListPickups(ctx context.Context, containerID string, pendingOnly bool) ([]*models.Pickup, error) {
	f.count("ListPickups")
	if f.failListPickups > 0 {
		f.failListPickups--
		return nil, unavailable("list pickups")
	}
	return f.Store.ListPickups(ctx, containerID, pendingOnly)
}

func (f *flakyStore) CreatePickup(ctx context.Context, in *models.PickupInput) (*models.Pickup, error) {
	f.count("CreatePickup")
	if err, ok := f.failCreateOn[scheduling.DayKey(in.EstimatedDate)]; ok {
		return nil, err
	}
	return f.Store.CreatePickup(ctx, in)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
