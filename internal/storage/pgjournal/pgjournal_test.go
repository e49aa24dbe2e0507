package pgjournal

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/PickupBox/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGJournal_RepoFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "pickupbox_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/pickupbox_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Ping(ctx))

	day := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	pid := "p1"
	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	n, err := st.InsertEntries(ctx, []*models.JournalEntry{
		{EventID: "e1", EventType: models.JournalPickupScheduled, OwnerKey: "12345678Z", PointID: "pt1", ContainerID: "c1", PickupID: &pid, Day: &day, Cadence: "Diaria", OccurredAt: recent},
		{EventID: "e2", EventType: models.JournalPointTimeChanged, OwnerKey: "12345678Z", PointID: "pt1", Detail: "M -> N", OccurredAt: old},
		{EventID: "e3", EventType: models.JournalPickupScheduled, OwnerKey: "87654321X", PointID: "pt2", ContainerID: "c2", OccurredAt: recent},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// redelivery
	n, err = st.InsertEntries(ctx, []*models.JournalEntry{
		{EventID: "e1", EventType: models.JournalPickupScheduled, OwnerKey: "12345678Z", OccurredAt: recent},
	})
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := st.ListEntries(ctx, ListFilter{OwnerKey: "12345678Z"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "e1", got[0].EventID)
	require.NotNil(t, got[0].Day)
	require.True(t, day.Equal(*got[0].Day))
	require.Equal(t, "p1", *got[0].PickupID)
	require.Nil(t, got[1].Day)

	got, err = st.ListEntries(ctx, ListFilter{ContainerID: "c2"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Entries)
	require.NotNil(t, stats.LastOccurred)

	purged, err := st.PurgeBefore(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
}
