package httpstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClient_ListPickups_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pickups", r.URL.Path)
		require.Equal(t, "c1", r.URL.Query().Get("container"))
		require.Equal(t, "true", r.URL.Query().Get("pending"))
		require.Equal(t, "k", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
  {"id":"p1","id_contenedor":"c1","fecha_solicitud":"2024-05-01","fecha_estimada":"2024-05-03","fecha_real":null,"frecuencia":"Diaria"},
  {"id":"p2","id_contenedor":"c1","fecha_solicitud":"2024-05-01","fecha_estimada":"2024-05-04","fecha_real":"2024-05-04","frecuencia":"Diaria"}
]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0)
	ps, err := c.ListPickups(context.Background(), "c1", true)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), ps[0].EstimatedDate)
	require.False(t, ps[0].Completed())
	require.True(t, ps[1].Completed())
}

func TestClient_ListPickups_Timestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
  {"id":"p1","id_contenedor":"c1","fecha_solicitud":"2024-05-01T08:15:00Z","fecha_estimada":"2024-05-09T08:00:00","frecuencia":"Diaria"},
  {"id":"p2","id_contenedor":"c1","fecha_solicitud":"2024-05-01 09:00:00","fecha_estimada":"2024-05-10T23:30:00+02:00","fecha_real":"2024-05-10T18:00:00.250Z","frecuencia":"Diaria"}
]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0)
	ps, err := c.ListPickups(context.Background(), "c1", false)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ps[0].RequestDate)
	require.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), ps[0].EstimatedDate)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ps[1].RequestDate)
	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), ps[1].EstimatedDate)
	require.True(t, ps[1].Completed())
	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), *ps[1].ActualDate)
}

func TestClient_ListPickups_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"p1","id_contenedor":"c1","fecha_solicitud":"mayo","fecha_estimada":"2024-05-09"}]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", time.Second, 0).ListPickups(context.Background(), "c1", false)
	require.Error(t, err)
}

func TestClient_CreatePickup_SendsDayKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2024-05-10", body["fecha_estimada"])
		require.Equal(t, "2024-05-01", body["fecha_solicitud"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p9","id_contenedor":"c1","fecha_solicitud":"2024-05-01","fecha_estimada":"2024-05-10","fecha_real":null,"frecuencia":"Semanal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, 100)
	p, err := c.CreatePickup(context.Background(), &models.PickupInput{
		ContainerID:   "c1",
		RequestDate:   time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
		EstimatedDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Cadence:       "Semanal",
	})
	require.NoError(t, err)
	require.Equal(t, "p9", p.ID)
}

func TestClient_UpdatePoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/collection-points/pt1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, 0)
	require.NoError(t, c.UpdatePointTimeOfDay(context.Background(), "pt1", models.TimeOfDayNight))
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/owners/00000000A" {
			http.Error(w, "no such owner", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, 0)
	_, err := c.GetOwner(context.Background(), "00000000A")
	require.True(t, recordstore.IsNotFound(err))

	_, err = c.ListPoints(context.Background(), "12345678Z")
	var se *recordstore.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.StatusCode())
	require.True(t, apperrors.IsRetryable(apperrors.UpstreamIO("list points", err)))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetContainer(ctx, "c1")
	require.Error(t, err)
	up := apperrors.UpstreamIO("get container", err)
	require.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatus(up))
}
