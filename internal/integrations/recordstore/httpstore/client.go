package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
}

var _ recordstore.Store = (*Client)(nil)

// New creates a record-store client. requestsPerSecond <= 0 disables
// client-side throttling.
func New(baseURL, apiKey string, timeout time.Duration, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type ownerDTO struct {
	Key   string `json:"dni"`
	Name  string `json:"nombre"`
	Phone string `json:"telefono"`
	Email string `json:"email"`
}

type pointDTO struct {
	ID         string `json:"id,omitempty"`
	OwnerKey   string `json:"dni_propietario"`
	Address    string `json:"direccion"`
	Locality   string `json:"localidad"`
	PostalCode string `json:"codigo_postal"`
	Province   string `json:"provincia"`
	SourceType string `json:"tipo_generador"`
	TimeOfDay  string `json:"franja_horaria"`
}

type containerDTO struct {
	ID             string `json:"id,omitempty"`
	PointID        string `json:"id_punto"`
	CapacityLiters int    `json:"capacidad"`
	WasteCategory  int    `json:"tipo_residuo"`
	Cadence        string `json:"frecuencia,omitempty"`
	Punctual       bool   `json:"es_puntual"`
}

type pickupDTO struct {
	ID            string  `json:"id,omitempty"`
	ContainerID   string  `json:"id_contenedor"`
	RequestDate   string  `json:"fecha_solicitud"`
	EstimatedDate string  `json:"fecha_estimada"`
	ActualDate    *string `json:"fecha_real"`
	Incident      *string `json:"incidencia,omitempty"`
	Cadence       string  `json:"frecuencia,omitempty"`
}

func (c *Client) GetOwner(ctx context.Context, key string) (*models.Owner, error) {
	var dto ownerDTO
	if err := c.do(ctx, "get owner", http.MethodGet, "/owners/"+url.PathEscape(key), nil, nil, &dto); err != nil {
		return nil, err
	}
	o := models.Owner(dto)
	return &o, nil
}

func (c *Client) CreateOwner(ctx context.Context, in *models.OwnerInput) (*models.Owner, error) {
	var dto ownerDTO
	if err := c.do(ctx, "create owner", http.MethodPost, "/owners", nil, ownerDTO(*in), &dto); err != nil {
		return nil, err
	}
	o := models.Owner(dto)
	return &o, nil
}

func (c *Client) ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error) {
	var dtos []pointDTO
	q := url.Values{"owner": {ownerKey}}
	if err := c.do(ctx, "list points", http.MethodGet, "/collection-points", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]*models.CollectionPoint, 0, len(dtos))
	for _, d := range dtos {
		p := models.CollectionPoint(d)
		out = append(out, &p)
	}
	return out, nil
}

func (c *Client) GetPoint(ctx context.Context, id string) (*models.CollectionPoint, error) {
	var dto pointDTO
	if err := c.do(ctx, "get point", http.MethodGet, "/collection-points/"+url.PathEscape(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	p := models.CollectionPoint(dto)
	return &p, nil
}

func (c *Client) CreatePoint(ctx context.Context, in *models.CollectionPointInput) (*models.CollectionPoint, error) {
	body := pointDTO{
		OwnerKey:   in.OwnerKey,
		Address:    in.Address,
		Locality:   in.Locality,
		PostalCode: in.PostalCode,
		Province:   in.Province,
		SourceType: in.SourceType,
		TimeOfDay:  in.TimeOfDay,
	}
	var dto pointDTO
	if err := c.do(ctx, "create point", http.MethodPost, "/collection-points", nil, body, &dto); err != nil {
		return nil, err
	}
	p := models.CollectionPoint(dto)
	return &p, nil
}

func (c *Client) UpdatePointTimeOfDay(ctx context.Context, id, timeOfDay string) error {
	body := map[string]string{"franja_horaria": timeOfDay}
	return c.do(ctx, "update point", http.MethodPatch, "/collection-points/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) ListContainers(ctx context.Context, pointID string) ([]*models.Container, error) {
	var dtos []containerDTO
	q := url.Values{"point": {pointID}}
	if err := c.do(ctx, "list containers", http.MethodGet, "/containers", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]*models.Container, 0, len(dtos))
	for _, d := range dtos {
		ct := models.Container(d)
		out = append(out, &ct)
	}
	return out, nil
}

func (c *Client) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	var dto containerDTO
	if err := c.do(ctx, "get container", http.MethodGet, "/containers/"+url.PathEscape(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	ct := models.Container(dto)
	return &ct, nil
}

func (c *Client) CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error) {
	body := containerDTO{
		PointID:        in.PointID,
		CapacityLiters: in.CapacityLiters,
		WasteCategory:  in.WasteCategory,
		Cadence:        in.Cadence,
		Punctual:       in.Punctual,
	}
	var dto containerDTO
	if err := c.do(ctx, "create container", http.MethodPost, "/containers", nil, body, &dto); err != nil {
		return nil, err
	}
	ct := models.Container(dto)
	return &ct, nil
}

func (c *Client) ListPickups(ctx context.Context, containerID string, pendingOnly bool) ([]*models.Pickup, error) {
	var dtos []pickupDTO
	q := url.Values{"container": {containerID}}
	if pendingOnly {
		q.Set("pending", "true")
	}
	if err := c.do(ctx, "list pickups", http.MethodGet, "/pickups", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]*models.Pickup, 0, len(dtos))
	for _, d := range dtos {
		p, err := pickupFromDTO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) CreatePickup(ctx context.Context, in *models.PickupInput) (*models.Pickup, error) {
	body := pickupDTO{
		ContainerID:   in.ContainerID,
		RequestDate:   scheduling.DayKey(in.RequestDate),
		EstimatedDate: scheduling.DayKey(in.EstimatedDate),
		Cadence:       in.Cadence,
	}
	var dto pickupDTO
	if err := c.do(ctx, "create pickup", http.MethodPost, "/pickups", nil, body, &dto); err != nil {
		return nil, err
	}
	return pickupFromDTO(dto)
}

// storeDayLayouts are the date forms the record store is known to send.
var storeDayLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseStoreDay reads a date or timestamp and keeps its calendar day.
func parseStoreDay(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var firstErr error
	for _, layout := range storeDayLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return scheduling.Day(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func pickupFromDTO(d pickupDTO) (*models.Pickup, error) {
	req, err := parseStoreDay(d.RequestDate)
	if err != nil {
		return nil, errors.Wrap(err, "parse request date")
	}
	est, err := parseStoreDay(d.EstimatedDate)
	if err != nil {
		return nil, errors.Wrap(err, "parse estimated date")
	}
	p := &models.Pickup{
		ID:            d.ID,
		ContainerID:   d.ContainerID,
		RequestDate:   req,
		EstimatedDate: est,
		Incident:      d.Incident,
		Cadence:       d.Cadence,
	}
	if d.ActualDate != nil && *d.ActualDate != "" {
		act, err := parseStoreDay(*d.ActualDate)
		if err != nil {
			return nil, errors.Wrap(err, "parse actual date")
		}
		p.ActualDate = &act
	}
	return p, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	if q == nil {
		q = url.Values{}
	}
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &recordstore.StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}
