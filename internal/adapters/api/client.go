package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
)

// Config holds the connection settings of the CRM backend.
type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Location *time.Location // zone of timestamps sent without one; UTC when nil
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GET %s: status %d", e.Path, e.StatusCode)
}

// Client reads the gym's collections from the CRM REST API.
type Client struct {
	baseURL string
	token   string
	loc     *time.Location
	http    *http.Client
}

// NewClient creates a client for the backend at cfg.BaseURL.
// PRE: cfg.BaseURL is an absolute URL
// POST: Returns a client with cfg.Timeout (10s when unset) per request
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		loc:     loc,
		http:    &http.Client{Timeout: timeout},
	}
}

// get decodes the JSON body of GET path into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from an error body when present.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

// FetchPayments reads GET /pagos.
// PRE: ctx is not cancelled
// POST: Returns normalized payments and the records dropped at ingestion
func (c *Client) FetchPayments(ctx context.Context) (Batch[payment.Payment], error) {
	var raws []json.RawMessage
	if err := c.get(ctx, "/pagos", &raws); err != nil {
		return Batch[payment.Payment]{}, err
	}
	return normalizeAll("pagos", raws, func(d pagoDTO) string { return string(d.ID) }, normalizePayment), nil
}

// FetchClients reads GET /clientes.
func (c *Client) FetchClients(ctx context.Context) (Batch[client.Client], error) {
	var raws []json.RawMessage
	if err := c.get(ctx, "/clientes", &raws); err != nil {
		return Batch[client.Client]{}, err
	}
	return normalizeAll("clientes", raws, func(d clienteDTO) string { return string(d.ID) }, normalizeClient), nil
}

// FetchAttendance reads GET /asistencias.
func (c *Client) FetchAttendance(ctx context.Context) (Batch[attendance.Attendance], error) {
	var raws []json.RawMessage
	if err := c.get(ctx, "/asistencias", &raws); err != nil {
		return Batch[attendance.Attendance]{}, err
	}
	return normalizeAll("asistencias", raws, func(d asistenciaDTO) string { return string(d.ID) },
		func(d asistenciaDTO) (attendance.Attendance, error) { return normalizeAttendance(d, c.loc) }), nil
}

// FetchSales reads GET /ventas.
func (c *Client) FetchSales(ctx context.Context) (Batch[sale.Sale], error) {
	var raws []json.RawMessage
	if err := c.get(ctx, "/ventas", &raws); err != nil {
		return Batch[sale.Sale]{}, err
	}
	return normalizeAll("ventas", raws, func(d ventaDTO) string { return string(d.ID) }, normalizeSale), nil
}
