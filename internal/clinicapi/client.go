// Package clinicapi is the HTTP client of the schedule API used by the grid
// store.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"clinicgrid/internal/metrics"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Is maps 404 responses onto ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client calls the schedule API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	scopedMove bool

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for baseURL authenticating with apiKey.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		scopedMove: true,
	}
}

// UseRedisCache configures optional Redis caching for catalogue GETs.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit paces outgoing requests. A non-positive rps disables pacing.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetScopedMove toggles use of PATCH /api/visits/{id}.
func (c *Client) SetScopedMove(enabled bool) {
	c.scopedMove = enabled
}

// SupportsScopedMove reports whether MoveVisit may be used.
func (c *Client) SupportsScopedMove(context.Context) bool {
	return c.scopedMove
}

// GetSchedule fetches the multi-day blob for [from, to].
func (c *Client) GetSchedule(ctx context.Context, from, to string) (model.MultiDayScheduleData, error) {
	endpoint := fmt.Sprintf("%s/api/schedule?from=%s&to=%s", c.baseURL, url.QueryEscape(from), url.QueryEscape(to))
	var data model.MultiDayScheduleData
	if err := c.doGet(ctx, endpoint, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// PutSchedule writes every day of data.
func (c *Client) PutSchedule(ctx context.Context, data model.MultiDayScheduleData) error {
	endpoint := fmt.Sprintf("%s/api/schedule", c.baseURL)
	return c.doJSON(ctx, http.MethodPut, endpoint, data, nil)
}

// MoveVisit moves one visit through the scoped endpoint.
func (c *Client) MoveVisit(ctx context.Context, m schedule.Move) (model.Visit, error) {
	endpoint := fmt.Sprintf("%s/api/visits/%s", c.baseURL, url.PathEscape(m.VisitID))
	var visit model.Visit
	if err := c.doJSON(ctx, http.MethodPatch, endpoint, m, &visit); err != nil {
		return model.Visit{}, err
	}
	return visit, nil
}

// ListCabinets returns the active cabinets.
func (c *Client) ListCabinets(ctx context.Context) ([]model.CabinetInfo, error) {
	var wrap struct {
		Cabinets []model.CabinetInfo `json:"cabinets"`
	}
	if err := c.cachedGet(ctx, "cabinets", c.baseURL+"/api/cabinets", &wrap); err != nil {
		return nil, err
	}
	return wrap.Cabinets, nil
}

// ListDoctors returns the active staff.
func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	var wrap struct {
		Doctors []model.Doctor `json:"doctors"`
	}
	if err := c.cachedGet(ctx, "doctors", c.baseURL+"/api/doctors", &wrap); err != nil {
		return nil, err
	}
	return wrap.Doctors, nil
}

// ListStatuses returns the visit status taxonomy.
func (c *Client) ListStatuses(ctx context.Context) ([]model.PatientStatus, error) {
	var wrap struct {
		Statuses []model.PatientStatus `json:"statuses"`
	}
	if err := c.cachedGet(ctx, "statuses", c.baseURL+"/api/statuses", &wrap); err != nil {
		return nil, err
	}
	return wrap.Statuses, nil
}

// ListPatients searches patients by name or phone.
func (c *Client) ListPatients(ctx context.Context, query string) ([]model.Patient, error) {
	endpoint := c.baseURL + "/api/patients"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	var wrap struct {
		Patients []model.Patient `json:"patients"`
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	return wrap.Patients, nil
}

// CreatePatient registers a patient and returns it with its new ID.
func (c *Client) CreatePatient(ctx context.Context, p model.Patient) (model.Patient, error) {
	var created model.Patient
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/patients", p, &created); err != nil {
		return model.Patient{}, err
	}
	return created, nil
}

// GetSettings loads the grid settings of a user.
func (c *Client) GetSettings(ctx context.Context, userID int64) (model.UserSettings, error) {
	var s model.UserSettings
	err := c.doGet(ctx, c.baseURL+"/api/settings/"+strconv.FormatInt(userID, 10), &s)
	return s, err
}

// PutSettings saves the grid settings of a user.
func (c *Client) PutSettings(ctx context.Context, s model.UserSettings) (model.UserSettings, error) {
	var saved model.UserSettings
	endpoint := c.baseURL + "/api/settings/" + strconv.FormatInt(s.UserID, 10)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, s, &saved); err != nil {
		return model.UserSettings{}, err
	}
	return saved, nil
}

// HealthCheck checks if the API is available.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) cachedGet(ctx context.Context, key, endpoint string, out any) error {
	if c.readCache(ctx, key, out) {
		metrics.IncCacheHit()
		return nil
	}
	metrics.IncCacheMiss()

	if err := c.doGet(ctx, endpoint, out); err != nil {
		return err
	}
	c.writeCache(ctx, key, out)
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(key), data, c.cacheTTL).Err()
}

// InvalidateCatalog drops cached catalogue responses.
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, cacheKey("cabinets"), cacheKey("doctors"), cacheKey("statuses")).Err()
}

func cacheKey(key string) string {
	return "clinicgrid:" + key
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	}
	return apiErr
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
