package growatt

import (
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
)

const (
	DefaultAPIBaseURL = "https://openapi.growatt.com/"

	apiPrefix         = "v1/"
	storageLastData   = "device/storage/storage_last_data"
	rateLimitErrCode  = 10012
	defaultAPITimeout = 15 * time.Second
)

// APIError surfaces Growatt error codes.
type APIError struct {
	Code int
	Msg  string
}

func (e APIError) Error() string {
	return fmt.Sprintf("growatt api error %d: %s", e.Code, e.Msg)
}

func IsRateLimit(err error) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == rateLimitErrCode
	}
	return false
}

// StorageAPIReader reads storage telemetry from the Growatt OpenAPI.
type StorageAPIReader struct {
	baseURL string
	token   string
	serial  string
	model   string
	http    *http.Client
}

func CreateStorageAPIReader(baseURL, token, serial, model string, timeout time.Duration) (StorageReader, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("growatt token is empty")
	}
	if strings.TrimSpace(serial) == "" {
		return nil, errors.New("growatt storage serial is empty")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &StorageAPIReader{
		baseURL: baseURL,
		token:   token,
		serial:  serial,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *StorageAPIReader) Open() error {
	return nil
}

func (c *StorageAPIReader) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *StorageAPIReader) GetInfo() (*StorageInfo, error) {
	raw, err := c.lastData(context.Background())
	if err != nil {
		return nil, err
	}
	info := &StorageInfo{
		Manufacturer: Manufacturer,
		Model:        c.model,
		Serial:       c.serial,
	}
	if v := parseString(raw["fwVersion"]); v != "" {
		info.Version = v
	}
	if v := parseString(raw["serialNum"]); v != "" {
		info.Serial = v
	}
	return info, nil
}

func (c *StorageAPIReader) ReadTelemetry() (Telemetry, error) {
	raw, err := c.lastData(context.Background())
	if err != nil {
		return nil, err
	}
	telemetry := make(Telemetry, len(raw))
	for key, value := range raw {
		if f, ok := parseFloat(value); ok {
			telemetry[key] = f
		}
	}
	return telemetry, nil
}

func (c *StorageAPIReader) lastData(ctx context.Context) (map[string]any, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, storageLastData, map[string]string{"storage_sn": c.serial}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *StorageAPIReader) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	endpoint := c.baseURL + apiPrefix + strings.TrimPrefix(path, "/")
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if params != nil {
		query := reqURL.Query()
		for key, value := range params {
			query.Set(key, value)
		}
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("growatt http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var wrapper struct {
		ErrorCode int             `json:"error_code"`
		ErrorMsg  string          `json:"error_msg"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if wrapper.ErrorCode != 0 {
		return APIError{Code: wrapper.ErrorCode, Msg: wrapper.ErrorMsg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func parseFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case string:
		if typed == "" {
			return 0, false
		}
		if parsed, err := strconv.ParseFloat(typed, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func parseString(value any) string {
	if typed, ok := value.(string); ok {
		return strings.TrimSpace(typed)
	}
	return ""
}
