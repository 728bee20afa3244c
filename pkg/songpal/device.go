package songpal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	ServiceGuide  = "guide"
	ServiceSystem = "system"

	defaultTimeout = 10 * time.Second
)

type Device struct {
	endpoint string
	http     *http.Client
	id       atomic.Int64
}

type Option func(*Device)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Device) {
		d.http = c
	}
}

func NewDevice(endpoint string, opts ...Option) *Device {
	d := &Device{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Endpoint() string {
	return d.endpoint
}

// GetSupportedMethods asks the guide service which services and API versions
// the device exposes. It doubles as the connectivity probe.
func (d *Device) GetSupportedMethods(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := d.call(ctx, ServiceGuide, "getSupportedApiInfo", []any{map[string]any{}}, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (d *Device) GetInterfaceInformation(ctx context.Context) (*InterfaceInfo, error) {
	var info InterfaceInfo
	if err := d.call(ctx, ServiceSystem, "getInterfaceInformation", []any{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type rpcRequest struct {
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
	Version string `json:"version"`
}

type rpcResponse struct {
	ID     int64             `json:"id"`
	Result []json.RawMessage `json:"result"`
	Error  []json.RawMessage `json:"error"`
}

func (d *Device) call(ctx context.Context, service, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		Method:  method,
		Params:  params,
		ID:      d.id.Add(1),
		Version: "1.0",
	})
	if err != nil {
		return &Error{Method: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", d.endpoint, service), bytes.NewReader(body))
	if err != nil {
		return &Error{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return &Error{Method: method, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Method: method, Err: fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &Error{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(rpcResp.Error) > 0 {
		return rpcError(method, rpcResp.Error)
	}
	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 {
		return &Error{Method: method, Message: "empty result"}
	}
	if err := json.Unmarshal(rpcResp.Result[0], out); err != nil {
		return &Error{Method: method, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

// rpcError decodes the [code, message] error tuple of the Sony API.
func rpcError(method string, raw []json.RawMessage) error {
	e := &Error{Method: method}
	_ = json.Unmarshal(raw[0], &e.Code)
	if len(raw) > 1 {
		_ = json.Unmarshal(raw[1], &e.Message)
	}
	if e.Code == 0 && e.Message == "" {
		e.Message = "unknown error"
	}
	return e
}
