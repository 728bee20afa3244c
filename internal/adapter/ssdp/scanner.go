package ssdp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/hassbridge/internal/core/flow"

	"github.com/huin/goupnp/httpu"
	gossdp "github.com/huin/goupnp/ssdp"
	"go.uber.org/zap"
)

const (
	ST_SCALAR_WEB_API = "urn:schemas-sony-com:service:ScalarWebAPI:1"

	DEFAULT_WAIT      = 2 * time.Second
	DEFAULT_NUM_SENDS = 2
)

// Scanner sends an M-SEARCH per Scan and resolves every answer into the
// device description it points to.
type Scanner struct {
	searchTarget string
	numSends     int
	// nil opens a fresh HTTPU socket per scan
	httpu      gossdp.HTTPUClientCtx
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Scanner)

func WithSearchTarget(st string) Option {
	return func(s *Scanner) {
		s.searchTarget = st
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Scanner) {
		s.httpClient = client
	}
}

// WithHTTPUClient replaces the HTTP-over-UDP client that sends searches.
func WithHTTPUClient(client gossdp.HTTPUClientCtx) Option {
	return func(s *Scanner) {
		s.httpu = client
	}
}

func NewScanner(logger *zap.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		searchTarget: ST_SCALAR_WEB_API,
		numSends:     DEFAULT_NUM_SENDS,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		logger:       logger.With(zap.String("component", "ssdp")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResponse struct {
	location string
	usn      string
	st       string
}

// Scan waits up to wait (bounded by ctx) for answers. Devices whose
// description cannot be fetched are skipped.
func (s *Scanner) Scan(ctx context.Context, wait time.Duration) ([]flow.SsdpServiceInfo, error) {
	if wait <= 0 {
		wait = DEFAULT_WAIT
	}
	responses, err := s.search(ctx, wait)
	if err != nil {
		return nil, err
	}

	var found []flow.SsdpServiceInfo
	for _, r := range responses {
		upnp, err := s.fetchDescription(ctx, r.location)
		if err != nil {
			s.logger.Warn("ssdp: could not fetch description", zap.String("location", r.location), zap.Error(err))
			continue
		}
		found = append(found, flow.SsdpServiceInfo{
			SsdpLocation: r.location,
			SsdpST:       r.st,
			SsdpUSN:      r.usn,
			UPnP:         upnp,
		})
	}
	s.logger.Debug("ssdp: scan done", zap.Int("responses", len(responses)), zap.Int("found", len(found)))
	return found, nil
}

func (s *Scanner) search(ctx context.Context, wait time.Duration) ([]searchResponse, error) {
	client := s.httpu
	if client == nil {
		c, err := httpu.NewHTTPUClient()
		if err != nil {
			return nil, fmt.Errorf("open ssdp socket: %w", err)
		}
		defer c.Close()
		client = c
	}

	// MX is announced in whole seconds and must be at least one
	if wait < time.Second {
		wait = time.Second
	}
	searchCtx, cancel := context.WithTimeout(ctx, wait+500*time.Millisecond)
	defer cancel()

	answers, err := gossdp.RawSearch(searchCtx, client, s.searchTarget, s.numSends)
	if err != nil {
		return nil, fmt.Errorf("ssdp search: %w", err)
	}

	seen := map[string]bool{}
	var responses []searchResponse
	for _, answer := range answers {
		loc, err := answer.Location()
		if err != nil {
			continue
		}
		r := searchResponse{
			location: loc.String(),
			usn:      answer.Header.Get("USN"),
			st:       answer.Header.Get("ST"),
		}
		key := r.usn
		if key == "" {
			key = r.location
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		responses = append(responses, r)
	}
	return responses, nil
}
