package songpal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/port"
	songpalapi "github.com/berfenger/hassbridge/pkg/songpal"

	"go.uber.org/zap"
)

func configSchema() *flow.Schema {
	return flow.NewSchema(flow.Field{Name: CONF_ENDPOINT, Type: flow.FIELD_TYPE_STRING, Required: true})
}

type ConfigFlow struct {
	base      flow.Base
	newDevice port.SongpalDeviceFactory
	logger    *zap.Logger

	// set by the ssdp step
	endpoint string
	host     string
	name     string
}

var _ flow.ConfigFlow = (*ConfigFlow)(nil)

func NewConfigFlow(newDevice port.SongpalDeviceFactory, logger *zap.Logger) *ConfigFlow {
	return &ConfigFlow{
		newDevice: newDevice,
		logger:    logger,
	}
}

func (f *ConfigFlow) Base() *flow.Base {
	return &f.base
}

func (f *ConfigFlow) Start(ctx context.Context, input map[string]any, discovery *flow.SsdpServiceInfo) (*flow.Result, error) {
	switch f.base.Source() {
	case flow.SOURCE_USER:
		return f.stepUser(ctx, input)
	case flow.SOURCE_IMPORT:
		return f.stepImport(ctx, input)
	case flow.SOURCE_SSDP:
		if discovery == nil {
			return nil, errors.New("songpal: ssdp flow without discovery info")
		}
		return f.stepSsdp(ctx, *discovery)
	}
	return nil, fmt.Errorf("%w: source %s", flow.ErrUnknownStep, f.base.Source())
}

func (f *ConfigFlow) Configure(ctx context.Context, stepID string, input map[string]any) (*flow.Result, error) {
	switch stepID {
	case "user":
		return f.stepUser(ctx, input)
	case "init":
		return f.stepInit(ctx, input)
	case "import":
		return f.stepImport(ctx, input)
	}
	return nil, fmt.Errorf("%w: %s", flow.ErrUnknownStep, stepID)
}

func (f *ConfigFlow) stepUser(ctx context.Context, input map[string]any) (*flow.Result, error) {
	if input != nil {
		return f.stepInit(ctx, input)
	}
	return f.base.ShowForm("user", configSchema(), nil, nil), nil
}

func (f *ConfigFlow) stepImport(ctx context.Context, input map[string]any) (*flow.Result, error) {
	return f.stepInit(ctx, input)
}

func (f *ConfigFlow) stepInit(ctx context.Context, input map[string]any) (*flow.Result, error) {
	if f.base.Source() == flow.SOURCE_SSDP {
		if r := f.base.AbortEntriesMatch(map[string]any{CONF_ENDPOINT: f.endpoint}); r != nil {
			return r, nil
		}
		if input == nil {
			return f.base.ShowForm("init", nil, nil, map[string]string{
				CONF_NAME: f.name,
				CONF_HOST: f.host,
			}), nil
		}
		if r := f.base.SetUniqueID(f.endpoint); r != nil {
			return r, nil
		}
		if r := f.base.AbortIfUniqueIDConfigured(); r != nil {
			return r, nil
		}
	}

	if input == nil {
		return f.base.Abort(flow.REASON_NOT_SUPPORTED), nil
	}

	name, _ := input[CONF_NAME].(string)
	endpoint := f.endpoint
	if endpoint == "" || f.host == "" {
		raw, _ := input[CONF_ENDPOINT].(string)
		parsed, err := ParseEndpoint(raw)
		if err != nil {
			if endpoint == "" {
				return f.connectionFailed(err), nil
			}
		} else {
			f.logger.Debug("songpal@init parsed endpoint", zap.String("endpoint", parsed.String()))
			if f.host == "" {
				f.host = parsed.Hostname()
			}
			if endpoint == "" {
				endpoint = parsed.String()
			}
		}
	}

	name, err := f.probe(ctx, endpoint, name)
	if err != nil {
		var devErr *songpalapi.Error
		if !errors.As(err, &devErr) {
			return nil, err
		}
		if devErr.Code == ERROR_REQUEST_RETRY {
			f.logger.Debug("songpal@init device asked to retry", zap.String("endpoint", endpoint))
		}
		return f.connectionFailed(err), nil
	}

	if r := f.base.AbortEntriesMatch(map[string]any{CONF_ENDPOINT: endpoint}); r != nil {
		return r, nil
	}
	if r := f.base.SetUniqueID(endpoint); r != nil {
		return r, nil
	}
	if r := f.base.AbortIfUniqueIDConfigured(); r != nil {
		return r, nil
	}

	return f.base.CreateEntry(name, map[string]any{
		CONF_NAME:     name,
		CONF_ENDPOINT: endpoint,
	}), nil
}

// probe checks the device answers and resolves the entry name: the given
// name, else the discovered one, else the model reported by the device.
func (f *ConfigFlow) probe(ctx context.Context, endpoint, name string) (string, error) {
	device := f.newDevice(endpoint)
	if _, err := device.GetSupportedMethods(ctx); err != nil {
		return "", err
	}
	if name == "" {
		name = f.name
	}
	if name == "" {
		info, err := device.GetInterfaceInformation(ctx)
		if err != nil {
			return "", err
		}
		name = info.ModelName
	}
	return name, nil
}

func (f *ConfigFlow) connectionFailed(err error) *flow.Result {
	f.logger.Debug("songpal@init connection failed", zap.Error(err))
	source := f.base.Source()
	if source == flow.SOURCE_IMPORT || source == flow.SOURCE_SSDP {
		return f.base.Abort(flow.REASON_CANNOT_CONNECT)
	}
	return f.base.ShowForm("user", configSchema(), map[string]string{
		CONF_ENDPOINT: fmt.Sprintf("Connection failed: %s", err),
		"base":        flow.REASON_CANNOT_CONNECT,
	}, nil)
}

func (f *ConfigFlow) stepSsdp(ctx context.Context, info flow.SsdpServiceInfo) (*flow.Result, error) {
	if r := f.base.SetUniqueID(info.UPnPString(flow.ATTR_UPNP_UDN)); r != nil {
		return r, nil
	}
	if r := f.base.AbortIfUniqueIDConfigured(); r != nil {
		return r, nil
	}

	f.logger.Debug("songpal@ssdp discovered", zap.String("location", info.SsdpLocation), zap.String("usn", info.SsdpUSN))

	f.name = info.UPnPString(flow.ATTR_UPNP_FRIENDLY_NAME)
	if u, err := url.Parse(info.SsdpLocation); err == nil {
		f.host = u.Hostname()
	}
	f.endpoint = info.UPnPString(upnpDeviceInfo, upnpBaseURL)
	serviceTypes := info.UPnPStrings(upnpDeviceInfo, upnpServiceList, upnpServiceType)

	// Bravia TVs announce the same service
	if slices.Contains(serviceTypes, serviceTypeVideo) {
		return f.base.Abort(REASON_NOT_SONGPAL_DEVICE), nil
	}

	f.base.Context().TitlePlaceholders = map[string]string{
		CONF_NAME: f.name,
		CONF_HOST: f.host,
	}

	return f.stepInit(ctx, nil)
}
