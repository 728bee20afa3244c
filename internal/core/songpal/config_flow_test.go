package songpal

import (
	"context"
	"errors"
	"testing"

	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/port"
	songpalapi "github.com/berfenger/hassbridge/pkg/songpal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testEndpoint = "http://192.168.1.20:10000/sony"

type fakeDevice struct {
	endpoint  string
	model     string
	err       error
	infoCalls *int
}

func (d fakeDevice) GetSupportedMethods(context.Context) ([]songpalapi.Service, error) {
	if d.err != nil {
		return nil, d.err
	}
	return []songpalapi.Service{{Service: "system"}}, nil
}

func (d fakeDevice) GetInterfaceInformation(context.Context) (*songpalapi.InterfaceInfo, error) {
	if d.infoCalls != nil {
		*d.infoCalls++
	}
	return &songpalapi.InterfaceInfo{ModelName: d.model, ProductCategory: "homeTheaterSystem"}, nil
}

type fakeEntries []flow.Entry

func (s fakeEntries) Entries(domain string) []flow.Entry {
	var out []flow.Entry
	for _, e := range s {
		if e.Domain == domain {
			out = append(out, e)
		}
	}
	return out
}

func (s fakeEntries) Get(id string) (flow.Entry, bool) {
	for _, e := range s {
		if e.EntryID == id {
			return e, true
		}
	}
	return flow.Entry{}, false
}

func deviceFactory(dev fakeDevice, seen *string) port.SongpalDeviceFactory {
	return func(endpoint string) port.SongpalDevice {
		if seen != nil {
			*seen = endpoint
		}
		dev.endpoint = endpoint
		return dev
	}
}

func newTestFlow(source string, dev fakeDevice, entries flow.EntryReader, seen *string) *ConfigFlow {
	f := NewConfigFlow(deviceFactory(dev, seen), zap.NewNop())
	f.Base().Init(DOMAIN, "flow-1", flow.Context{Source: source}, entries)
	return f
}

func ssdpInfo(serviceTypes any) flow.SsdpServiceInfo {
	return flow.SsdpServiceInfo{
		SsdpLocation: "http://192.168.1.20:52323/dmr.xml",
		SsdpST:       "urn:schemas-sony-com:service:ScalarWebAPI:1",
		UPnP: map[string]any{
			flow.ATTR_UPNP_UDN:           "uuid:1234",
			flow.ATTR_UPNP_FRIENDLY_NAME: "Living Room Bar",
			upnpDeviceInfo: map[string]any{
				upnpBaseURL: testEndpoint,
				upnpServiceList: map[string]any{
					upnpServiceType: serviceTypes,
				},
			},
		},
	}
}

func TestUserStepShowsForm(t *testing.T) {
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{}, fakeEntries{}, nil)

	res, err := f.Start(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal(t, "user", res.StepID)
	require.Len(t, res.Schema.Fields, 1)
	assert.Equal(t, CONF_ENDPOINT, res.Schema.Fields[0].Name)
	assert.True(t, res.Schema.Fields[0].Required)
}

func TestUserStepUsesModelNameWithoutName(t *testing.T) {
	assert := assert.New(t)

	var seen string
	calls := 0
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{model: "HT-XT3", infoCalls: &calls}, fakeEntries{}, &seen)

	res, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: "192.168.1.20"})
	require.NoError(t, err)
	assert.Equal(flow.RESULT_TYPE_CREATE_ENTRY, res.Type)
	assert.Equal("HT-XT3", res.Title)
	assert.Equal("HT-XT3", res.Data[CONF_NAME])
	assert.Equal(testEndpoint, res.Data[CONF_ENDPOINT])
	assert.Equal(testEndpoint, seen, "bare host probed on the normalized endpoint")
	assert.Equal(1, calls)
	assert.Equal(testEndpoint, f.Base().UniqueID())
}

func TestImportKeepsGivenName(t *testing.T) {
	calls := 0
	f := newTestFlow(flow.SOURCE_IMPORT, fakeDevice{model: "HT-XT3", infoCalls: &calls}, fakeEntries{}, nil)

	res, err := f.Start(context.Background(), map[string]any{CONF_NAME: "Bar", CONF_ENDPOINT: testEndpoint}, nil)
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_CREATE_ENTRY, res.Type)
	assert.Equal(t, "Bar", res.Title)
	assert.Equal(t, 0, calls)
}

func TestUserStepAlreadyConfigured(t *testing.T) {
	entries := fakeEntries{{
		EntryID: "e1",
		Domain:  DOMAIN,
		Data:    map[string]any{CONF_NAME: "Bar", CONF_ENDPOINT: testEndpoint},
	}}
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{model: "HT-XT3"}, entries, nil)

	res, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: testEndpoint})
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_ABORT, res.Type)
	assert.Equal(t, flow.REASON_ALREADY_CONFIGURED, res.Reason)
}

func TestUserStepAlreadyConfiguredByUniqueID(t *testing.T) {
	entries := fakeEntries{{EntryID: "e1", Domain: DOMAIN, UniqueID: testEndpoint, Data: map[string]any{}}}
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{model: "HT-XT3"}, entries, nil)

	res, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: testEndpoint})
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_ALREADY_CONFIGURED, res.Reason)
}

func TestUserStepConnectionFailed(t *testing.T) {
	assert := assert.New(t)

	devErr := &songpalapi.Error{Method: "getSupportedApiInfo", Err: errors.New("connection refused")}
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{err: devErr}, fakeEntries{}, nil)

	res, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: testEndpoint})
	require.NoError(t, err)
	assert.Equal(flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal("user", res.StepID)
	assert.Equal("cannot_connect", res.Errors["base"])
	assert.Equal("Connection failed: "+devErr.Error(), res.Errors[CONF_ENDPOINT])
}

func TestUserStepInvalidEndpoint(t *testing.T) {
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{}, fakeEntries{}, nil)

	res, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: "http://"})
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal(t, "cannot_connect", res.Errors["base"])
}

func TestImportConnectionFailedAborts(t *testing.T) {
	devErr := &songpalapi.Error{Method: "getSupportedApiInfo", Code: ERROR_REQUEST_RETRY, Message: "busy"}
	f := newTestFlow(flow.SOURCE_IMPORT, fakeDevice{err: devErr}, fakeEntries{}, nil)

	res, err := f.Start(context.Background(), map[string]any{CONF_ENDPOINT: testEndpoint}, nil)
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_ABORT, res.Type)
	assert.Equal(t, flow.REASON_CANNOT_CONNECT, res.Reason)
}

func TestUnexpectedErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{err: boom}, fakeEntries{}, nil)

	_, err := f.Configure(context.Background(), "user", map[string]any{CONF_ENDPOINT: testEndpoint})
	assert.ErrorIs(t, err, boom)
}

func TestInitWithoutInputNotSupported(t *testing.T) {
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{}, fakeEntries{}, nil)

	res, err := f.Configure(context.Background(), "init", nil)
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_NOT_SUPPORTED, res.Reason)
}

func TestSsdpVideoScreenAborts(t *testing.T) {
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{}, fakeEntries{}, nil)
	info := ssdpInfo([]any{"guide", "system", "videoScreen"})

	res, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_ABORT, res.Type)
	assert.Equal(t, REASON_NOT_SONGPAL_DEVICE, res.Reason)
}

func TestSsdpConfirmAndCreate(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{model: "HT-XT3", infoCalls: &calls}, fakeEntries{}, nil)
	info := ssdpInfo([]any{"guide", "system", "audio"})

	res, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	assert.Equal(flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal("init", res.StepID)
	assert.Equal(map[string]string{CONF_NAME: "Living Room Bar", CONF_HOST: "192.168.1.20"}, res.DescriptionPlaceholders)
	assert.Equal(map[string]string{CONF_NAME: "Living Room Bar", CONF_HOST: "192.168.1.20"}, f.Base().Context().TitlePlaceholders)
	assert.Equal("uuid:1234", f.Base().UniqueID())

	res, err = f.Configure(context.Background(), "init", map[string]any{})
	require.NoError(t, err)
	assert.Equal(flow.RESULT_TYPE_CREATE_ENTRY, res.Type)
	assert.Equal("Living Room Bar", res.Title)
	assert.Equal(testEndpoint, res.Data[CONF_ENDPOINT])
	assert.Equal(0, calls, "discovered name wins over the model name")
	assert.Equal(testEndpoint, f.Base().UniqueID())
}

func TestSsdpAlreadyConfiguredUDN(t *testing.T) {
	entries := fakeEntries{{EntryID: "e1", Domain: DOMAIN, UniqueID: "uuid:1234", Data: map[string]any{}}}
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{}, entries, nil)
	info := ssdpInfo("audio")

	res, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_ALREADY_CONFIGURED, res.Reason)
}

func TestSsdpAlreadyConfiguredEndpoint(t *testing.T) {
	entries := fakeEntries{{EntryID: "e1", Domain: DOMAIN, Data: map[string]any{CONF_ENDPOINT: testEndpoint}}}
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{}, entries, nil)
	info := ssdpInfo("audio")

	res, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_ALREADY_CONFIGURED, res.Reason)
}

func TestSsdpAlreadyInProgress(t *testing.T) {
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{}, fakeEntries{}, nil)
	f.Base().SetPeerUniqueIDs([]string{"uuid:1234"})
	info := ssdpInfo("audio")

	res, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_ALREADY_IN_PROGRESS, res.Reason)
}

func TestSsdpConnectionFailedAborts(t *testing.T) {
	devErr := &songpalapi.Error{Method: "getSupportedApiInfo", Message: "timeout"}
	f := newTestFlow(flow.SOURCE_SSDP, fakeDevice{err: devErr}, fakeEntries{}, nil)
	info := ssdpInfo("audio")

	_, err := f.Start(context.Background(), nil, &info)
	require.NoError(t, err)
	res, err := f.Configure(context.Background(), "init", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, flow.REASON_CANNOT_CONNECT, res.Reason)
}

func TestUnknownStep(t *testing.T) {
	f := newTestFlow(flow.SOURCE_USER, fakeDevice{}, fakeEntries{}, nil)
	_, err := f.Configure(context.Background(), "reauth", nil)
	assert.ErrorIs(t, err, flow.ErrUnknownStep)
}
