package ssdp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/berfenger/hassbridge/internal/core/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>Living room receiver</friendlyName>
    <manufacturer>Sony Corporation</manufacturer>
    <modelName>STR-DN1080</modelName>
    <UDN>uuid:e6c17b36-5b76-4e3d-a1e8-000000000001</UDN>
    <av:X_ScalarWebAPI_DeviceInfo xmlns:av="urn:schemas-sony-com:av">
      <av:X_ScalarWebAPI_Version>1.0</av:X_ScalarWebAPI_Version>
      <av:X_ScalarWebAPI_BaseURL>http://192.168.1.20:10000/sony</av:X_ScalarWebAPI_BaseURL>
      <av:X_ScalarWebAPI_ServiceList>
        <av:X_ScalarWebAPI_ServiceType>guide</av:X_ScalarWebAPI_ServiceType>
        <av:X_ScalarWebAPI_ServiceType>system</av:X_ScalarWebAPI_ServiceType>
        <av:X_ScalarWebAPI_ServiceType>audio</av:X_ScalarWebAPI_ServiceType>
      </av:X_ScalarWebAPI_ServiceList>
    </av:X_ScalarWebAPI_DeviceInfo>
  </device>
</root>`

func TestDecodeDescription(t *testing.T) {
	upnp, err := decodeDescription(strings.NewReader(testDescription))
	require.NoError(t, err)

	info := flow.SsdpServiceInfo{UPnP: upnp}
	assert.Equal(t, "Living room receiver", info.UPnPString(flow.ATTR_UPNP_FRIENDLY_NAME))
	assert.Equal(t, "uuid:e6c17b36-5b76-4e3d-a1e8-000000000001", info.UPnPString(flow.ATTR_UPNP_UDN))
	assert.Equal(t, "STR-DN1080", info.UPnPString(flow.ATTR_UPNP_MODEL_NAME))
	assert.Equal(t, "http://192.168.1.20:10000/sony", info.UPnPString("X_ScalarWebAPI_DeviceInfo", "X_ScalarWebAPI_BaseURL"))
	assert.Equal(t, []string{"guide", "system", "audio"},
		info.UPnPStrings("X_ScalarWebAPI_DeviceInfo", "X_ScalarWebAPI_ServiceList", "X_ScalarWebAPI_ServiceType"))
}

func TestDecodeDescriptionWithoutDeviceInfo(t *testing.T) {
	upnp, err := decodeDescription(strings.NewReader(`<root><device><friendlyName>TV</friendlyName></device></root>`))
	require.NoError(t, err)
	assert.Equal(t, "TV", upnp["friendlyName"])
	assert.NotContains(t, upnp, "X_ScalarWebAPI_DeviceInfo")

	_, err = decodeDescription(strings.NewReader("not xml"))
	assert.Error(t, err)
}

// fakeHTTPU answers every search with canned responses.
type fakeHTTPU struct {
	answers  []*http.Response
	requests []*http.Request
	err      error
}

func (f *fakeHTTPU) DoWithContext(req *http.Request, numSends int) ([]*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.answers, nil
}

func answer(location, st, usn string) *http.Response {
	header := http.Header{}
	header.Set("Location", location)
	header.Set("ST", st)
	header.Set("USN", usn)
	return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Header: header}
}

func TestScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dmr.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(testDescription))
	}))
	defer srv.Close()

	client := &fakeHTTPU{answers: []*http.Response{
		answer(srv.URL+"/dmr.xml", ST_SCALAR_WEB_API, "uuid:1::"+ST_SCALAR_WEB_API),
		// same device from another interface
		answer(srv.URL+"/dmr.xml?if=2", ST_SCALAR_WEB_API, "uuid:1::"+ST_SCALAR_WEB_API),
		// other service type
		answer(srv.URL+"/other.xml", "upnp:rootdevice", "uuid:2::upnp:rootdevice"),
		// broken description
		answer(srv.URL+"/missing.xml", ST_SCALAR_WEB_API, "uuid:3::"+ST_SCALAR_WEB_API),
	}}

	scanner := NewScanner(zap.NewNop(), WithHTTPUClient(client), WithHTTPClient(srv.Client()))
	found, err := scanner.Scan(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, found, 1)

	assert.Equal(t, srv.URL+"/dmr.xml", found[0].SsdpLocation)
	assert.Equal(t, ST_SCALAR_WEB_API, found[0].SsdpST)
	assert.Equal(t, "uuid:1::"+ST_SCALAR_WEB_API, found[0].SsdpUSN)
	assert.Equal(t, "Living room receiver", found[0].UPnPString(flow.ATTR_UPNP_FRIENDLY_NAME))

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "M-SEARCH", req.Method)
	assert.Equal(t, []string{ST_SCALAR_WEB_API}, req.Header["ST"])
	assert.Equal(t, []string{`"ssdp:discover"`}, req.Header["MAN"])
	assert.NotEmpty(t, req.Header["MX"])
}

func TestScanSearchError(t *testing.T) {
	scanner := NewScanner(zap.NewNop(), WithHTTPUClient(&fakeHTTPU{err: errors.New("network down")}))
	found, err := scanner.Scan(context.Background(), time.Second)
	assert.ErrorContains(t, err, "network down")
	assert.Empty(t, found)
}
