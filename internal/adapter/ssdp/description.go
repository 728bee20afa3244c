package ssdp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/huin/goupnp"
)

type scalarWebAPIInfo struct {
	Version     string   `xml:"X_ScalarWebAPI_Version"`
	BaseURL     string   `xml:"X_ScalarWebAPI_BaseURL"`
	ServiceList []string `xml:"X_ScalarWebAPI_ServiceList>X_ScalarWebAPI_ServiceType"`
}

// scalarWebAPIDevice is a UPnP device plus the Sony vendor block, which
// goupnp.Device does not carry.
type scalarWebAPIDevice struct {
	goupnp.Device
	DeviceInfo *scalarWebAPIInfo `xml:"X_ScalarWebAPI_DeviceInfo"`
}

type deviceDescription struct {
	XMLName     xml.Name           `xml:"root"`
	SpecVersion goupnp.SpecVersion `xml:"specVersion"`
	Device      scalarWebAPIDevice `xml:"device"`
}

func (s *Scanner) fetchDescription(ctx context.Context, location string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("description status %d", resp.StatusCode)
	}
	return decodeDescription(resp.Body)
}

// decodeDescription flattens the UPnP device element into the nested map
// layout discovery flows read from.
func decodeDescription(r io.Reader) (map[string]any, error) {
	var desc deviceDescription
	decoder := xml.NewDecoder(r)
	decoder.DefaultSpace = goupnp.DeviceXMLNamespace
	decoder.CharsetReader = goupnp.CharsetReaderDefault
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	d := desc.Device
	upnp := map[string]any{
		"deviceType":   d.DeviceType,
		"friendlyName": d.FriendlyName,
		"manufacturer": d.Manufacturer,
		"modelName":    d.ModelName,
		"modelNumber":  d.ModelNumber,
		"serialNumber": d.SerialNumber,
		"UDN":          d.UDN,
	}
	if d.DeviceInfo != nil {
		upnp["X_ScalarWebAPI_DeviceInfo"] = map[string]any{
			"X_ScalarWebAPI_Version": d.DeviceInfo.Version,
			"X_ScalarWebAPI_BaseURL": d.DeviceInfo.BaseURL,
			"X_ScalarWebAPI_ServiceList": map[string]any{
				"X_ScalarWebAPI_ServiceType": d.DeviceInfo.ServiceList,
			},
		}
	}
	return upnp, nil
}
