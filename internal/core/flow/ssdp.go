package flow

const (
	ATTR_UPNP_UDN           = "UDN"
	ATTR_UPNP_FRIENDLY_NAME = "friendlyName"
	ATTR_UPNP_MODEL_NAME    = "modelName"
	ATTR_UPNP_MANUFACTURER  = "manufacturer"
)

// SsdpServiceInfo is the payload of a discovered device. UPnP holds the
// decoded device description, nested elements as map[string]any.
type SsdpServiceInfo struct {
	SsdpLocation string         `json:"ssdp_location"`
	SsdpST       string         `json:"ssdp_st"`
	SsdpUSN      string         `json:"ssdp_usn"`
	UPnP         map[string]any `json:"upnp"`
}

// UPnPString returns the string at the given key path of UPnP.
func (i SsdpServiceInfo) UPnPString(path ...string) string {
	v := i.lookup(path...)
	s, _ := v.(string)
	return s
}

// UPnPStrings returns the value at path as a list. A single string element
// comes back as a one-element list.
func (i SsdpServiceInfo) UPnPStrings(path ...string) []string {
	switch v := i.lookup(path...).(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (i SsdpServiceInfo) lookup(path ...string) any {
	var cur any = i.UPnP
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}
