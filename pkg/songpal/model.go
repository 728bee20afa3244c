package songpal

type Service struct {
	Service   string     `json:"service"`
	Protocols []string   `json:"protocols,omitempty"`
	APIs      []APIEntry `json:"apis,omitempty"`
}

type APIEntry struct {
	Name     string       `json:"name"`
	Versions []APIVersion `json:"versions,omitempty"`
}

type APIVersion struct {
	Version string `json:"version"`
}

type InterfaceInfo struct {
	ProductName      string `json:"productName"`
	ModelName        string `json:"modelName"`
	ProductCategory  string `json:"productCategory"`
	InterfaceVersion string `json:"interfaceVersion"`
	ServerName       string `json:"serverName"`
}
