package songpal

const (
	DOMAIN = "songpal"

	CONF_ENDPOINT  = "endpoint"
	CONF_ON_ACTION = "turn_on_action"
	CONF_WOL       = "wake_on_lan"
	CONF_NAME      = "name"
	CONF_HOST      = "host"

	ERROR_REQUEST_RETRY = 40000

	DEFAULT_PORT = "10000"
	DEFAULT_PATH = "sony"

	REASON_NOT_SONGPAL_DEVICE = "not_songpal_device"

	upnpDeviceInfo   = "X_ScalarWebAPI_DeviceInfo"
	upnpBaseURL      = "X_ScalarWebAPI_BaseURL"
	upnpServiceList  = "X_ScalarWebAPI_ServiceList"
	upnpServiceType  = "X_ScalarWebAPI_ServiceType"
	serviceTypeVideo = "videoScreen"
)
