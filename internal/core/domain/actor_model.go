package domain

import (
	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/pkg/growatt"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_TELEMETRY    = "telemetry"
	ACTOR_ID_MONITOR      = "monitor"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_FLOW_MANAGER = "flowmanager"
)

type GetStorageInfoRequest struct {
	ActorRequestMixIn
}

type GetStorageInfoResponse struct {
	ActorResponseMixIn
	Info *growatt.StorageInfo
}

type GetTelemetryRequest struct {
	ActorRequestMixIn
}

type GetTelemetryResponse struct {
	ActorResponseMixIn
	Telemetry growatt.Telemetry
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
	Buttons []GenericButton
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// Flows

type StartFlowRequest struct {
	ActorRequestMixIn
	Handler   string
	Source    string
	Input     map[string]any
	Discovery *flow.SsdpServiceInfo
}

type ConfigureFlowRequest struct {
	ActorRequestMixIn
	FlowID string
	Input  map[string]any
}

type GetFlowRequest struct {
	ActorRequestMixIn
	FlowID string
}

type AbortFlowRequest struct {
	ActorRequestMixIn
	FlowID string
}

type StartOptionsFlowRequest struct {
	ActorRequestMixIn
	EntryID string
}

type ConfigureOptionsFlowRequest struct {
	ActorRequestMixIn
	FlowID string
	Input  map[string]any
}

type FlowResponse struct {
	ActorResponseMixIn
	Result *flow.Result
}

// ListFlowsRequest lists the config flows in progress. An empty Handler
// lists all of them.
type ListFlowsRequest struct {
	ActorRequestMixIn
	Handler string
}

type ListFlowsResponse struct {
	ActorResponseMixIn
	Flows []flow.Progress
}

type ListEntriesRequest struct {
	ActorRequestMixIn
	Domain string
}

type ListEntriesResponse struct {
	ActorResponseMixIn
	Entries []flow.Entry
}

type RemoveEntryRequest struct {
	ActorRequestMixIn
	EntryID string
}

type RemoveEntryResponse struct {
	ActorResponseMixIn
}

// DiscoveryScanRequest asks for one SSDP scan; every device found starts an
// ssdp flow.
type DiscoveryScanRequest struct {
	ActorRequestMixIn
}

type DiscoveryScanResponse struct {
	ActorResponseMixIn
	Found int
}
