package songpal

import (
	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/port"
	songpalapi "github.com/berfenger/hassbridge/pkg/songpal"

	"go.uber.org/zap"
)

type Handler struct {
	newDevice port.SongpalDeviceFactory
	scripts   port.ScriptCatalog
	logger    *zap.Logger
}

var _ flow.Handler = (*Handler)(nil)

func NewHandler(newDevice port.SongpalDeviceFactory, scripts port.ScriptCatalog, logger *zap.Logger) *Handler {
	if newDevice == nil {
		newDevice = NewDevice
	}
	return &Handler{
		newDevice: newDevice,
		scripts:   scripts,
		logger:    logger.With(zap.String("handler", DOMAIN)),
	}
}

func NewDevice(endpoint string) port.SongpalDevice {
	return songpalapi.NewDevice(endpoint)
}

func (h *Handler) Domain() string {
	return DOMAIN
}

func (h *Handler) NewConfigFlow() flow.ConfigFlow {
	return NewConfigFlow(h.newDevice, h.logger)
}

func (h *Handler) NewOptionsFlow(entry flow.Entry) flow.OptionsFlow {
	return NewOptionsFlow(entry, h.scripts)
}
