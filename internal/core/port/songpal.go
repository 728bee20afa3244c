package port

import (
	"context"

	"github.com/berfenger/hassbridge/pkg/songpal"
)

type SongpalDevice interface {
	GetSupportedMethods(ctx context.Context) ([]songpal.Service, error)
	GetInterfaceInformation(ctx context.Context) (*songpal.InterfaceInfo, error)
}

type SongpalDeviceFactory func(endpoint string) SongpalDevice

// ScriptCatalog lists the script entity ids a turn-on action may point to.
type ScriptCatalog interface {
	ScriptEntityIDs() []string
}
