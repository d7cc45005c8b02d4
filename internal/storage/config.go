package storage

import (
	"github.com/spf13/afero"

	"reelpost/internal/config"
	"reelpost/internal/telegram"
)

// FromConfig builds the registry for storage.backends with storage.active
// selected.
func FromConfig(cfg *config.Config, tg *telegram.Client) (*Registry, error) {
	backends := make([]Backend, 0, len(cfg.Storage.Backends))
	for _, name := range cfg.Storage.Backends {
		switch name {
		case "telegram":
			backends = append(backends, NewTelegramBackend(tg, cfg.Telegram.DumpChannelID))
		case "local":
			backends = append(backends, NewLocalBackend(afero.NewOsFs(), cfg.Storage.Local.Dir, cfg.Storage.Local.PublicBaseURL))
		case "mega":
			backends = append(backends, MegaBackend{})
		}
	}
	return NewRegistry(cfg.Storage.Active, backends...)
}
