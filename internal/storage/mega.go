package storage

import (
	"context"

	"reelpost/internal/services"
)

// MegaBackend is a placeholder; selecting it fails every item with
// services.ErrNotImplemented.
type MegaBackend struct{}

func (MegaBackend) Name() string { return "mega" }

func (MegaBackend) Store(context.Context, string, string) (string, error) {
	return "", services.Wrap(services.ErrNotImplemented, "storage", "mega upload", "mega backend is not implemented", nil)
}
