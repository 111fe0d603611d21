package registry

import (
	"errors"
	"fmt"

	"github.com/meigma/arh/registry/oras"
)

// mapOCIError translates low-level ORAS errors to registry sentinel errors.
func mapOCIError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidReference), errors.Is(err, ErrInvalidManifest):
		return err
	case errors.Is(err, oras.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, oras.ErrInvalidReference):
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	case errors.Is(err, oras.ErrManifestInvalid), errors.Is(err, oras.ErrManifestTooLarge):
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	default:
		return err
	}
}
