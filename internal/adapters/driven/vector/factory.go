// Package vector selects and constructs the vector index backend.
// The collection backend is preferred for its incremental persistence;
// when it cannot be opened the factory falls back, once, to the flat
// snapshot backend so retrieval stays available.
package vector

import (
	"errors"
	"fmt"

	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/vector/collection"
	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/vector/flat"
	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// Backend selection values accepted by Open.
const (
	BackendAuto       = "auto"
	BackendCollection = collection.BackendName
	BackendFlat       = flat.BackendName
)

// Open constructs the vector index for the given data directory.
// With BackendAuto the collection backend is probed first and the flat
// backend is the one-time fallback. Naming a backend explicitly makes
// its failure fatal with domain.ErrBackendCapability.
func Open(dataDir string, dimension int, backend string) (driven.VectorIndex, error) {
	switch backend {
	case BackendCollection:
		idx, err := collection.New(dataDir, dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: collection backend: %v", domain.ErrBackendCapability, err)
		}
		return idx, nil

	case BackendFlat:
		idx, err := flat.New(dataDir, dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: flat backend: %v", domain.ErrBackendCapability, err)
		}
		return idx, nil

	case BackendAuto, "":
		idx, err := collection.New(dataDir, dimension)
		if err == nil {
			logger.Debug("Vector index: collection backend at %s", dataDir)
			return idx, nil
		}
		// A dimension mismatch means the collection exists but was
		// built for a different embedding model. Falling back would
		// hide every indexed vector behind an empty flat index.
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, err
		}
		logger.Warn("Collection backend unavailable (%v), falling back to flat index", err)

		flatIdx, flatErr := flat.New(dataDir, dimension)
		if flatErr != nil {
			return nil, fmt.Errorf("%w: collection failed (%v), flat failed (%v)",
				domain.ErrBackendCapability, err, flatErr)
		}
		return flatIdx, nil

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrBackendCapability, backend)
	}
}
