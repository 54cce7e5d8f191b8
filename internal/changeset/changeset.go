// Package changeset computes which catalog entries have not yet been
// persisted. It is a pure filter over an existence predicate so it can be
// tested without a live store.
package changeset

import (
	"fmt"

	"github.com/simplyzetax/habanero/internal/models"
)

// Resolve returns the subset of entries for which exists reports false,
// preserving the input order. Predicate errors abort the resolution.
func Resolve(entries []models.CatalogEntry, exists func(hash256 string) (bool, error)) ([]models.CatalogEntry, error) {
	var fresh []models.CatalogEntry
	for _, e := range entries {
		found, err := exists(e.Hash256)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", e.UniqueFilename, err)
		}
		if !found {
			fresh = append(fresh, e)
		}
	}
	return fresh, nil
}
