// analytics.go implements the aggregation queries over the annotation store
package datastore

import (
	"fmt"

	"github.com/JAEarly/GardenEye/internal/detection"
)

// ObjectsForAsset returns the distinct detected object names for an asset,
// restricted to the target class allowlist and ordered by descending
// occurrence count. Ties break alphabetically so the ordering never depends
// on row insertion order. With filterPersonOnly set, an asset whose only
// detected class is "person" yields an empty slice, which suppresses
// person-only assets from a wildlife-focused listing; any other
// composition is returned unmodified.
//
// The allowlist is applied at read time regardless of what the pipeline
// stored, so both filtered and unfiltered write policies aggregate the
// same way.
func (ds *DataStore) ObjectsForAsset(assetID uint, filterPersonOnly bool) ([]string, error) {
	var results []struct {
		Name  string
		Count int64
	}

	err := ds.DB.Model(&Annotation{}).
		Select("name, COUNT(*) as count").
		Where("asset_id = ? AND name IN ?", assetID, detection.TargetClassNames()).
		Group("name").
		Order("count DESC, name ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating objects for asset %d: %w", assetID, err)
	}

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}

	if filterPersonOnly && len(names) == 1 && names[0] == "person" {
		return []string{}, nil
	}
	return names, nil
}
