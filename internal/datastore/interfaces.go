// interfaces.go defines the interface for the database operations
package datastore

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the persistence operations used by the pipeline and the HTTP surface.
// Persistence is explicit: callers pass plain records and partial changes,
// nothing saves itself as a side effect of field assignment.
type Interface interface {
	Open() error
	Close() error

	// Asset store
	InsertAssets(assets []Asset) (int64, error)
	GetAsset(id uint) (Asset, error)
	GetAssetByPath(path string) (Asset, error)
	GetAllAssets() ([]Asset, error)
	GetUnprocessedAssets() ([]Asset, error)
	MarkProcessed(id uint, wildlifeProp float64) error
	SetNight(id uint, isNight bool) error
	SetMovementScore(id uint, score float64) error

	// Annotation store
	DeleteAnnotations(assetID uint) error
	SaveAnnotations(rows []Annotation, batchSize int) error
	AnnotationsForAsset(assetID uint) ([]Annotation, error)
	ObjectsForAsset(assetID uint, filterPersonOnly bool) ([]string, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store for the configured backend. SQLite is the only
// supported backend; conf.Validate rejects anything else up front.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{Settings: settings}
}

// InsertAssets inserts the given assets, silently ignoring conflicts on the
// unique path key, and returns the number of newly created rows. Existing
// rows are never modified, which keeps discovery idempotent.
func (ds *DataStore) InsertAssets(assets []Asset) (int64, error) {
	if len(assets) == 0 {
		return 0, nil
	}
	result := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&assets)
	if result.Error != nil {
		return 0, errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return result.RowsAffected, nil
}

// GetAsset retrieves an asset by its ID.
func (ds *DataStore) GetAsset(id uint) (Asset, error) {
	var asset Asset
	if err := ds.DB.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, errors.Newf("no asset with ID %d", id).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Asset{}, fmt.Errorf("getting asset with ID %d: %w", id, err)
	}
	return asset, nil
}

// GetAssetByPath retrieves an asset by its unique path.
func (ds *DataStore) GetAssetByPath(path string) (Asset, error) {
	var asset Asset
	if err := ds.DB.Where("path = ?", path).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, errors.Newf("no asset with path %q", path).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Asset{}, fmt.Errorf("getting asset with path %q: %w", path, err)
	}
	return asset, nil
}

// GetAllAssets retrieves all assets ordered by path for stable output.
func (ds *DataStore) GetAllAssets() ([]Asset, error) {
	var assets []Asset
	if err := ds.DB.Order("path asc").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("getting all assets: %w", err)
	}
	return assets, nil
}

// GetUnprocessedAssets retrieves the assets the pipeline still has to
// visit, ordered by path.
func (ds *DataStore) GetUnprocessedAssets() ([]Asset, error) {
	var assets []Asset
	if err := ds.DB.Where("processed = ?", false).Order("path asc").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("getting unprocessed assets: %w", err)
	}
	return assets, nil
}

// MarkProcessed flips the processed flag and persists the wildlife
// proportion. The update is guarded on processed = false so the transition
// happens exactly once and never reverts.
func (ds *DataStore) MarkProcessed(id uint, wildlifeProp float64) error {
	result := ds.DB.Model(&Asset{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{"processed": true, "wildlife_prop": wildlifeProp})
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("asset_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("asset %d already processed or unknown", id).
			Component("datastore").
			Category(errors.CategoryProcessing).
			Build()
	}
	return nil
}

// SetNight persists the night classification for an asset.
func (ds *DataStore) SetNight(id uint, isNight bool) error {
	if err := ds.DB.Model(&Asset{}).Where("id = ?", id).Update("is_night", isNight).Error; err != nil {
		return fmt.Errorf("updating night flag for asset %d: %w", id, err)
	}
	return nil
}

// SetMovementScore persists the movement score for an asset.
func (ds *DataStore) SetMovementScore(id uint, score float64) error {
	if err := ds.DB.Model(&Asset{}).Where("id = ?", id).Update("movement_score", score).Error; err != nil {
		return fmt.Errorf("updating movement score for asset %d: %w", id, err)
	}
	return nil
}

// DeleteAnnotations removes every annotation for the given asset. Used
// before reprocessing so a redone run never produces a duplicated union of
// two partial annotation sets.
func (ds *DataStore) DeleteAnnotations(assetID uint) error {
	if err := ds.DB.Where("asset_id = ?", assetID).Delete(&Annotation{}).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("asset_id", assetID).
			Build()
	}
	return nil
}

// SaveAnnotations writes all rows in one transaction, chunked internally
// for statement size limits. No reader observes a partial annotation set.
func (ds *DataStore) SaveAnnotations(rows []Annotation, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = 1
	}
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// AnnotationsForAsset retrieves the annotations for an asset ordered by
// frame index.
func (ds *DataStore) AnnotationsForAsset(assetID uint) ([]Annotation, error) {
	var rows []Annotation
	if err := ds.DB.Where("asset_id = ?", assetID).Order("frame_idx asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("getting annotations for asset %d: %w", assetID, err)
	}
	return rows, nil
}
