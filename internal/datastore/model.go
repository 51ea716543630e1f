// model.go defines the persisted data model for the application
package datastore

import "time"

// MovementNotComputed is the sentinel stored in Asset.MovementScore until a
// movement score has been computed. WildlifeProp uses 0 as its sentinel,
// disambiguated by the Processed flag.
const MovementNotComputed = -1

// Asset represents one source video file and its derived attributes.
// Identity is path based: moved or renamed files become new assets, which
// is a deliberate scope boundary rather than an oversight.
type Asset struct {
	ID            uint      `gorm:"primaryKey"`
	Path          string    `gorm:"uniqueIndex;not null"` // filesystem location, the natural key
	Size          int64     // size in bytes
	Modified      time.Time // file modification time
	Processed     bool      `gorm:"default:false"` // detection pipeline has run to completion
	IsNight       bool      `gorm:"default:false"` // night-time (infrared/grayscale) recording
	WildlifeProp  float64   `gorm:"default:0"`     // proportion of frames with a wildlife detection
	MovementScore float64   `gorm:"default:-1"`    // mean frame-difference score, -1 until computed

	Annotations []Annotation `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// Annotation represents one detected object instance in one frame of one
// asset. Rows are bulk created by the pipeline and immutable thereafter;
// they are deleted only as a unit when an asset is reprocessed.
type Annotation struct {
	ID         uint    `gorm:"primaryKey"`
	AssetID    uint    `gorm:"not null;index:idx_annotations_asset_frame;index:idx_annotations_asset_name"`
	FrameIdx   int     `gorm:"index:idx_annotations_asset_frame"`
	Name       string  `gorm:"index:idx_annotations_asset_name"` // object class name, e.g. "dog"
	ClassID    int     // numeric class id
	Confidence float64 `gorm:"index"`
	X1         float64 // bounding box coordinates
	Y1         float64
	X2         float64
	Y2         float64
}
