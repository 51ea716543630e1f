// videos.go contains the asset listing and annotation endpoints
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JAEarly/GardenEye/internal/detection"
)

// VideoOut is the listing representation of one asset.
type VideoOut struct {
	ID            uint      `json:"vid"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	Modified      time.Time `json:"modified"`
	Processed     bool      `json:"processed"`
	IsNight       bool      `json:"isNight"`
	WildlifeProp  float64   `json:"wildlifeProp"`
	MovementScore float64   `json:"movementScore"`
	Objects       []string  `json:"objects"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	StreamURL     string    `json:"streamUrl"`
}

// AnnotationOut is the API representation of one detection.
type AnnotationOut struct {
	FrameIdx   int     `json:"frameIdx"`
	Name       string  `json:"name"`
	ClassID    int     `json:"classId"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// ListVideos returns the flat list of cataloged assets with their
// aggregated object names, ordered by path for stable output. The
// filter_person query parameter hides person-only assets from the listing.
func (c *Controller) ListVideos(ctx echo.Context) error {
	filterPerson, _ := strconv.ParseBool(ctx.QueryParam("filter_person"))

	assets, err := c.Store.GetAllAssets()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list videos", http.StatusInternalServerError)
	}

	items := make([]VideoOut, 0, len(assets))
	for _, asset := range assets {
		objects, err := c.objectsForAsset(asset.ID, filterPerson)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to aggregate objects", http.StatusInternalServerError)
		}
		items = append(items, VideoOut{
			ID:            asset.ID,
			Name:          filepath.Base(asset.Path),
			Size:          asset.Size,
			Modified:      asset.Modified,
			Processed:     asset.Processed,
			IsNight:       asset.IsNight,
			WildlifeProp:  asset.WildlifeProp,
			MovementScore: asset.MovementScore,
			Objects:       objects,
			ThumbnailURL:  fmt.Sprintf("/api/v1/videos/%d/thumbnail", asset.ID),
			StreamURL:     fmt.Sprintf("/api/v1/videos/%d/stream", asset.ID),
		})
	}
	return ctx.JSON(http.StatusOK, items)
}

// objectsForAsset serves the aggregation through a short TTL cache; the
// listing recomputes it for every asset on every request otherwise.
func (c *Controller) objectsForAsset(assetID uint, filterPerson bool) ([]string, error) {
	key := fmt.Sprintf("objects:%d:%t", assetID, filterPerson)
	if cached, found := c.cache.Get(key); found {
		return cached.([]string), nil
	}
	objects, err := c.Store.ObjectsForAsset(assetID, filterPerson)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, objects)
	return objects, nil
}

// GetAnnotations returns the annotations for one asset, restricted to the
// target class allowlist regardless of what the pipeline stored.
func (c *Controller) GetAnnotations(ctx echo.Context) error {
	asset, err := c.lookupAsset(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Video not found", 0)
	}

	rows, err := c.Store.AnnotationsForAsset(asset.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load annotations", http.StatusInternalServerError)
	}

	annotations := make([]AnnotationOut, 0, len(rows))
	for _, row := range rows {
		if !detection.IsTargetClass(row.Name) {
			continue
		}
		annotations = append(annotations, AnnotationOut{
			FrameIdx:   row.FrameIdx,
			Name:       row.Name,
			ClassID:    row.ClassID,
			Confidence: row.Confidence,
			X1:         row.X1,
			Y1:         row.Y1,
			X2:         row.X2,
			Y2:         row.Y2,
		})
	}
	return ctx.JSON(http.StatusOK, annotations)
}
