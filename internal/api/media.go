// media.go contains the thumbnail and range streaming endpoints
package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/errors"
)

const videoContentType = "video/mp4"

// lookupAsset resolves the :id path parameter to an asset.
func (c *Controller) lookupAsset(ctx echo.Context) (datastore.Asset, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return datastore.Asset{}, errors.Newf("invalid video id %q", ctx.Param("id")).
			Component("api").
			Category(errors.CategoryNotFound).
			Build()
	}
	return c.Store.GetAsset(uint(id))
}

// ServeThumbnail serves the thumbnail artifact for an asset.
func (c *Controller) ServeThumbnail(ctx echo.Context) error {
	asset, err := c.lookupAsset(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Video not found", 0)
	}

	thumbPath := c.Settings.Media.ThumbnailPath(asset.ID)
	info, err := os.Stat(thumbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return c.HandleError(ctx, err, "Thumbnail not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Error accessing thumbnail", http.StatusInternalServerError)
	}

	ctx.Response().Header().Set("Cache-Control", "public, max-age=86400")
	ctx.Response().Header().Set("ETag", fmt.Sprintf("%q", info.ModTime().UTC().Format("20060102150405")))
	return ctx.File(thumbPath)
}

// StreamVideo streams an asset's bytes with HTTP Range support, addressed
// by asset id.
func (c *Controller) StreamVideo(ctx echo.Context) error {
	asset, err := c.lookupAsset(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Video not found", 0)
	}
	return c.streamFile(ctx, asset.Path)
}

// StreamByPath streams a file addressed by a path relative to the media
// root. The path is canonicalized and rejected unless the resolved
// absolute path stays within the root, so `..` segments and absolute
// overrides cannot escape it.
func (c *Controller) StreamByPath(ctx echo.Context) error {
	requested := ctx.QueryParam("path")
	if requested == "" {
		return c.HandleError(ctx,
			errors.Newf("missing path parameter").Component("api").Category(errors.CategoryValidation).Build(),
			"Missing path parameter", 0)
	}

	resolved, err := c.resolveMediaPath(requested)
	if err != nil {
		return c.HandleError(ctx, err, "Path outside media root", 0)
	}
	return c.streamFile(ctx, resolved)
}

// resolveMediaPath canonicalizes a requested path against the media root
// and verifies the result is still inside it. Symlinks are resolved before
// the containment check so a link placed under the root cannot smuggle a
// target outside it.
func (c *Controller) resolveMediaPath(requested string) (string, error) {
	absRoot, err := filepath.Abs(c.Settings.Media.Root)
	if err != nil {
		return "", fmt.Errorf("resolving media root: %w", err)
	}

	// An absolute request must not override the root
	absTarget, err := filepath.Abs(filepath.Join(absRoot, requested))
	if err != nil {
		return "", fmt.Errorf("resolving requested path: %w", err)
	}

	root := absRoot
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		root = resolved
	}

	target := absTarget
	switch resolved, err := filepath.EvalSymlinks(absTarget); {
	case err == nil:
		target = resolved
	case os.IsNotExist(err):
		// Missing files become 404s at open time; check the lexical path
		// against the lexical root
		root = absRoot
	default:
		return "", fmt.Errorf("resolving requested path: %w", err)
	}

	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", errors.Newf("path %q escapes media root", requested).
			Component("api").
			Category(errors.CategoryForbidden).
			Build()
	}
	return target, nil
}

// streamFile serves the requested byte window of the file in bounded
// chunks. The file handle is scoped to the request and closed on every
// exit path; a client disconnect stops further reads promptly.
func (c *Controller) streamFile(ctx echo.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.metrics.StreamRequests.WithLabelValues(strconv.Itoa(http.StatusNotFound)).Inc()
			return c.HandleError(ctx, err, "File not found", http.StatusNotFound)
		}
		c.metrics.StreamRequests.WithLabelValues(strconv.Itoa(http.StatusInternalServerError)).Inc()
		return c.HandleError(ctx, err, "Error opening file", http.StatusInternalServerError)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.metrics.StreamRequests.WithLabelValues(strconv.Itoa(http.StatusInternalServerError)).Inc()
		return c.HandleError(ctx, err, "Error reading file", http.StatusInternalServerError)
	}
	fileSize := info.Size()

	header := ctx.Response().Header()
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", "private, max-age=3600")
	header.Set(echo.HeaderContentType, videoContentType)

	start, end := int64(0), fileSize-1
	status := http.StatusOK
	if rangeHeader := ctx.Request().Header.Get("Range"); rangeHeader != "" {
		start, end, err = ParseRange(rangeHeader, fileSize)
		if err != nil {
			c.metrics.StreamRequests.WithLabelValues(strconv.Itoa(http.StatusRequestedRangeNotSatisfiable)).Inc()
			c.logger.Warn("rejected range request", "range", rangeHeader, "size", fileSize)
			header.Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
			return ctx.NoContent(http.StatusRequestedRangeNotSatisfiable)
		}
		status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	}
	header.Set(echo.HeaderContentLength, strconv.FormatInt(end-start+1, 10))

	c.metrics.StreamRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	ctx.Response().WriteHeader(status)

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %d: %w", start, err)
	}

	reqCtx := ctx.Request().Context()
	buf := make([]byte, c.Settings.Media.ChunkSize)
	remaining := end - start + 1
	for remaining > 0 {
		// Client gone: stop reading and release the handle
		if reqCtx.Err() != nil {
			return nil
		}

		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := f.Read(buf[:n])
		if read > 0 {
			if _, werr := ctx.Response().Write(buf[:read]); werr != nil {
				return nil
			}
			ctx.Response().Flush()
			remaining -= int64(read)
			c.metrics.StreamBytesServed.Add(float64(read))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			c.logger.Error("read failed mid-stream", "path", path, "error", err)
			return nil
		}
	}
	return nil
}
