package handlers

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"vidfetch-go/config"
	"vidfetch-go/models"
	"vidfetch-go/utils"

	"github.com/gofiber/fiber/v2"
)

// HandleFiles handles GET /files/:filename
// @Summary Serve a saved download
// @Description Serve a previously downloaded file as an attachment
// @Tags files
// @Produce octet-stream
// @Param filename path string true "Saved filename"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponse "Invalid filename"
// @Failure 404 {object} utils.ErrorResponse "File not found"
// @Router /files/{filename} [get]
func HandleFiles(c *fiber.Ctx) error {
	filename, err := url.PathUnescape(c.Params("filename"))
	if err != nil || !utils.ValidateFilename(filename) {
		return utils.BadRequest(c, utils.ErrInvalidFilename, "Invalid filename")
	}

	filePath := filepath.Join(config.DownloadDir, filename)

	info, err := os.Stat(filePath)
	if err != nil {
		return utils.NotFound(c, utils.ErrFileNotFound, "File not found")
	}

	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	contentType := utils.ContentTypeFromExt(ext)

	// RFC 5987 encoding for non-ASCII characters
	encodedFilename := url.PathEscape(filename)

	c.Set("Content-Type", contentType)
	c.Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, filename, encodedFilename))

	return c.SendFile(filePath)
}

// HandleDeleteFile handles DELETE /api/files/:filename
// @Summary Delete a saved download
// @Description Remove a previously downloaded file
// @Tags files
// @Produce json
// @Param filename path string true "Saved filename"
// @Success 200 {object} models.DeleteResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid filename"
// @Failure 404 {object} utils.ErrorResponse "File not found"
// @Router /api/files/{filename} [delete]
func HandleDeleteFile(c *fiber.Ctx) error {
	filename, err := url.PathUnescape(c.Params("filename"))
	if err != nil || !utils.ValidateFilename(filename) {
		return utils.BadRequest(c, utils.ErrInvalidFilename, "Invalid filename")
	}

	filePath := filepath.Join(config.DownloadDir, filename)

	if _, err := os.Stat(filePath); err != nil {
		return utils.NotFound(c, utils.ErrFileNotFound, "File not found")
	}

	if err := os.Remove(filePath); err != nil {
		return utils.InternalError(c, "Failed to delete file")
	}

	return c.JSON(models.DeleteResponse{Deleted: true})
}
