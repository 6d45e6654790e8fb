package handlers

import (
	"errors"
	"log"

	"vidfetch-go/models"
	"vidfetch-go/services"
	"vidfetch-go/utils"

	"github.com/gofiber/fiber/v2"
)

// HandleInfo handles POST /api/info
// @Summary Fetch video metadata
// @Description Fetch metadata for a video URL and return its normalized format partitions
// @Tags info
// @Accept json
// @Produce json
// @Param request body models.InfoRequest true "Video URL"
// @Success 200 {object} models.InfoResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid URL"
// @Failure 502 {object} utils.ErrorResponse "Fetch failed"
// @Failure 504 {object} utils.ErrorResponse "Fetch timed out"
// @Router /api/info [post]
func HandleInfo(c *fiber.Ctx) error {
	var req models.InfoRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, utils.ErrInvalidRequest, "Invalid request body")
	}

	if utils.IsBlank(req.URL) {
		return utils.BadRequest(c, utils.ErrInvalidURL, "URL is required")
	}

	meta, err := session.Refresh(req.URL)
	if err != nil {
		log.Printf("[Info] Fetch error: %v\n", err)

		var fe *services.FetchError
		if errors.As(err, &fe) && fe.Kind == services.FetchTimeout {
			return utils.GatewayTimeout(c, utils.ErrFetchFailed, err.Error())
		}
		return utils.BadGateway(c, utils.ErrFetchFailed, err.Error())
	}

	video, audio := services.Normalize(meta.Formats)

	return c.JSON(models.InfoResponse{
		Title:        meta.Title,
		Thumbnail:    meta.Thumbnail,
		VideoFormats: video,
		AudioFormats: audio,
	})
}
