package handlers

import (
	"vidfetch-go/models"
	"vidfetch-go/services"
	"vidfetch-go/utils"

	"github.com/gofiber/fiber/v2"
)

// HandleDownload handles POST /api/download
// @Summary Start a download
// @Description Start downloading the chosen format variant. A second request for the same variant while one is in flight is a no-op.
// @Tags download
// @Accept json
// @Produce json
// @Param request body models.DownloadRequest true "Source URL, title and chosen variant"
// @Success 202 {object} models.DownloadAccepted
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Router /api/download [post]
func HandleDownload(c *fiber.Ctx) error {
	var req models.DownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, utils.ErrInvalidRequest, "Invalid request body")
	}

	if utils.IsBlank(req.URL) {
		return utils.BadRequest(c, utils.ErrInvalidURL, "URL is required")
	}

	variant := req.Variant
	if variant.Type == "" {
		variant.Type = services.ClassifyType(&variant)
	}

	started := orchestrator.Initiate(variant, services.DownloadContext{
		SourceURL: req.URL,
		Title:     req.Title,
	})

	state := models.TaskInFlight
	if !started {
		state = orchestrator.State(variant.Key())
	}

	return c.Status(fiber.StatusAccepted).JSON(models.DownloadAccepted{
		Started: started,
		State:   state.String(),
	})
}
