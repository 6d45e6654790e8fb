package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleTasks handles GET /api/tasks
// @Summary List download tasks
// @Description Return the latest observable snapshot of every download task seen this session
// @Tags tasks
// @Produce json
// @Success 200 {array} models.TaskSnapshot
// @Router /api/tasks [get]
func HandleTasks(c *fiber.Ctx) error {
	return c.JSON(board.snapshots())
}
