package rest

import (
	"strconv"

	domainHealth "github.com/nexlify/healthwatch/domains/health"
	"github.com/nexlify/healthwatch/pkg/utils"
	"github.com/nexlify/healthwatch/validations"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service domainHealth.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service domainHealth.IHealthUsecase) Health {
	rest := Health{Service: service}

	group := app.Group("/workspaces/:workspaceId/integrations/health")
	group.Get("/", rest.GetAllHealth)
	group.Get("/summary", rest.GetSummary)
	group.Get("/:type", rest.GetHealth)
	group.Get("/:type/history", rest.GetHistory)
	group.Post("/:type/check", rest.ForceCheck)
	group.Post("/:type/retry", rest.RetryFailed)

	return rest
}

func (controller *Health) GetAllHealth(c *fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	err := validations.ValidateWorkspaceID(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	records, err := controller.Service.GetAllHealth(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch integration health",
		Results: records,
	})
}

func (controller *Health) GetSummary(c *fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	err := validations.ValidateWorkspaceID(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	summary, err := controller.Service.GetHealthSummary(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch health summary",
		Results: summary,
	})
}

func (controller *Health) GetHealth(c *fiber.Ctx) error {
	workspaceID, integrationType := controller.parseParams(c)

	record, err := controller.Service.GetHealth(c.UserContext(), workspaceID, integrationType)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch integration health",
		Results: record,
	})
}

func (controller *Health) GetHistory(c *fiber.Ctx) error {
	workspaceID, integrationType := controller.parseParams(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(400).JSON(utils.ResponseData{
				Status:  400,
				Code:    "BAD_REQUEST",
				Message: "limit must be an integer",
			})
		}
		limit = parsed
	}

	entries, err := controller.Service.GetHealthHistory(c.UserContext(), workspaceID, integrationType, limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch health history",
		Results: entries,
	})
}

func (controller *Health) ForceCheck(c *fiber.Ctx) error {
	workspaceID, integrationType := controller.parseParams(c)

	record, err := controller.Service.ForceHealthCheck(c.UserContext(), workspaceID, integrationType)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health check completed",
		Results: record,
	})
}

func (controller *Health) RetryFailed(c *fiber.Ctx) error {
	workspaceID, integrationType := controller.parseParams(c)

	result, err := controller.Service.RetryFailed(c.UserContext(), workspaceID, integrationType)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Retry completed",
		Results: result,
	})
}

func (controller *Health) parseParams(c *fiber.Ctx) (string, domainHealth.IntegrationType) {
	workspaceID := c.Params("workspaceId")
	err := validations.ValidateWorkspaceID(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	integrationType, err := validations.ValidateIntegrationType(c.UserContext(), c.Params("type"))
	utils.PanicIfNeeded(err)

	return workspaceID, integrationType
}
