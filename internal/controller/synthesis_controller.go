package controller

import (
	"spectra-chat/internal/dto"
	"spectra-chat/internal/pkg/serverutils"
	"spectra-chat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISynthesisController interface {
	RegisterRoutes(r fiber.Router)
	Synthesize(ctx *fiber.Ctx) error
}

type synthesisController struct {
	synthesisService service.ISynthesisService
}

func NewSynthesisController(synthesisService service.ISynthesisService) ISynthesisController {
	return &synthesisController{
		synthesisService: synthesisService,
	}
}

func (c *synthesisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/synthesis/v1")
	h.Post("", c.Synthesize)
}

func (c *synthesisController) Synthesize(ctx *fiber.Ctx) error {
	var req dto.SynthesizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.synthesisService.Synthesize(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success synthesize answer", res))
}
