package profile

import (
	"github.com/gofiber/fiber/v2"

	devconnect "github.com/goliatone/go-devconnect"
)

type HTTPController struct {
	service *Service
	gate    fiber.Handler
	logger  devconnect.Logger
}

func NewHTTPController(service *Service, gate fiber.Handler, logger devconnect.Logger) *HTTPController {
	if service == nil {
		panic("Missing profile service in profile controller...")
	}
	if gate == nil {
		panic("Missing auth gate in profile controller...")
	}
	if logger == nil {
		logger = devconnect.NopLogger{}
	}
	return &HTTPController{service: service, gate: gate, logger: logger}
}

// RegisterRoutes mounts the profile routes under /api/profile
func RegisterRoutes(app fiber.Router, h *HTTPController) {
	r := app.Group("/api/profile")

	r.Get("/me", h.gate, h.Me).Name("profile.me")
	r.Get("/", h.List).Name("profile.list")
	r.Get("/user/:user_id", h.ByAccount).Name("profile.user")
	r.Post("/", h.gate, h.Upsert).Name("profile.upsert")
	r.Delete("/", h.gate, h.Delete).Name("profile.delete")

	r.Put("/experience", h.gate, h.AddExperience).Name("profile.experience.add")
	r.Delete("/experience/:exp_id", h.gate, h.RemoveExperience).Name("profile.experience.remove")
	r.Put("/education", h.gate, h.AddEducation).Name("profile.education.add")
	r.Delete("/education/:edu_id", h.gate, h.RemoveEducation).Name("profile.education.remove")
}

func (h *HTTPController) Me(c *fiber.Ctx) error {
	p, err := h.service.Mine(c.UserContext())
	return h.respond(c, p, err)
}

func (h *HTTPController) List(c *fiber.Ctx) error {
	profiles, err := h.service.List(c.UserContext())
	if err != nil {
		return devconnect.WriteError(c, err, h.logger)
	}
	return c.JSON(profiles)
}

func (h *HTTPController) ByAccount(c *fiber.Ctx) error {
	p, err := h.service.ByAccount(c.UserContext(), c.Params("user_id"))
	return h.respond(c, p, err)
}

func (h *HTTPController) Upsert(c *fiber.Ctx) error {
	req := UpsertRequest{}
	if err := c.BodyParser(&req); err != nil {
		return h.badPayload(c, err)
	}
	p, err := h.service.Upsert(c.UserContext(), req)
	return h.respond(c, p, err)
}

func (h *HTTPController) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext()); err != nil {
		return devconnect.WriteError(c, err, h.logger)
	}
	return c.JSON(fiber.Map{"msg": "User deleted."})
}

func (h *HTTPController) AddExperience(c *fiber.Ctx) error {
	req := ExperienceRequest{}
	if err := c.BodyParser(&req); err != nil {
		return h.badPayload(c, err)
	}
	p, err := h.service.AddExperience(c.UserContext(), req)
	return h.respond(c, p, err)
}

func (h *HTTPController) RemoveExperience(c *fiber.Ctx) error {
	p, err := h.service.RemoveExperience(c.UserContext(), c.Params("exp_id"))
	return h.respond(c, p, err)
}

func (h *HTTPController) AddEducation(c *fiber.Ctx) error {
	req := EducationRequest{}
	if err := c.BodyParser(&req); err != nil {
		return h.badPayload(c, err)
	}
	p, err := h.service.AddEducation(c.UserContext(), req)
	return h.respond(c, p, err)
}

func (h *HTTPController) RemoveEducation(c *fiber.Ctx) error {
	p, err := h.service.RemoveEducation(c.UserContext(), c.Params("edu_id"))
	return h.respond(c, p, err)
}

func (h *HTTPController) respond(c *fiber.Ctx, p *Profile, err error) error {
	if err != nil {
		return devconnect.WriteError(c, err, h.logger)
	}
	return c.JSON(p)
}

func (h *HTTPController) badPayload(c *fiber.Ctx, err error) error {
	h.logger.Debug("Unable to parse payload", "path", c.Path(), "error", err)
	return devconnect.WriteError(c, devconnect.NewPublicError(fiber.StatusBadRequest, "Invalid request payload."), h.logger)
}
