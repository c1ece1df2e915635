package server

import (
	"socialflow/internal/forge"
	"socialflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ForgePost handles POST /api/forge
// @Summary Generate post suggestions
// @Description Sends the prompt to the text-generation agent and normalizes
// @Description whatever comes back into structured suggestions.
// @Tags forge
// @Accept json
// @Produce json
// @Param request body object{prompt=string,platform=string,tone=string,mode=string} true "Generation request"
// @Success 200 {object} forge.PostOutput
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /forge [post]
func (s *Server) ForgePost(c *fiber.Ctx) error {
	var req struct {
		Prompt   string                `json:"prompt" validate:"required,max=5000"`
		Platform models.SocialPlatform `json:"platform" validate:"required"`
		Tone     models.PostTone       `json:"tone" validate:"required"`
		Mode     string                `json:"mode" validate:"omitempty,oneof=single dual"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	if !req.Platform.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown platform"))
	}
	if !req.Tone.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown tone"))
	}

	out, err := s.forge.ForgePost(c.Context(), forge.PostInput{
		Prompt:   req.Prompt,
		Platform: req.Platform,
		Tone:     req.Tone,
		Single:   req.Mode == "single",
	})
	if err != nil {
		return s.respondForgeError(c, err)
	}

	return c.JSON(out)
}

// ForgeHashtags handles POST /api/forge/hashtags
// @Summary Generate hashtags for a drafted post
// @Tags forge
// @Accept json
// @Produce json
// @Param request body object{title=string,description=string} true "Drafted content"
// @Success 200 {object} object{hashtags=[]string}
// @Failure 502 {object} models.ErrorResponse
// @Router /forge/hashtags [post]
func (s *Server) ForgeHashtags(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" validate:"max=200"`
		Description string `json:"description" validate:"required,max=5000"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	hashtags, err := s.forge.GenerateHashtags(c.Context(), req.Title, req.Description)
	if err != nil {
		return s.respondForgeError(c, err)
	}

	if hashtags == nil {
		hashtags = []string{}
	}
	return c.JSON(fiber.Map{"hashtags": hashtags})
}

// ForgeImage handles POST /api/forge/image
// @Summary Generate an illustration for a post
// @Tags forge
// @Accept json
// @Produce json
// @Param request body object{title=string,description=string} true "Drafted content"
// @Success 200 {object} object{imageUrl=string}
// @Failure 502 {object} models.ErrorResponse
// @Router /forge/image [post]
func (s *Server) ForgeImage(c *fiber.Ctx) error {
	if !s.flags.Enabled("forge_image", currentUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewValidationError("Image generation is disabled"))
	}

	var req struct {
		Title       string `json:"title" validate:"max=200"`
		Description string `json:"description" validate:"required,max=5000"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	url, err := s.forge.GenerateImage(c.Context(), req.Title, req.Description)
	if err != nil {
		return s.respondForgeError(c, err)
	}

	return c.JSON(fiber.Map{"imageUrl": url})
}

// respondForgeError distinguishes upstream agent failures (502) from local
// configuration or validation problems.
func (s *Server) respondForgeError(c *fiber.Ctx, err error) error {
	if forge.IsTransportError(err) {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewUpstreamError("Generation agent request failed", err))
	}
	return respondStoreError(c, err)
}
