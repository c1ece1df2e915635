package server

import (
	"socialflow/internal/models"
	"socialflow/internal/notifications"
	"socialflow/internal/observability"
	"socialflow/internal/store"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title       string                `json:"title" validate:"max=200"`
	Description string                `json:"description" validate:"required,max=5000"`
	Hashtags    []string              `json:"hashtags" validate:"max=30,dive,max=100"`
	Platform    models.SocialPlatform `json:"platform" validate:"required"`
	Tone        models.PostTone       `json:"tone" validate:"required"`
	ImageOption models.ImageOption    `json:"imageOption"`
	ImageURL    string                `json:"imageUrl" validate:"omitempty,url"`
}

type updatePostRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description" validate:"omitempty,max=5000"`
	Hashtags    []string               `json:"hashtags" validate:"omitempty,max=30,dive,max=100"`
	Platform    *models.SocialPlatform `json:"platform"`
	Tone        *models.PostTone       `json:"tone"`
	ImageOption *models.ImageOption    `json:"imageOption"`
	ImageURL    *string                `json:"imageUrl" validate:"omitempty,url"`
}

// CreatePost handles POST /api/posts
// @Summary Create a draft post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post fields"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
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
	if req.ImageOption == "" {
		req.ImageOption = models.ImagePlatformDefault
	}
	if !req.ImageOption.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown image option"))
	}

	post := s.store.Create(c.Context(), store.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Hashtags:    req.Hashtags,
		Platform:    req.Platform,
		Tone:        req.Tone,
		ImageOption: req.ImageOption,
		ImageURL:    req.ImageURL,
	})

	s.publishWorkflowEvent(c.Context(), notifications.EventPostCreated, post, actorLabel(c))

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
// @Summary List posts, most recent first
// @Tags posts
// @Produce json
// @Param status query string false "Filter by workflow status"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} object{posts=[]models.Post,total=int}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts := s.store.List(c.Context())

	if raw := c.Query("status"); raw != "" {
		status := models.PostStatus(raw)
		if !status.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown post status"))
		}
		filtered := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if p.Status == status {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	limit, offset := parsePagination(c)
	return c.JSON(fiber.Map{
		"posts":  paginate(posts, limit, offset),
		"total":  len(posts),
		"limit":  limit,
		"offset": offset,
	})
}

// GetPost handles GET /api/posts/:id
// @Summary Fetch a single post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post's content fields
// @Description Partial update; absent fields are left untouched. Status is
// @Description never changed here, only through the workflow endpoints.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	if req.Platform != nil && !req.Platform.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown platform"))
	}
	if req.Tone != nil && !req.Tone.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown tone"))
	}
	if req.ImageOption != nil && !req.ImageOption.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown image option"))
	}

	post, err := s.store.Update(c.Context(), c.Params("id"), store.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Hashtags:    req.Hashtags,
		Platform:    req.Platform,
		Tone:        req.Tone,
		ImageOption: req.ImageOption,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Idempotent; deleting an unknown ID still returns 204.
// @Tags posts
// @Param id path string true "Post ID"
// @Success 204
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id := c.Params("id")

	// Fetch first so the deletion event can carry the title. An unknown ID
	// is not an error, but there is nothing to announce either.
	post, err := s.store.Get(c.Context(), id)
	known := err == nil

	s.store.Delete(c.Context(), id)

	if known {
		s.publishWorkflowEvent(c.Context(), notifications.EventPostDeleted, post, actorLabel(c))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitPost handles POST /api/posts/:id/submit
// @Summary Submit a draft for review
// @Description Moves a Draft through Submitted into Under Review.
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{reviewedBy=string} false "Requested reviewer"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/submit [post]
func (s *Server) SubmitPost(c *fiber.Ctx) error {
	var req struct {
		ReviewedBy string `json:"reviewedBy" validate:"max=200"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
	}

	details := store.TransitionDetails{ReviewedBy: req.ReviewedBy}
	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusSubmitted, models.StatusUnderReview}, details)
}

// ResubmitPost handles POST /api/posts/:id/resubmit
// @Summary Resubmit a post after feedback
// @Tags workflow
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/resubmit [post]
func (s *Server) ResubmitPost(c *fiber.Ctx) error {
	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusUnderReview}, store.TransitionDetails{})
}

// ApprovePost handles POST /api/posts/:id/approve
// @Summary Approve a post under review
// @Description Reviewer only. Moves the post through Approved into Ready to
// @Description Publish.
// @Tags workflow
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/approve [post]
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusApproved, models.StatusReadyToPublish},
		store.TransitionDetails{})
}

// RequestChanges handles POST /api/posts/:id/feedback
// @Summary Send a post back with feedback
// @Description Reviewer only. Feedback notes are required.
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{feedbackNotes=string} true "Feedback"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/feedback [post]
func (s *Server) RequestChanges(c *fiber.Ctx) error {
	var req struct {
		FeedbackNotes string `json:"feedbackNotes" validate:"required,max=2000"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusFeedback},
		store.TransitionDetails{FeedbackNotes: req.FeedbackNotes})
}

// PublishPost handles POST /api/posts/:id/publish
// @Summary Publish an approved post
// @Tags workflow
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/publish [post]
func (s *Server) PublishPost(c *fiber.Ctx) error {
	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusPublished}, store.TransitionDetails{})
}

// ReturnToDraft handles POST /api/posts/:id/draft
// @Summary Pull a post back to Draft
// @Description Allowed from any state except Published.
// @Tags workflow
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/draft [post]
func (s *Server) ReturnToDraft(c *fiber.Ctx) error {
	return s.transitionThrough(c,
		[]models.PostStatus{models.StatusDraft}, store.TransitionDetails{})
}

// transitionThrough applies consecutive workflow hops and responds with the
// final state. The first failing hop aborts; intermediate hops are always
// legal continuations of the previous one, so a mid-chain failure can only
// come from persistence-level races and surfaces as a 422.
func (s *Server) transitionThrough(c *fiber.Ctx, targets []models.PostStatus, details store.TransitionDetails) error {
	id := c.Params("id")

	var (
		post models.Post
		err  error
	)
	for _, target := range targets {
		post, err = s.store.Transition(c.Context(), id, target, details)
		if err != nil {
			return respondStoreError(c, err)
		}
		observability.WorkflowTransitions.WithLabelValues(string(target)).Inc()
	}

	final := targets[len(targets)-1]
	s.publishWorkflowEvent(c.Context(), notifications.EventForTransition(final), post, actorLabel(c))

	return c.JSON(post)
}
