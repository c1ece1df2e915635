package server

import (
	"socialflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetReviewers handles GET /api/reviewers
// @Summary List the reviewer roster
// @Tags reviewers
// @Produce json
// @Success 200 {object} object{reviewers=[]reviewers.Reviewer}
// @Router /reviewers [get]
func (s *Server) GetReviewers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"reviewers": s.roster.All(),
	})
}

// GetReviewQueue handles GET /api/admin/review-queue
// @Summary List posts waiting for review
// @Description Reviewer only. Returns posts in Submitted or Under Review,
// @Description plus a count of posts per workflow status.
// @Tags admin
// @Produce json
// @Success 200 {object} object{posts=[]models.Post,counts=object}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/review-queue [get]
func (s *Server) GetReviewQueue(c *fiber.Ctx) error {
	posts := s.store.List(c.Context())

	queue := make([]models.Post, 0)
	counts := make(map[models.PostStatus]int, len(models.PostStatusValues))
	for _, status := range models.PostStatusValues {
		counts[status] = 0
	}
	for _, p := range posts {
		counts[p.Status]++
		if p.Status == models.StatusSubmitted || p.Status == models.StatusUnderReview {
			queue = append(queue, p)
		}
	}

	return c.JSON(fiber.Map{
		"posts":  queue,
		"counts": counts,
	})
}
