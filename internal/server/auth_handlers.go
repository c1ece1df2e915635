package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"socialflow/internal/middleware"
	"socialflow/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// wsTicketTTL bounds how long an issued WebSocket ticket stays valid.
const wsTicketTTL = 30 * time.Second

// wsTicketPrincipal is the identity stored in Redis behind a ticket ID.
type wsTicketPrincipal struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Description Mint a session identity from an email address. Reviewer
// @Description emails additionally require the shared reviewer password.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := s.resolveRole(email)

	// Reviewer identities carry real authority, so they are gated behind
	// the configured password hash. Plain users sign in with email alone.
	if role.CanReview() {
		if s.config.AdminPasswordHash == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Reviewer sign-in is not configured"))
		}
		if err := bcrypt.CompareHashAndPassword(
			[]byte(s.config.AdminPasswordHash), []byte(req.Password)); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid credentials"))
		}
	}

	user := models.NewUserFromEmail(email, role)
	if reviewer, ok := s.roster.ByEmail(email); ok && reviewer.Name != "" {
		user.Name = reviewer.Name
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /api/auth/me
// @Summary Current identity
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} object{error=string}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	email := currentUserEmail(c)
	role := currentUserRole(c)

	user := models.NewUserFromEmail(email, role)
	user.ID = currentUserID(c)
	if reviewer, ok := s.roster.ByEmail(email); ok && reviewer.Name != "" {
		user.Name = reviewer.Name
	}

	return c.JSON(user)
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Returns a short-lived single-use ticket that authenticates
// @Description the /api/ws upgrade, where Authorization headers are not
// @Description available to browsers.
// @Tags auth
// @Produce json
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 503 {object} object{error=string}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewValidationError("WebSocket tickets require Redis"))
	}

	principal := wsTicketPrincipal{
		UserID: currentUserID(c),
		Role:   string(currentUserRole(c)),
		Email:  currentUserEmail(c),
	}
	payload, err := json.Marshal(principal)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, payload, wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(wsTicketTTL.Seconds()),
	})
}

// resolveRole decides the role for a sign-in email: the reviewer roster
// wins, with built-in fallbacks for local development.
func (s *Server) resolveRole(email string) models.UserRole {
	if reviewer, ok := s.roster.ByEmail(email); ok {
		return reviewer.Role
	}
	switch email {
	case "admin@example.com":
		return models.RoleAdmin
	case "superadmin@example.com":
		return models.RoleSuperadmin
	}
	return models.RoleUser
}

// generateToken creates a JWT for the given user identity
func (s *Server) generateToken(user *models.User) (string, error) {
	// Validate secret exists
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,                            // Subject (user ID)
		"email": user.Email,                         // Email (cached in token)
		"name":  user.Name,                          // Display name
		"role":  string(user.Role),                  // Workflow role
		"iss":   middleware.TokenIssuer,             // Issuer
		"aud":   middleware.TokenAudience,           // Audience
		"exp":   now.Add(time.Hour * 24 * 7).Unix(), // Expiration (7 days)
		"iat":   now.Unix(),                         // Issued at
		"nbf":   now.Unix(),                         // Not before
		"jti":   s.generateJTI(),                    // JWT ID (unique identifier)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
