// Package forge integrates the external text and image generation agents.
// The text agent has no stable wire schema, so responses pass through a
// normalizer chain that tolerates every format it has been observed to emit.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"socialflow/internal/models"
	"socialflow/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostInput is the material a forge call is built from.
type PostInput struct {
	Prompt   string
	Platform models.SocialPlatform
	Tone     models.PostTone
	// Single asks for one suggestion instead of the usual pair.
	Single bool
}

// PostOutput carries exactly two suggestions, matching the drafting UI's
// side-by-side layout.
type PostOutput struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Service wraps the generation clients with instrumentation and response
// normalization.
type Service struct {
	agent  AgentClient
	image  ImageClient
	logger *slog.Logger
}

// NewService builds a Service. The image client may be nil when no image
// endpoint is configured.
func NewService(agent AgentClient, image ImageClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{agent: agent, image: image, logger: logger}
}

// ForgePost asks the agent for two complete post suggestions. A transport
// failure propagates to the caller; anything the agent sends back is
// normalized into suggestions.
func (s *Service) ForgePost(ctx context.Context, in PostInput) (PostOutput, error) {
	if s.agent == nil {
		return PostOutput{}, models.NewValidationError("Text generation is not configured")
	}

	ctx, span := observability.StartClientSpan(ctx, "forge.post",
		attribute.String("platform", string(in.Platform)),
		attribute.String("tone", string(in.Tone)))
	defer span.End()

	instruction := buildPostInstruction(in)
	raw, err := s.agent.Generate(ctx, instruction)
	if err != nil {
		observability.ForgeCalls.WithLabelValues("post", "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "forge post failed", slog.String("error", err.Error()))
		return PostOutput{}, err
	}

	mode := ModeDual
	if in.Single {
		mode = ModeSingle
	}

	observability.ForgeCalls.WithLabelValues("post", "success").Inc()
	return PostOutput{Suggestions: Normalize(raw, in.Prompt, mode)}, nil
}

// GenerateHashtags asks the agent for hashtags fitting an already drafted
// title and description.
func (s *Service) GenerateHashtags(ctx context.Context, title, description string) ([]string, error) {
	if s.agent == nil {
		return nil, models.NewValidationError("Text generation is not configured")
	}

	ctx, span := observability.StartClientSpan(ctx, "forge.hashtags")
	defer span.End()

	instruction := fmt.Sprintf(
		"You are a social media expert. Generate relevant hashtags based on the title and description of the social media post.\n\nTitle: %s\nDescription: %s\n\nReturn ONLY an array of relevant hashtags.",
		title, description)

	raw, err := s.agent.Generate(ctx, instruction)
	if err != nil {
		observability.ForgeCalls.WithLabelValues("hashtags", "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	observability.ForgeCalls.WithLabelValues("hashtags", "success").Inc()
	return parseHashtagList(raw), nil
}

// GenerateImage asks the image service for an illustration URL.
func (s *Service) GenerateImage(ctx context.Context, title, description string) (string, error) {
	if s.image == nil {
		return "", models.NewValidationError("Image generation is not configured")
	}

	ctx, span := observability.StartClientSpan(ctx, "forge.image")
	defer span.End()

	url, err := s.image.GenerateImage(ctx, title, description)
	if err != nil {
		observability.ForgeCalls.WithLabelValues("image", "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	observability.ForgeCalls.WithLabelValues("image", "success").Inc()
	return url, nil
}

// IsTransportError reports whether err is a hard agent failure, as opposed
// to a local or configuration problem.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// buildPostInstruction flattens the structured input into the free-text
// message the agent expects.
func buildPostInstruction(in PostInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a social media post for %s in a %s tone.\n\n", in.Platform, strings.ToLower(string(in.Tone)))
	fmt.Fprintf(&b, "Idea: %s\n\n", in.Prompt)
	b.WriteString("Provide two suggestions separated by a line of ---, each with Title:, Description: and Hashtags: fields.")
	return b.String()
}

// parseHashtagList accepts a JSON string array, a comma separated list, or
// free text sprinkled with #tags.
func parseHashtagList(raw string) []string {
	trimmed := strings.TrimSpace(raw)

	if s, ok := parseStrictJSONStringArray(trimmed); ok {
		return models.NormalizeHashtags(s)
	}
	if tags := extractHashtagTokens(trimmed); len(tags) > 0 {
		return tags
	}
	return models.NormalizeHashtags(strings.Split(trimmed, ","))
}

func recordParseStrategy(strategy string) {
	observability.ForgeParseStrategy.WithLabelValues(strategy).Inc()
}
