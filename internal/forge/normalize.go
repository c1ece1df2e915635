package forge

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"socialflow/internal/models"
)

// Suggestion is one candidate result from a forge call.
type Suggestion struct {
	Title              string   `json:"title"`
	RefinedDescription string   `json:"refinedDescription"`
	Hashtags           []string `json:"hashtags"`
}

// Mode selects how many suggestions the caller's schema requires.
type Mode int

const (
	// ModeSingle yields exactly one suggestion.
	ModeSingle Mode = iota
	// ModeDual yields exactly two, padding with a duplicate or a
	// placeholder when fewer were recovered.
	ModeDual
)

// Sentinel strings some agent revisions wrap the draft in.
const (
	draftStart = "---POST DRAFT START---"
	draftEnd   = "---POST DRAFT END---"
)

const (
	placeholderTitle       = "Placeholder Suggestion"
	placeholderDescription = "Could not parse response from AI. Please check the API output format."
)

var (
	hashtagTokenRe = regexp.MustCompile(`#(\w+)`)
	titleLineRe    = regexp.MustCompile(`Title: (.*)`)
	descriptionRe  = regexp.MustCompile(`(?s)Description: (.*?)Hashtags:`)
	hashtagsLineRe = regexp.MustCompile(`Hashtags: (.*)`)
	sectionSplitRe = regexp.MustCompile(`\n---\n`)
)

// Normalize converts an arbitrary agent response into structured suggestions.
// The agent's output format has drifted across revisions, so parsing is a
// chain of strategies tried in order; every parsing failure degrades to the
// next strategy and the chain always produces a result. Only the transport
// layer may fail hard.
//
// prompt is the user's original instruction, used to synthesize a title when
// the response has no usable first line.
func Normalize(raw, prompt string, mode Mode) []Suggestion {
	suggestions, strategy := parse(raw, prompt)
	recordParseStrategy(strategy)
	return fit(suggestions, mode)
}

// parse runs the strategy chain and reports which strategy produced the
// result.
func parse(raw, prompt string) ([]Suggestion, string) {
	if s, ok := parseStrictJSON(raw); ok {
		return []Suggestion{s}, "json"
	}
	if s, ok := parseDraftBlock(raw); ok {
		return []Suggestion{s}, "draft_block"
	}
	if ss, ok := parseSections(raw); ok {
		return ss, "sections"
	}
	return []Suggestion{parsePlainText(raw, prompt)}, "plain_text"
}

// jsonSuggestion accepts both key spellings the agent has used for the
// description field.
type jsonSuggestion struct {
	Title              string   `json:"title"`
	RefinedDescription string   `json:"refinedDescription"`
	Description        string   `json:"description"`
	Hashtags           []string `json:"hashtags"`
}

func parseStrictJSON(raw string) (Suggestion, bool) {
	var payload jsonSuggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return Suggestion{}, false
	}

	description := payload.RefinedDescription
	if description == "" {
		description = payload.Description
	}
	if payload.Title == "" || description == "" || payload.Hashtags == nil {
		return Suggestion{}, false
	}
	return Suggestion{
		Title:              payload.Title,
		RefinedDescription: description,
		Hashtags:           models.NormalizeHashtags(payload.Hashtags),
	}, true
}

func parseDraftBlock(raw string) (Suggestion, bool) {
	start := strings.Index(raw, draftStart)
	if start < 0 {
		return Suggestion{}, false
	}
	rest := raw[start+len(draftStart):]
	end := strings.Index(rest, draftEnd)
	if end < 0 {
		return Suggestion{}, false
	}

	block := strings.TrimSpace(rest[:end])
	title := firstNonBlankLine(block)
	if title == "" {
		return Suggestion{}, false
	}
	return Suggestion{
		Title:              title,
		RefinedDescription: block,
		Hashtags:           extractHashtagTokens(raw),
	}, true
}

// parseSections handles the labeled layout: up to two sections separated by
// a line of '---', each carrying "Title:", "Description:" and "Hashtags:"
// fields. A single labeled section also parses; the dual-mode fitter pads it.
func parseSections(raw string) ([]Suggestion, bool) {
	sections := sectionSplitRe.Split(raw, -1)
	if len(sections) > 2 {
		sections = sections[:2]
	}

	suggestions := make([]Suggestion, 0, 2)
	for _, section := range sections {
		titleMatch := titleLineRe.FindStringSubmatch(section)
		if titleMatch == nil {
			continue
		}
		s := Suggestion{
			Title:              strings.TrimSpace(titleMatch[1]),
			RefinedDescription: strings.TrimSpace(section),
		}
		if m := descriptionRe.FindStringSubmatch(section); m != nil {
			s.RefinedDescription = strings.TrimSpace(m[1])
		}
		if m := hashtagsLineRe.FindStringSubmatch(section); m != nil {
			s.Hashtags = models.NormalizeHashtags(strings.Split(m[1], ","))
		}
		suggestions = append(suggestions, s)
	}
	if len(suggestions) == 0 {
		return nil, false
	}
	return suggestions, true
}

// parsePlainText is the terminal strategy and never fails.
func parsePlainText(raw, prompt string) Suggestion {
	body := strings.TrimSpace(raw)
	title := firstNonBlankLine(body)
	if title == "" || len(title) > 80 {
		title = truncate(strings.TrimSpace(prompt), 60)
	}
	if title == "" {
		title = "AI Generated Title"
	}
	if body == "" {
		return Suggestion{
			Title:              placeholderTitle,
			RefinedDescription: placeholderDescription,
			Hashtags:           []string{"error"},
		}
	}
	return Suggestion{
		Title:              title,
		RefinedDescription: body,
		Hashtags:           extractHashtagTokens(body),
	}
}

// fit shapes the parsed suggestions to the caller's schema.
func fit(suggestions []Suggestion, mode Mode) []Suggestion {
	if mode == ModeSingle {
		if len(suggestions) == 0 {
			return []Suggestion{placeholderSuggestion()}
		}
		return suggestions[:1]
	}

	if len(suggestions) > 2 {
		suggestions = suggestions[:2]
	}
	for len(suggestions) < 2 {
		if len(suggestions) == 1 {
			dup := suggestions[0]
			dup.Title += " (Option 2)"
			suggestions = append(suggestions, dup)
		} else {
			suggestions = append(suggestions, placeholderSuggestion())
		}
	}
	return suggestions
}

func placeholderSuggestion() Suggestion {
	return Suggestion{
		Title:              placeholderTitle,
		RefinedDescription: placeholderDescription,
		Hashtags:           []string{"error"},
	}
}

func firstNonBlankLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func extractHashtagTokens(s string) []string {
	matches := hashtagTokenRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return models.NormalizeHashtags(tags)
}

func parseStrictJSONStringArray(raw string) ([]string, bool) {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

// truncate shortens s to at most n bytes, cutting on a rune boundary so a
// multi-byte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
