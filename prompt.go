package quizsolver

import (
	"regexp"
	"strings"
)

// Built-in prompts used when a request carries no custom prompt.
const (
	DefaultPrompt = `Give the option letter/number followed by the answer text. Format as "A: [answer]" or "1: [answer]". Be extremely concise.`
	ImagePrompt   = `This is an image-based question. Look at the question image and option images carefully. Give the correct option letter/number followed by a brief description. Format as "A: [brief description]" or "1: [brief description]". Be extremely concise.`
)

// BuildPrompt assembles the single textual prompt sent to every backend.
// Images are described by URL, interleaved with their option labels.
func BuildPrompt(req Request) string {
	question := req.QuestionText

	if !req.Images.Empty() {
		var b strings.Builder
		b.WriteString("Image-based question:\n")
		if req.Images.QuestionImage != "" {
			b.WriteString("Question Image: " + req.Images.QuestionImage + "\n\n")
		}
		if len(req.Images.OptionImages) > 0 {
			lines := make([]string, 0, len(req.Images.OptionImages))
			for _, img := range req.Images.OptionImages {
				lines = append(lines, img.Option+": "+img.Src)
			}
			b.WriteString("Options:\n" + strings.Join(lines, "\n") + "\n\n")
		}
		if strings.TrimSpace(req.QuestionText) != "" {
			b.WriteString("Additional Text: " + req.QuestionText + "\n")
		}
		question = b.String()
	}

	prompt := req.CustomPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
		if !req.Images.Empty() {
			prompt = ImagePrompt
		}
	}

	return prompt + "\n\nQuestion to analyze:\n" + question
}

var (
	answerPrefix = regexp.MustCompile(`(?i)^(Option|Answer|The answer is|It's)\s*:?\s*`)
	answerOption = regexp.MustCompile(`(?i)^\s*([A-D0-9])\s*[:).-]\s*(.+)$`)
)

// FormatAnswer strips conversational prefixes from a multiple-choice answer
// and normalizes "A) text" style answers to "A: text".
func FormatAnswer(answer string) string {
	if answer == "" {
		return ""
	}
	answer = answerPrefix.ReplaceAllString(answer, "")
	answer = answerOption.ReplaceAllString(answer, "$1: $2")
	return strings.TrimSpace(answer)
}

// GenerationProfile holds the sampling parameters for one mode.
type GenerationProfile struct {
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int
}

// ProfileFor returns the generation profile for m. Coding answers get a
// looser profile with room for longer output.
func ProfileFor(m Mode) GenerationProfile {
	if m.Normalize() == ModeCoding {
		return GenerationProfile{Temperature: 0.4, TopK: 40, TopP: 0.95, MaxTokens: 2048}
	}
	return GenerationProfile{Temperature: 0.2, TopK: 20, TopP: 0.8, MaxTokens: 300}
}
