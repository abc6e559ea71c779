package quizsolver

import "strings"

// Mode selects the generation profile used for a request.
type Mode string

const (
	ModeQA     Mode = "qa"
	ModeCoding Mode = "coding"
)

// Normalize returns ModeQA for anything that is not ModeCoding.
func (m Mode) Normalize() Mode {
	if m == ModeCoding {
		return ModeCoding
	}
	return ModeQA
}

// OptionImage is an image attached to one answer option.
type OptionImage struct {
	Option string `json:"option"`
	Src    string `json:"src"`
}

// ImageRefs references images found near a question. Images are only ever
// sent to a backend as URL text inside the prompt.
type ImageRefs struct {
	QuestionImage string        `json:"questionImage,omitempty"`
	OptionImages  []OptionImage `json:"optionImages,omitempty"`
}

// Empty reports whether no image is referenced.
func (r *ImageRefs) Empty() bool {
	return r == nil || (r.QuestionImage == "" && len(r.OptionImages) == 0)
}

// Request is a question captured in the foreground.
type Request struct {
	QuestionText string     `json:"questionText"`
	Images       *ImageRefs `json:"images,omitempty"`
	CustomPrompt string     `json:"customPrompt"`
	Mode         Mode       `json:"mode"`
}

// Validate rejects requests that carry neither text nor images.
func (r Request) Validate() error {
	if strings.TrimSpace(r.QuestionText) == "" && r.Images.Empty() {
		return NewError(KindFormatMismatch, MsgEmptyRequest, ErrEmptyRequest)
	}
	return nil
}

// AnswerResult is the answer produced for one request.
type AnswerResult struct {
	Text string `json:"text"`
	Mode Mode   `json:"mode"`
}
