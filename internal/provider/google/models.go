package google

// ChatModel represents a Google Gemini chat model.
type ChatModel string

const (
	Gemini20Flash     ChatModel = "gemini-2.0-flash"
	Gemini25Flash     ChatModel = "gemini-2.5-flash"
	Gemini25FlashLite ChatModel = "gemini-2.5-flash-lite"

	// DefaultChatModel is the model questions are answered with unless configured otherwise.
	DefaultChatModel ChatModel = Gemini20Flash
)

// String returns the model identifier.
func (m ChatModel) String() string { return string(m) }
