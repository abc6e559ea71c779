package openai

// ChatModel represents an OpenAI chat model.
type ChatModel string

const (
	GPT35Turbo ChatModel = "gpt-3.5-turbo"
	GPT4oMini  ChatModel = "gpt-4o-mini"
	GPT4o      ChatModel = "gpt-4o"

	// DefaultChatModel is the model questions are answered with unless configured otherwise.
	DefaultChatModel ChatModel = GPT35Turbo
)

// String returns the model identifier.
func (m ChatModel) String() string { return string(m) }
