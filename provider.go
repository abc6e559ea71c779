package quizsolver

// Provider identifies the backend an answer is requested from.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	// ProviderGemini speaks the generateContent wire format.
	ProviderGemini Provider = "gemini"

	// ProviderChatGPT speaks the chat completions wire format.
	ProviderChatGPT Provider = "chatgpt"

	// ProviderCustom is a user-supplied endpoint whose shape is discovered by probing.
	ProviderCustom Provider = "custom"

	// DefaultProvider is used when no provider selection has been stored.
	DefaultProvider = ProviderGemini
)

// ParseProvider converts a stored provider selection into a Provider.
// Unknown or empty values fall back to DefaultProvider.
func ParseProvider(s string) Provider {
	switch Provider(s) {
	case ProviderGemini, ProviderChatGPT, ProviderCustom:
		return Provider(s)
	default:
		return DefaultProvider
	}
}
