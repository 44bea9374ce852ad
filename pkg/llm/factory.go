package llm

import "log/slog"

// New builds the configured provider by name. Unknown names fall back to
// OpenAI, matching the source deployment's behavior.
func New(name string, opts ...Option) (Provider, error) {
	switch name {
	case providerOpenAI, "":
		return NewOpenAI(opts...)
	case providerAnthropic:
		return NewAnthropic(opts...)
	default:
		slog.Default().Warn("unknown llm provider, falling back to openai", "provider", name)
		return NewOpenAI(opts...)
	}
}
