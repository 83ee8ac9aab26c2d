package driven

// PromptStore provides access to user-editable prompt texts.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt text for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the system instruction for answer generation.
	// It restricts the model to the supplied context. No placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptFallbackContext is the generic context used when no record
	// clears the similarity threshold. No placeholders.
	PromptFallbackContext = "fallback_context"
)
