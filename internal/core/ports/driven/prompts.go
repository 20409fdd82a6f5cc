package driven

// PromptStore serves the text templates handed to the synthesizer.
type PromptStore interface {
	// Load returns the template called name. Unknown names are an error.
	Load(name string) (string, error)

	// Reload drops cached templates.
	Reload()
}

// Template names.
const (
	// PromptAnswer takes two %s verbs: the passages, then the question.
	PromptAnswer = "answer"

	// PromptNoContext replaces the passages when retrieval finds none.
	PromptNoContext = "no_context"
)
