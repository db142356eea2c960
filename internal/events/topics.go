package events

// Topic constants for domain events emitted by the stores.
const (
	TopicIngredientAdded   = "ingredient.added"
	TopicIngredientUpdated = "ingredient.updated"
	TopicRecipeSaved       = "recipe.saved"
	TopicDraftOpened       = "draft.opened"
	TopicDraftDiscarded    = "draft.discarded"
)

// DefaultTopics returns every topic the stores emit.
func DefaultTopics() []string {
	return []string{
		TopicIngredientAdded,
		TopicIngredientUpdated,
		TopicRecipeSaved,
		TopicDraftOpened,
		TopicDraftDiscarded,
	}
}
