package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// DefaultSessionTitle is used when a session is created without an
	// explicit title, including implicit creation by a fresh client.
	DefaultSessionTitle = "New Conversation"

	// TitlePromptV1 asks the LLM for a short session title from the first
	// user/assistant exchange.
	TitlePromptV1 = "Write a title of at most five words for a conversation " +
		"that starts with the following exchange. Reply with the title only, " +
		"no quotes and no trailing punctuation.\n\n%s"
)
