package chat

// PromptMessage is one entry of the history sent to the completion API.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the upstream request body. Type 1 selects the
// Bible-assistant persona on the completion service.
type completionRequest struct {
	Stream   bool            `json:"stream"`
	Lang     string          `json:"lang"`
	Type     int             `json:"type"`
	Messages []PromptMessage `json:"messages"`
}

type createTopicDTO struct {
	Name string `json:"name" binding:"required"`
}

type renameTopicDTO struct {
	Name string `json:"name" binding:"required"`
}

type sendMessageDTO struct {
	TopicID uint   `json:"topic_id"`
	Content string `json:"content" binding:"required"`
	Lang    string `json:"lang"`
}

type editMessageDTO struct {
	Content string `json:"content" binding:"required"`
}
