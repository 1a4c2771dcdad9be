package dto

// CreateMessageRequest payload for appending to a ticket thread.
type CreateMessageRequest struct {
	AuthorType string `json:"authorType"`
	AuthorName string `json:"authorName"`
	Text       string `json:"text"`
}
