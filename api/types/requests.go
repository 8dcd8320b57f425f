package types

// FieldUpdateRequest is a single-field edit committed from the admin editor
type FieldUpdateRequest struct {
	Field string `json:"field" binding:"required" example:"content"`
	Value string `json:"value" example:"Welcome back to the stoop."`
}

// InboxSubmitRequest is a listener message
type InboxSubmitRequest struct {
	Message string `json:"message" example:"Loved the episode about zoning."`
}

// InboxUpdateRequest marks a message read or unread and edits its notes
type InboxUpdateRequest struct {
	IsRead     *bool   `json:"is_read,omitempty" example:"true"`
	AdminNotes *string `json:"admin_notes,omitempty" example:"Follow up next week"`
}

// PlaceholderRequest appends a manual node to a transcript
type PlaceholderRequest struct {
	Content string `json:"content,omitempty" example:"Transcript pending..."`
}

// LoginRequest is an operator email/password sign-in
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required" example:"host@stooppolitics.com"`
	Password string `json:"password" form:"password" binding:"required"`
}
