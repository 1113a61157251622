package interview

// Conversation roles. The transcript is the audit trail of a screening and
// is persisted verbatim.
const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Turn is a single conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer pairs an interview question with the candidate's answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
