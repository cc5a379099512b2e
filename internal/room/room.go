package room

import (
	"time"
)

// DefaultLanguage is the language a freshly created room starts with
const DefaultLanguage = "javascript"

// Member is one connection joined to a room
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SharedState is the editable document every room member converges on.
// JSON tags match the wire format the editor clients consume.
type SharedState struct {
	Code             string `json:"code"`
	Language         string `json:"language"`
	IsConsoleVisible bool   `json:"isConsoleVisible"`
	IsOutputOpen     bool   `json:"isOutputOpen"`
	IsInputOpen      bool   `json:"isInputOpen"`
	PendingInput     string `json:"pendingInput"`
}

func defaultSharedState() SharedState {
	return SharedState{Language: DefaultLanguage}
}

// Field names an editable part of the shared state
type Field string

// Editable shared-state fields
const (
	FieldCode           Field = "code"
	FieldLanguage       Field = "language"
	FieldConsoleVisible Field = "consoleVisible"
	FieldOutputOpen     Field = "outputOpen"
	FieldInputOpen      Field = "inputOpen"
	FieldPendingInput   Field = "pendingInput"
)

var supportedLanguages = map[string]bool{
	"javascript": true,
	"python":     true,
	"cpp":        true,
	"java":       true,
}

// SupportedLanguage reports whether the editor accepts the given language
func SupportedLanguage(language string) bool {
	return supportedLanguages[language]
}

// PendingRequest is an unresolved access request for a room
type PendingRequest struct {
	RequesterID string
	Username    string
	RequestedAt time.Time

	timer *time.Timer
}

// roomState is the per-room record owned by the Store. Members keep join
// order; the member at index 0 is the owner.
type roomState struct {
	members []Member
	state   SharedState
}
