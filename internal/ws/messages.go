package ws

import "encoding/json"

// Client -> server events
const (
	EventRequestRoomAccess = "request-room-access"
	EventApproveAccess     = "approve-access"
	EventRejectAccess      = "reject-access"
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
	EventCodeChange        = "code-change"
	EventLanguageUpdate    = "language-update"
	EventCursorPosition    = "cursor-position"
	EventConsoleHeight     = "console:height-change"
	EventConsoleVisibility = "console:visibility-change"
	EventInputVisibility   = "console:input-visibility-change"
	EventOutputVisibility  = "console:output-visibility-change"
	EventClearOutput       = "console:clear-output"
	EventInputChange       = "input:change"
	EventRunCode           = "run-code"
	EventQueueStatus       = "queue-status"
	EventChatMessage       = "chatMessage"
	EventUserTyping        = "user:typing"
	EventAskAI             = "askAI"
)

// Server -> client events
const (
	EventRoomState      = "room-state"
	EventAllUsers       = "all-users"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventCodeUpdate     = "code-update"
	EventCodeOutput     = "code-output"
	EventAccessRequest  = "access-request"
	EventAccessApproved = "access-approved"
	EventAccessRejected = "access-rejected"
	EventCursorUpdate   = "cursor-update"
	EventAIResponse     = "aiResponse"
)

// Envelope frames every message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomAccessRequest asks to enter a room
type RoomAccessRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// AccessDecision is the owner's verdict on a pending request
type AccessDecision struct {
	RoomID      string `json:"roomId"`
	RequesterID string `json:"requesterId"`
	Reason      string `json:"reason,omitempty"`
}

// JoinRoomRequest registers an approved member in a room
type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// LeaveRoomRequest removes the sender from a room
type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

// CodeChange carries an edit to the shared code buffer
type CodeChange struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// LanguageChange switches the room's language
type LanguageChange struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

// CursorPos is an editor cursor location
type CursorPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// CursorPosition is the ephemeral cursor signal from a member
type CursorPosition struct {
	RoomID   string    `json:"roomId"`
	Position CursorPos `json:"position"`
}

// ConsoleHeightChange is relayed while a member drags the console divider
type ConsoleHeightChange struct {
	RoomID string  `json:"roomId"`
	Height float64 `json:"height"`
}

// ConsoleVisibilityChange toggles the console panel
type ConsoleVisibilityChange struct {
	RoomID    string `json:"roomId"`
	IsVisible bool   `json:"isVisible"`
}

// InputVisibilityChange toggles the stdin panel
type InputVisibilityChange struct {
	RoomID      string `json:"roomId"`
	IsInputOpen bool   `json:"isInputOpen"`
}

// OutputVisibilityChange toggles the output panel
type OutputVisibilityChange struct {
	RoomID       string `json:"roomId"`
	IsOutputOpen bool   `json:"isOutputOpen"`
}

// ClearOutputRequest asks every member to clear their console
type ClearOutputRequest struct {
	RoomID string `json:"roomId"`
}

// InputChange carries an edit to the pending stdin buffer
type InputChange struct {
	RoomID string `json:"roomId"`
	Input  string `json:"input"`
}

// RunCodeRequest submits the room's code for execution
type RunCodeRequest struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Username string `json:"username"`
	Input    string `json:"input"`
}

// ChatMessagePayload is a relayed chat message
type ChatMessagePayload struct {
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TypingPayload is the ephemeral typing indicator
type TypingPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// AskAIRequest is a one-shot question for the AI helper
type AskAIRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Prompt   string `json:"prompt"`
}

// CodeOutput is the broadcast result of an execution job
type CodeOutput struct {
	Output string `json:"output"`
	Error  bool   `json:"error"`
	RunBy  string `json:"runBy"`
}

// AccessRequestNotice tells the room owner someone wants in
type AccessRequestNotice struct {
	RoomID      string `json:"roomId"`
	Username    string `json:"username"`
	RequesterID string `json:"requesterId"`
}

// AccessApprovedNotice tells a requester they may join
type AccessApprovedNotice struct {
	RoomID string `json:"roomId"`
}

// AccessRejectedNotice tells a requester they were turned away
type AccessRejectedNotice struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// LanguageUpdateNotice is the broadcast form of a language switch
type LanguageUpdateNotice struct {
	Language string `json:"language"`
}

// CursorUpdateNotice is the relayed cursor position with its author
type CursorUpdateNotice struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Position CursorPos `json:"position"`
}

// ConsoleHeightNotice is the relayed console height
type ConsoleHeightNotice struct {
	Height float64 `json:"height"`
}

// ConsoleVisibilityNotice is the relayed console visibility flag
type ConsoleVisibilityNotice struct {
	IsVisible bool `json:"isVisible"`
}

// InputVisibilityNotice is the relayed stdin panel flag
type InputVisibilityNotice struct {
	IsInputOpen bool `json:"isInputOpen"`
}

// OutputVisibilityNotice is the relayed output panel flag
type OutputVisibilityNotice struct {
	IsOutputOpen bool `json:"isOutputOpen"`
}

// InputChangeNotice is the relayed pending stdin buffer
type InputChangeNotice struct {
	Input string `json:"input"`
}

// AIResponse is the broadcast answer from the AI helper
type AIResponse struct {
	Username string `json:"username"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Error    bool   `json:"error,omitempty"`
}
