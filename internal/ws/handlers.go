package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syncode/syncode/internal/execution"
	"github.com/syncode/syncode/internal/logger"
	"github.com/syncode/syncode/internal/room"
)

const askAITimeout = 60 * time.Second

// handleEvent decodes one inbound frame and dispatches it to the component
// that owns the state it touches. No failure here may take the connection
// down: errors are logged (and, for executions, broadcast) and the loop
// moves on.
func (s *Server) handleEvent(c *Client, env *Envelope) error {
	switch env.Event {
	case EventRequestRoomAccess:
		return s.onRequestRoomAccess(c, env.Data)
	case EventApproveAccess:
		return s.onApproveAccess(c, env.Data)
	case EventRejectAccess:
		return s.onRejectAccess(c, env.Data)
	case EventJoinRoom:
		return s.onJoinRoom(c, env.Data)
	case EventLeaveRoom:
		return s.onLeaveRoom(c, env.Data)
	case EventCodeChange:
		return s.onCodeChange(c, env.Data)
	case EventLanguageUpdate:
		return s.onLanguageUpdate(c, env.Data)
	case EventCursorPosition:
		return s.onCursorPosition(c, env.Data)
	case EventConsoleHeight:
		return s.onConsoleHeight(c, env.Data)
	case EventConsoleVisibility:
		return s.onConsoleVisibility(c, env.Data)
	case EventInputVisibility:
		return s.onInputVisibility(c, env.Data)
	case EventOutputVisibility:
		return s.onOutputVisibility(c, env.Data)
	case EventClearOutput:
		return s.onClearOutput(c, env.Data)
	case EventInputChange:
		return s.onInputChange(c, env.Data)
	case EventRunCode:
		return s.onRunCode(c, env.Data)
	case EventQueueStatus:
		s.hub.SendTo(c.ID, EventQueueStatus, s.queue.Status())
		return nil
	case EventChatMessage:
		return s.onChatMessage(c, env.Data)
	case EventUserTyping:
		return s.onUserTyping(c, env.Data)
	case EventAskAI:
		return s.onAskAI(c, env.Data)
	default:
		logger.Warn("Unknown event %q from %s", env.Event, c.ID)
		return nil
	}
}

func (s *Server) onRequestRoomAccess(c *Client, data json.RawMessage) error {
	var req RoomAccessRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid access request: %w", err)
	}
	if req.RoomID == "" {
		return nil
	}

	decision, owner := s.gate.Request(req.RoomID, c.ID, req.Username)
	switch decision {
	case room.DecisionApproved:
		s.hub.SendTo(c.ID, EventAccessApproved, AccessApprovedNotice{RoomID: req.RoomID})
	case room.DecisionPending:
		s.hub.SendTo(owner.ID, EventAccessRequest, AccessRequestNotice{
			RoomID:      req.RoomID,
			Username:    req.Username,
			RequesterID: c.ID,
		})
		logger.Info("Access request from %s (%s) for room %s is pending", req.Username, c.ID, req.RoomID)
	case room.DecisionDuplicate:
		// Already pending; the owner was notified the first time.
	}
	return nil
}

func (s *Server) onApproveAccess(c *Client, data json.RawMessage) error {
	var req AccessDecision
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid approval: %w", err)
	}
	if !s.isOwner(req.RoomID, c.ID) {
		logger.Warn("Non-owner %s tried to approve access for room %s", c.ID, req.RoomID)
		return nil
	}

	if s.gate.Approve(req.RoomID, req.RequesterID) {
		s.hub.SendTo(req.RequesterID, EventAccessApproved, AccessApprovedNotice{RoomID: req.RoomID})
	}
	return nil
}

func (s *Server) onRejectAccess(c *Client, data json.RawMessage) error {
	var req AccessDecision
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid rejection: %w", err)
	}
	if !s.isOwner(req.RoomID, c.ID) {
		logger.Warn("Non-owner %s tried to reject access for room %s", c.ID, req.RoomID)
		return nil
	}

	if reason, ok := s.gate.Reject(req.RoomID, req.RequesterID, req.Reason); ok {
		s.hub.SendTo(req.RequesterID, EventAccessRejected, AccessRejectedNotice{
			RoomID: req.RoomID,
			Reason: reason,
		})
	}
	return nil
}

func (s *Server) onJoinRoom(c *Client, data json.RawMessage) error {
	var req JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid join request: %w", err)
	}
	if req.RoomID == "" {
		return nil
	}

	c.username = req.Username
	state, members, replay, evicted := s.store.Join(req.RoomID, c.ID, req.Username)
	// Evicted stale entries stop receiving room traffic immediately; their
	// sockets are torn down by their own read pumps.
	for _, id := range evicted {
		s.hub.Unsubscribe(req.RoomID, id)
	}
	s.hub.Subscribe(req.RoomID, c)

	// Seed the joiner with the authoritative state, then refresh everyone's
	// member list. This is the one full-state reconciliation point; all
	// later updates are deltas.
	s.hub.SendTo(c.ID, EventRoomState, state)
	s.hub.PublishToAll(req.RoomID, EventAllUsers, members)
	s.hub.Publish(req.RoomID, EventUserJoined, room.Member{ID: c.ID, Username: req.Username}, c.ID)

	s.replayPending(req.RoomID, c.ID, replay)

	logger.Info("%s (%s) joined room %s (%d members)", req.Username, c.ID, req.RoomID, len(members))
	return nil
}

func (s *Server) onLeaveRoom(c *Client, data json.RawMessage) error {
	var req LeaveRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid leave request: %w", err)
	}
	if req.RoomID == "" {
		return nil
	}

	dep := s.store.Leave(req.RoomID, c.ID)
	s.announceDeparture(c, dep)
	return nil
}

func (s *Server) onCodeChange(c *Client, data json.RawMessage) error {
	var req CodeChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid code change: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldCode, req.Code); err != nil {
		logger.Debug("Dropped code change for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventCodeUpdate, req.Code, c.ID)
	return nil
}

func (s *Server) onLanguageUpdate(c *Client, data json.RawMessage) error {
	var req LanguageChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid language change: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldLanguage, req.Language); err != nil {
		logger.Warn("Dropped language change for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventLanguageUpdate, LanguageUpdateNotice{Language: req.Language}, c.ID)
	return nil
}

func (s *Server) onCursorPosition(c *Client, data json.RawMessage) error {
	var req CursorPosition
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid cursor position: %w", err)
	}

	// Ephemeral: relayed, never stored. A member who joins mid-drag simply
	// sees no cursor until the next update.
	s.hub.Publish(req.RoomID, EventCursorUpdate, CursorUpdateNotice{
		ID:       c.ID,
		Username: c.username,
		Position: req.Position,
	}, c.ID)
	return nil
}

func (s *Server) onConsoleHeight(c *Client, data json.RawMessage) error {
	var req ConsoleHeightChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid console height: %w", err)
	}

	s.hub.Publish(req.RoomID, EventConsoleHeight, ConsoleHeightNotice{Height: req.Height}, c.ID)
	return nil
}

func (s *Server) onConsoleVisibility(c *Client, data json.RawMessage) error {
	var req ConsoleVisibilityChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid console visibility: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldConsoleVisible, req.IsVisible); err != nil {
		logger.Debug("Dropped console visibility for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventConsoleVisibility, ConsoleVisibilityNotice{IsVisible: req.IsVisible}, c.ID)
	return nil
}

func (s *Server) onInputVisibility(c *Client, data json.RawMessage) error {
	var req InputVisibilityChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid input visibility: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldInputOpen, req.IsInputOpen); err != nil {
		logger.Debug("Dropped input visibility for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventInputVisibility, InputVisibilityNotice{IsInputOpen: req.IsInputOpen}, c.ID)
	return nil
}

func (s *Server) onOutputVisibility(c *Client, data json.RawMessage) error {
	var req OutputVisibilityChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid output visibility: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldOutputOpen, req.IsOutputOpen); err != nil {
		logger.Debug("Dropped output visibility for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventOutputVisibility, OutputVisibilityNotice{IsOutputOpen: req.IsOutputOpen}, c.ID)
	return nil
}

func (s *Server) onClearOutput(c *Client, data json.RawMessage) error {
	var req ClearOutputRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid clear request: %w", err)
	}

	s.hub.Publish(req.RoomID, EventClearOutput, nil, c.ID)
	return nil
}

func (s *Server) onInputChange(c *Client, data json.RawMessage) error {
	var req InputChange
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid input change: %w", err)
	}

	if err := s.store.ApplyEdit(req.RoomID, room.FieldPendingInput, req.Input); err != nil {
		logger.Debug("Dropped input change for %s: %v", req.RoomID, err)
		return nil
	}
	s.hub.Publish(req.RoomID, EventInputChange, InputChangeNotice{Input: req.Input}, c.ID)
	return nil
}

func (s *Server) onRunCode(c *Client, data json.RawMessage) error {
	var req RunCodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid run request: %w", err)
	}

	if _, err := execution.Lookup(req.Language); err != nil {
		s.hub.PublishToAll(req.RoomID, EventCodeOutput, CodeOutput{
			Output: fmt.Sprintf("Unsupported language: %s", req.Language),
			Error:  true,
			RunBy:  req.Username,
		})
		return nil
	}

	job := execution.Job{
		SourceCode:  execution.WrapSource(req.Language, req.Code),
		Language:    req.Language,
		Stdin:       req.Input,
		SubmittedAt: time.Now(),
	}

	// The submit blocks until the queue drains to this job; run it off the
	// read pump so the room keeps servicing events. The result goes to the
	// room's membership at completion time, whatever it is by then.
	go func() {
		result, err := s.queue.Submit(context.Background(), job)
		if err != nil {
			s.hub.PublishToAll(req.RoomID, EventCodeOutput, CodeOutput{
				Output: executionFailureMessage(err),
				Error:  true,
				RunBy:  req.Username,
			})
			logger.Error("Execution failed for room %s: %v", req.RoomID, err)
			return
		}
		s.hub.PublishToAll(req.RoomID, EventCodeOutput, CodeOutput{
			Output: result.Output,
			Error:  result.IsError,
			RunBy:  req.Username,
		})
	}()
	return nil
}

func (s *Server) onChatMessage(c *Client, data json.RawMessage) error {
	var req ChatMessagePayload
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid chat message: %w", err)
	}

	s.hub.Publish(req.RoomID, EventChatMessage, req, c.ID)
	return nil
}

func (s *Server) onUserTyping(c *Client, data json.RawMessage) error {
	var req TypingPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid typing payload: %w", err)
	}

	s.hub.Publish(req.RoomID, EventUserTyping, req, c.ID)
	return nil
}

func (s *Server) onAskAI(c *Client, data json.RawMessage) error {
	var req AskAIRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid AI request: %w", err)
	}

	if s.assistant == nil {
		s.hub.SendTo(c.ID, EventAIResponse, AIResponse{
			Username: req.Username,
			Prompt:   req.Prompt,
			Response: "The AI assistant is not configured on this server.",
			Error:    true,
		})
		return nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), askAITimeout)
		defer cancel()

		reply, err := s.assistant.Ask(ctx, req.Prompt)
		if err != nil {
			logger.Error("AI request failed: %v", err)
			s.hub.PublishToAll(req.RoomID, EventAIResponse, AIResponse{
				Username: req.Username,
				Prompt:   req.Prompt,
				Response: "The AI assistant could not answer. Try again later.",
				Error:    true,
			})
			return
		}
		s.hub.PublishToAll(req.RoomID, EventAIResponse, AIResponse{
			Username: req.Username,
			Prompt:   req.Prompt,
			Response: reply,
		})
	}()
	return nil
}

func (s *Server) isOwner(roomID, connID string) bool {
	owner, ok := s.store.Owner(roomID)
	return ok && owner.ID == connID
}

func executionFailureMessage(err error) string {
	switch {
	case errors.Is(err, execution.ErrMissingCredentials):
		return "The execution engine is not configured on this server."
	case errors.Is(err, execution.ErrRateLimited):
		return "The execution engine is overloaded. Try again later."
	case errors.Is(err, execution.ErrUnsupportedLanguage):
		return err.Error()
	default:
		return "Code execution failed. Try again later."
	}
}
