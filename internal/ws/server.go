package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/syncode/syncode/internal/config"
	"github.com/syncode/syncode/internal/execution"
	"github.com/syncode/syncode/internal/logger"
	"github.com/syncode/syncode/internal/room"
)

// AIAssistant answers one-shot prompts for the room chat
type AIAssistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Server ties the websocket transport to the room registry, the access gate
// and the execution queue. It owns no room or queue state itself: inbound
// events are decoded, dispatched to the owning component, and the resulting
// broadcasts published through the hub.
type Server struct {
	cfg       *config.Config
	hub       *Hub
	store     *room.Store
	gate      *room.Gate
	queue     *execution.Queue
	assistant AIAssistant
	upgrader  websocket.Upgrader
}

// NewServer wires the coordinator together. assistant may be nil when no AI
// credentials are configured.
func NewServer(cfg *config.Config, store *room.Store, gate *room.Gate, queue *execution.Queue, assistant AIAssistant) *Server {
	s := &Server{
		cfg:       cfg,
		hub:       NewHub(),
		store:     store,
		gate:      gate,
		queue:     queue,
		assistant: assistant,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Display names are the only credential; origin checks are
			// left to the deployment's proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	// A pending request that expires undecided rejects the requester with
	// a timeout reason, mirroring the client-side timer.
	gate.OnExpire(func(roomID, requesterID string) {
		s.hub.SendTo(requesterID, EventAccessRejected, AccessRejectedNotice{
			RoomID: roomID,
			Reason: room.TimeoutRejectReason,
		})
		logger.Info("Access request from %s for room %s expired", requesterID, roomID)
	})

	return s
}

// Hub exposes the broadcast fabric
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP routes: the websocket endpoint plus health and
// queue-status probes
func (s *Server) Router() http.Handler {
	router := httprouter.New()
	router.GET("/ws", s.handleWebSocket)
	router.GET("/healthz", s.handleHealth)
	router.GET("/api/queue-status", s.handleQueueStatus)
	return router
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(s, conn)
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"rooms":   s.store.RoomCount(),
	})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.queue.Status())
}

// handleDisconnect removes a lost connection from every room it joined and
// tells the remaining members, exactly as an explicit leave would
func (s *Server) handleDisconnect(c *Client) {
	for _, dep := range s.store.LeaveAll(c.ID) {
		s.announceDeparture(c, dep)
	}
	s.hub.Unregister(c)
	c.Close()
}

func (s *Server) announceDeparture(c *Client, dep room.Departure) {
	s.hub.Unsubscribe(dep.RoomID, c.ID)
	if !dep.Removed {
		return
	}

	s.hub.Publish(dep.RoomID, EventUserLeft, c.ID, c.ID)
	if dep.Destroyed {
		logger.Info("Room %s destroyed (last member left)", dep.RoomID)
		return
	}

	s.hub.PublishToAll(dep.RoomID, EventAllUsers, dep.Members)
	if dep.NewOwner != nil {
		s.replayPending(dep.RoomID, dep.NewOwner.ID, dep.Replayed)
	}
}

// replayPending re-announces surviving access requests to a member who just
// became owner
func (s *Server) replayPending(roomID, ownerConnID string, pending []room.PendingRequest) {
	for _, req := range pending {
		s.hub.SendTo(ownerConnID, EventAccessRequest, AccessRequestNotice{
			RoomID:      roomID,
			Username:    req.Username,
			RequesterID: req.RequesterID,
		})
	}
}
