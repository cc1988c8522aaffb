package server

import (
	"encoding/json"
	"net/http"
	"time"

	"market-dashboard/src/models"
	"market-dashboard/src/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			WebsocketClients.Set(0)
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			s.stateMutex.Unlock()
			WebsocketClients.Inc()

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				WebsocketClients.Dec()
			}
			s.stateMutex.Unlock()

		case event := <-s.broadcast:
			s.stateMutex.Lock()
			s.lastUpdate = event.Timestamp
			for client := range s.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- event:
				default:
					// Slow consumer, drop it rather than block the hub
					delete(s.clients, client)
					close(client.send)
					WebsocketClients.Dec()
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateChartView replaces the cached view of group without broadcasting.
func (s *DashboardServer) UpdateChartView(group string, view interface{}) {
	v, ok := view.(models.MChartView)
	if !ok {
		s.Logger.Warning("UpdateChartView expected models.MChartView, got %T", view)
		return
	}
	s.stateMutex.Lock()
	s.views[group] = v
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------

// Broadcast queues an event for every interested client.
func (s *DashboardServer) Broadcast(payload interface{}) {
	var event *models.MDashboardEvent
	switch v := payload.(type) {
	case *models.MDashboardEvent:
		event = v
	case models.MDashboardEvent:
		event = &v
	default:
		s.Logger.Warning("Broadcast expected models.MDashboardEvent, got %T", payload)
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	if view, ok := event.Payload.(models.MChartView); ok {
		clean := *event
		clean.Payload = sanitizeView(view)
		event = &clean
	}

	select {
	case <-s.done:
	case s.broadcast <- event:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s event", event.Type)
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) newEvent(eventType, group, ticker string, payload interface{}) *models.MDashboardEvent {
	var metrics models.MProcessingMetrics
	if s.deps.Facade != nil {
		metrics = s.deps.Facade.Metrics()
	}
	return &models.MDashboardEvent{
		Type:              eventType,
		Group:             group,
		Ticker:            ticker,
		Payload:           payload,
		Timestamp:         time.Now().Unix(),
		ProcessingMetrics: metrics,
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command and replies with the cached
// views of the requested groups.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}
	client.subscribe(cmd)
	events := s.initialEvents(cmd)

	// the hub closes send channels under the write lock
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	for _, event := range events {
		select {
		case client.send <- event:
		default:
			s.Logger.Warning("Client buffer full, initial %s event dropped", event.Type)
		}
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) initialEvents(cmd models.MSubscribeCommand) []*models.MDashboardEvent {
	s.stateMutex.RLock()
	var views []models.MChartView
	if cmd.ClientType == "dashboard" && len(cmd.Groups) == 0 {
		for _, v := range s.views {
			views = append(views, v)
		}
	} else {
		for _, g := range cmd.Groups {
			if v, ok := s.views[g]; ok {
				views = append(views, v)
			}
		}
	}
	s.stateMutex.RUnlock()

	events := make([]*models.MDashboardEvent, 0, 2*len(views))
	for _, v := range views {
		events = append(events, s.newEvent(models.EventChartLoaded, v.Group, "", sanitizeView(v)))
		if s.deps.Fibonacci != nil {
			snap := s.deps.Fibonacci.For(state.ViewerKey(cmd.Session, v.Group)).Snapshot()
			events = append(events, s.newEvent(models.EventFibonacci, v.Group, "", snap))
		}
	}
	return events
}
