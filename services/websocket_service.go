package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"qqueue-app/qqueue/broker"
	"qqueue-app/qqueue/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

type WebSocketServiceInterface interface {
	Start()
	Stop()
	HandleConnection(c *gin.Context, userID uuid.UUID)
}

// WebSocketService streams committed lifecycle events to the users involved
// in them: an event is forwarded to a connected client when its payload
// names that client as requester or accepter.
type WebSocketService struct {
	upgrader websocket.Upgrader
	consumer *broker.Consumer

	clients      map[uuid.UUID]map[*wsClient]struct{}
	clientsMutex sync.RWMutex

	stopChan chan struct{}
}

type wsClient struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

func NewWebSocketService(consumer *broker.Consumer) *WebSocketService {
	return &WebSocketService{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		consumer: consumer,
		clients:  make(map[uuid.UUID]map[*wsClient]struct{}),
		stopChan: make(chan struct{}),
	}
}

func (ws *WebSocketService) Start() {
	if ws.consumer == nil {
		log.Println("WebSocket service running without a broker; no events will be streamed")
		return
	}
	go ws.run()
}

func (ws *WebSocketService) Stop() {
	close(ws.stopChan)

	ws.clientsMutex.Lock()
	defer ws.clientsMutex.Unlock()
	for _, conns := range ws.clients {
		for client := range conns {
			close(client.send)
			if client.conn != nil {
				client.conn.Close()
			}
		}
	}
	ws.clients = make(map[uuid.UUID]map[*wsClient]struct{})
}

func (ws *WebSocketService) run() {
	for {
		select {
		case msg := <-ws.consumer.Messages():
			ws.dispatch(msg)
		case <-ws.stopChan:
			return
		}
	}
}

func (ws *WebSocketService) dispatch(msg *nats.Msg) {
	var event models.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("Dropping malformed event on %s: %v", msg.Subject, err)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("Dropping event %s with malformed payload: %v", event.ID, err)
		return
	}

	recipients := make(map[uuid.UUID]struct{})
	for _, key := range []string{"requested_by", "accepted_by", "user_id"} {
		if value, ok := payload[key].(string); ok {
			if id, err := uuid.Parse(value); err == nil {
				recipients[id] = struct{}{}
			}
		}
	}

	frame, err := json.Marshal(gin.H{
		"type":      "event",
		"event":     event.Event,
		"timestamp": event.Timestamp,
		"payload":   payload,
	})
	if err != nil {
		return
	}

	ws.clientsMutex.RLock()
	defer ws.clientsMutex.RUnlock()
	for id := range recipients {
		for client := range ws.clients[id] {
			select {
			case client.send <- frame:
			default:
				// Slow consumer; drop the frame rather than block dispatch.
			}
		}
	}
}

// HandleConnection upgrades an already-authenticated request and pumps
// events to it until the peer goes away.
func (ws *WebSocketService) HandleConnection(c *gin.Context, userID uuid.UUID) {
	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	ws.register(client)

	go client.writePump()
	go func() {
		defer ws.unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (ws *WebSocketService) register(client *wsClient) {
	ws.clientsMutex.Lock()
	defer ws.clientsMutex.Unlock()
	if ws.clients[client.userID] == nil {
		ws.clients[client.userID] = make(map[*wsClient]struct{})
	}
	ws.clients[client.userID][client] = struct{}{}
}

func (ws *WebSocketService) unregister(client *wsClient) {
	ws.clientsMutex.Lock()
	defer ws.clientsMutex.Unlock()
	if conns, ok := ws.clients[client.userID]; ok {
		if _, ok := conns[client]; ok {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(ws.clients, client.userID)
			}
		}
	}
	if client.conn != nil {
		client.conn.Close()
	}
}

func (c *wsClient) writePump() {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

var WebSocketServiceInstance *WebSocketService
