package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "ucplatform-backend/pkg/errors"
	"ucplatform-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // SDP blobs are a few KB, 64KB is generous
)

// Message types accepted from clients
const (
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"
	TypeAnswerCall   = "answer_call"
	TypeEndCall      = "end_call"
	TypeUpdateStatus = "update_status"
	TypeHeartbeat    = "heartbeat"
)

// Dispatcher handles inbound signaling and session-control messages.
// Implementations return the fields to merge into the success reply.
type Dispatcher interface {
	Offer(ctx context.Context, senderID, calleeID uuid.UUID, callType string, payload json.RawMessage) (map[string]interface{}, error)
	Answer(ctx context.Context, senderID, callID uuid.UUID, payload json.RawMessage) (map[string]interface{}, error)
	ICECandidate(ctx context.Context, senderID, callID, targetID uuid.UUID, payload json.RawMessage) (map[string]interface{}, error)
	AnswerCall(ctx context.Context, senderID, callID uuid.UUID) (map[string]interface{}, error)
	EndCall(ctx context.Context, senderID, callID uuid.UUID) (map[string]interface{}, error)
	UpdateStatus(ctx context.Context, senderID uuid.UUID, status string) error
	Heartbeat(ctx context.Context, senderID uuid.UUID) error
}

// inboundMessage is the wire envelope received from clients
type inboundMessage struct {
	Type     string          `json:"type"`
	CallID   string          `json:"call_id,omitempty"`
	CalleeID string          `json:"callee_id,omitempty"`
	CallType string          `json:"call_type,omitempty"`
	Target   string          `json:"target,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Status   string          `json:"status,omitempty"`
}

// Client is one WebSocket session belonging to a user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		ctx:    ctx,
		cancel: cancel,
	}
}

// readPump reads inbound messages and dispatches them. One goroutine per
// session; exits on connection error.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		<-c.hub.semaphore
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket connection closed",
					zap.String("user_id", c.userID.String()),
					zap.Error(err))
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError(apperrors.ValidationError("malformed message"))
			continue
		}

		c.dispatch(&msg)
	}
}

// dispatch routes one inbound message to the hub's dispatcher and writes
// the reply. A dispatch failure never tears down the session.
func (c *Client) dispatch(msg *inboundMessage) {
	var (
		result map[string]interface{}
		err    error
	)

	switch msg.Type {
	case TypeOffer:
		var calleeID uuid.UUID
		calleeID, err = uuid.Parse(msg.CalleeID)
		if err != nil {
			err = apperrors.ValidationError("invalid callee_id")
			break
		}
		result, err = c.hub.dispatcher.Offer(c.ctx, c.userID, calleeID, msg.CallType, msg.Payload)

	case TypeAnswer:
		var callID uuid.UUID
		callID, err = c.parseCallID(msg)
		if err != nil {
			break
		}
		result, err = c.hub.dispatcher.Answer(c.ctx, c.userID, callID, msg.Payload)

	case TypeICECandidate:
		var callID, targetID uuid.UUID
		callID, err = c.parseCallID(msg)
		if err != nil {
			break
		}
		targetID, err = uuid.Parse(msg.Target)
		if err != nil {
			err = apperrors.ValidationError("invalid target")
			break
		}
		result, err = c.hub.dispatcher.ICECandidate(c.ctx, c.userID, callID, targetID, msg.Payload)

	case TypeAnswerCall:
		var callID uuid.UUID
		callID, err = c.parseCallID(msg)
		if err != nil {
			break
		}
		result, err = c.hub.dispatcher.AnswerCall(c.ctx, c.userID, callID)

	case TypeEndCall:
		var callID uuid.UUID
		callID, err = c.parseCallID(msg)
		if err != nil {
			break
		}
		result, err = c.hub.dispatcher.EndCall(c.ctx, c.userID, callID)

	case TypeUpdateStatus:
		err = c.hub.dispatcher.UpdateStatus(c.ctx, c.userID, msg.Status)

	case TypeHeartbeat:
		err = c.hub.dispatcher.Heartbeat(c.ctx, c.userID)
		if err == nil {
			return // Heartbeats are not acknowledged
		}

	default:
		err = apperrors.ValidationError("unknown message type")
	}

	if err != nil {
		c.replyError(err)
		return
	}

	reply := map[string]interface{}{"success": true}
	for k, v := range result {
		reply[k] = v
	}
	c.reply(reply)
}

func (c *Client) parseCallID(msg *inboundMessage) (uuid.UUID, error) {
	callID, err := uuid.Parse(msg.CallID)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid call_id")
	}
	return callID, nil
}

func (c *Client) reply(v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) replyError(err error) {
	appErr := apperrors.GetAppError(err)
	c.reply(map[string]interface{}{"error": appErr.Message})
}

// writePump writes outbound messages and keeps the connection alive with
// periodic pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
