package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Inline audio_data is base64 WAV.
	maxMessageSize = 16 << 20

	// Pending actions per client
	actionQueueSize = 16

	defaultActionTimeout = 2 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubConfig tunes per-connection behaviour
type HubConfig struct {
	// ActionTimeout bounds a single action, including a full answer analysis
	ActionTimeout time.Duration
}

// Hub maintains the set of active interview connections.
type Hub struct {
	// Registered clients by session id.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	interviews *usecase.InterviewService
	tts        repositories.TextToSpeech
	fetcher    AudioFetcher
	validator  *MessageValidator
	config     HubConfig

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. A nil tts disables spoken feedback.
func NewHub(
	interviews *usecase.InterviewService,
	tts repositories.TextToSpeech,
	fetcher AudioFetcher,
	config HubConfig,
	logger *zap.Logger,
) *Hub {
	if config.ActionTimeout <= 0 {
		config.ActionTimeout = defaultActionTimeout
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		interviews: interviews,
		tts:        tts,
		fetcher:    fetcher,
		validator:  NewMessageValidator(),
		config:     config,
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			// A reconnect replaces the previous connection of the session
			if previous, ok := h.clients[client.sessionID]; ok {
				previous.close()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.sessionID]; ok && current == client {
				delete(h.clients, client.sessionID)
			}
			h.mu.Unlock()
			client.close()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// Connected reports whether a session currently has an open connection
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage, websocket.BinaryMessage or websocket.CloseMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Parsed actions, processed one at a time in arrival order.
	actions chan domain.ActionMessage

	// Closed once the connection is done; never closed by senders.
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// Interview session bound to this connection
	sessionID string

	logger *zap.Logger
}

// HandleWebSocketWithAuth handles websocket requests for an authenticated interview session
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, sessionID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(hub, conn, sessionID, logger)
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.actionPump()
	go client.readPump()

	return nil
}

func newClient(hub *Hub, conn *websocket.Conn, sessionID string, logger *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		actions:   make(chan domain.ActionMessage, actionQueueSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		sessionID: sessionID,
		logger:    logger.With(zap.String("sessionID", sessionID)),
	}
}

// close stops the pumps and cancels running actions; safe to call repeatedly
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// enqueue hands a frame to the write pump. It reports false once the connection is gone.
func (c *Client) enqueue(data WriteData) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// sendMessage encodes and enqueues a server message
func (c *Client) sendMessage(msg domain.ServerMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	return c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(err error) {
	msg := CreateErrorMessage(c.sessionID, err)
	c.logger.Warn("Action failed", zap.String("errorCode", msg.ErrorCode), zap.Error(err))
	c.sendMessage(msg)
}

// readPump pumps messages from the websocket connection to the action queue.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.done:
		}
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unsupported message type", zap.Int("type", messageType))
			c.sendError(ErrInvalidMessage)
			continue
		}

		action, err := c.hub.validator.ValidateMessage(message)
		if err != nil {
			c.sendError(err)
			continue
		}

		select {
		case c.actions <- action:
		case <-c.done:
			return
		}
	}
}

// writePump pumps messages from the client to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}
			if message.Type == websocket.CloseMessage {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// actionPump runs queued actions sequentially so replies keep request order
func (c *Client) actionPump() {
	for {
		select {
		case action := <-c.actions:
			if stop := c.handleAction(action); stop {
				return
			}
		case <-c.done:
			return
		}
	}
}

// handleAction dispatches one action and reports whether the connection should end
func (c *Client) handleAction(msg domain.ActionMessage) bool {
	ctx, cancel := context.WithTimeout(c.ctx, c.hub.config.ActionTimeout)
	defer cancel()

	c.logger.Info("Handling action", zap.String("action", msg.Action))

	switch msg.Action {
	case domain.ActionAddQuestionAnswer:
		c.handleAddQuestionAnswer(ctx, msg)
	case domain.ActionRecordAnswer:
		c.handleRecordAnswer(ctx, msg)
	case domain.ActionAnalyze:
		c.handleAnalyze(ctx)
	case domain.ActionSetDifficulty:
		c.handleSetDifficulty(ctx, msg)
	case domain.ActionNextQuestion:
		c.handleNextQuestion(ctx)
	case domain.ActionStopInterview:
		return c.handleStopInterview(ctx)
	default:
		c.sendError(ErrUnknownAction)
	}
	return false
}

func (c *Client) handleAddQuestionAnswer(ctx context.Context, msg domain.ActionMessage) {
	count, err := c.hub.interviews.AddQuestionAnswer(ctx, c.sessionID, msg.Question, msg.Answer)
	if err != nil {
		c.sendError(err)
		return
	}

	response := newServerMessage(domain.MessageTypeAnswerAdded, c.sessionID)
	response.Count = count
	c.sendMessage(response)
}

func (c *Client) handleSetDifficulty(ctx context.Context, msg domain.ActionMessage) {
	difficulty, err := c.hub.interviews.SetDifficulty(ctx, c.sessionID, msg.Difficulty)
	if err != nil {
		c.sendError(err)
		return
	}

	response := newServerMessage(domain.MessageTypeDifficultySet, c.sessionID)
	response.Difficulty = string(difficulty)
	c.sendMessage(response)
}

func (c *Client) handleNextQuestion(ctx context.Context) {
	question, err := c.hub.interviews.NextQuestion(ctx, c.sessionID)
	if err != nil {
		c.sendError(err)
		return
	}

	response := newServerMessage(domain.MessageTypeQuestion, c.sessionID)
	response.Question = question
	c.sendMessage(response)
}

func (c *Client) handleRecordAnswer(ctx context.Context, msg domain.ActionMessage) {
	wav, err := c.loadAudio(ctx, msg)
	if err != nil {
		c.sendError(err)
		return
	}

	report, err := c.hub.interviews.RecordAnswer(ctx, c.sessionID, msg.Question, wav)
	if err != nil {
		c.sendError(err)
		return
	}

	encoded, err := json.Marshal(report)
	if err != nil {
		c.sendError(err)
		return
	}

	response := newServerMessage(domain.MessageTypeAnswerReport, c.sessionID)
	response.Report = encoded
	c.sendMessage(response)
}

func (c *Client) loadAudio(ctx context.Context, msg domain.ActionMessage) ([]byte, error) {
	if msg.AudioData != "" {
		return decodeAudioData(msg.AudioData)
	}
	return c.hub.fetcher.Fetch(ctx, msg.AudioURL)
}

func (c *Client) handleAnalyze(ctx context.Context) {
	feedback, err := c.hub.interviews.Feedback(ctx, c.sessionID)
	if err != nil {
		c.sendError(err)
		return
	}

	response := newServerMessage(domain.MessageTypeAnalysis, c.sessionID)
	response.Feedback = feedback
	if !c.sendMessage(response) {
		return
	}

	if c.hub.tts != nil {
		c.speak(ctx, feedback)
	}
}

// speak streams the feedback as binary audio frames between speaking_start and speaking_end
func (c *Client) speak(ctx context.Context, text string) {
	audioDataChan, err := c.hub.tts.ConvertTextToSpeech(ctx, text)
	if err != nil {
		c.logger.Error("Failed to convert text to speech", zap.Error(err))
		return
	}

	if !c.sendMessage(newServerMessage(domain.MessageTypeSpeakingStart, c.sessionID)) {
		return
	}

	chunks := 0
	for audioData := range audioDataChan {
		if !c.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: audioData}) {
			return
		}
		chunks++
	}

	c.sendMessage(newServerMessage(domain.MessageTypeSpeakingEnd, c.sessionID))
	c.logger.Info("Feedback spoken", zap.Int("chunks", chunks))
}

func (c *Client) handleStopInterview(ctx context.Context) bool {
	if err := c.hub.interviews.Stop(ctx, c.sessionID); err != nil {
		c.sendError(err)
		return false
	}

	c.sendMessage(newServerMessage(domain.MessageTypeInterviewStopped, c.sessionID))
	c.enqueue(WriteData{
		Type:    websocket.CloseMessage,
		Payload: websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview stopped"),
	})
	return true
}
