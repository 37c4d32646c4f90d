package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	roomevents "github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/lobby"
	"github.com/lazharichir/zhajinhua/server/connection"
	"github.com/lazharichir/zhajinhua/server/events"
	"github.com/lazharichir/zhajinhua/server/handlers"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes the rooms of a registry over REST and WebSocket
type Server struct {
	registry   *lobby.Registry
	store      roomevents.EventStore
	connMgr    *connection.Manager
	cmdRouter  *handlers.CommandRouter
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	router     chi.Router
}

// New creates a server for registry. Room history is read from store.
func New(registry *lobby.Registry, store roomevents.EventStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	connMgr := connection.NewManager(logger)
	dispatcher := events.NewDispatcher(registry, connMgr, logger)
	cmdRouter := handlers.NewCommandRouter(registry, connMgr, logger)

	// Register dispatcher as event handler for the registry
	registry.AddEventHandler(dispatcher.HandleEvent)

	s := &Server{
		registry:   registry,
		store:      store,
		connMgr:    connMgr,
		cmdRouter:  cmdRouter,
		dispatcher: dispatcher,
		logger:     logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", s.handleListRooms)
		r.Post("/", s.handleCreateRoom)

		r.Route("/{roomId}", func(r chi.Router) {
			r.Get("/", s.handleGetRoom)
			r.Post("/join", s.handleJoinRoom)
			r.Post("/start", s.handleStartRound)
			r.Post("/action", s.handleAction)
			r.Get("/events", s.handleRoomEvents)
		})
	})

	return r
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the connection manager and serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.connMgr.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := connection.NewClient(uuid.NewString(), conn)
	if !s.connMgr.Add(client) {
		conn.Close()
		return
	}
	s.logger.Info("client connected", slog.String("client", client.ID), slog.String("remote", r.RemoteAddr))

	go s.writePump(client)
	go s.readPump(client)
}

// readPump reads commands from the WebSocket connection
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.connMgr.Remove(client)
		client.Conn.Close()
		s.logger.Info("client disconnected", slog.String("client", client.ID))
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read failed", slog.String("client", client.ID), slog.Any("error", err))
			}
			return
		}

		if err := s.cmdRouter.HandleCommand(client, message); err != nil {
			s.logger.Debug("command failed", slog.String("client", client.ID), slog.Any("error", err))
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (s *Server) writePump(client *connection.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("websocket write failed", slog.String("client", client.ID), slog.Any("error", err))
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RoomSummary is a room in the room list
type RoomSummary struct {
	ID          string     `json:"id"`
	PlayerCount int        `json:"playerCount"`
	Players     []string   `json:"players"`
	Stage       game.Stage `json:"stage"`
	Round       int        `json:"round"`
	Pot         int        `json:"pot"`
}

type playerRequest struct {
	PlayerName string `json:"playerName"`
}

type actionRequest struct {
	PlayerID string `json:"playerId"`
	Action   string `json:"action"`
}

type startRequest struct {
	PlayerID string `json:"playerId"`
}

type seatResponse struct {
	RoomID   string         `json:"roomId"`
	PlayerID string         `json:"playerId"`
	State    game.RoomState `json:"state"`
}

type stateResponse struct {
	State game.RoomState `json:"state"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.registry.Rooms()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		names := make([]string, 0, len(room.Players))
		for _, p := range room.Players {
			names = append(names, p.Name)
		}
		summaries = append(summaries, RoomSummary{
			ID:          room.ID,
			PlayerCount: len(room.Players),
			Players:     names,
			Stage:       room.Stage,
			Round:       room.Round,
			Pot:         room.Pot,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": summaries})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	state, player := s.registry.CreateRoom(req.PlayerName)
	writeJSON(w, http.StatusOK, seatResponse{RoomID: state.ID, PlayerID: player.ID, State: state.ViewFor(player.ID)})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	state, err := s.registry.GetRoom(chi.URLParam(r, "roomId"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state.ViewFor(r.URL.Query().Get("playerId"))})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	state, player, err := s.registry.JoinRoom(chi.URLParam(r, "roomId"), req.PlayerName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, seatResponse{RoomID: state.ID, PlayerID: player.ID, State: state.ViewFor(player.ID)})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}

	state, err := s.registry.StartRound(chi.URLParam(r, "roomId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if state.Stage != game.StageBetting {
		writeError(w, http.StatusBadRequest, handlers.ErrNotEnoughPlayers)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state.ViewFor(req.PlayerID)})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	roomID := chi.URLParam(r, "roomId")
	if _, err := s.registry.GetRoom(roomID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, handlers.ErrMissingParameters)
		return
	}
	action, err := game.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, accepted, err := s.registry.TryAct(roomID, req.PlayerID, action)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !accepted {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": handlers.ErrActionRejected.Error(),
			"state": state.ViewFor(req.PlayerID),
		})
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state.ViewFor(req.PlayerID)})
}

func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if _, err := s.registry.GetRoom(roomID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	history, err := s.store.LoadEvents(roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	envelopes := make([]events.EventEnvelope, 0, len(history))
	for _, event := range history {
		payload, err := json.Marshal(event)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		envelopes = append(envelopes, events.EventEnvelope{Name: event.EventName(), Payload: payload})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": envelopes})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrRoomFull), errors.Is(err, game.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body, answering 400 when it is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
