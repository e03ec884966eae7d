package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/cardgrid/memscramble/pkg/log"
	"github.com/cardgrid/memscramble/pkg/lobby"
	"github.com/gorilla/mux"
)

// HTTPServerOptions configures an HTTPServer.
type HTTPServerOptions struct {
	Addr   string
	Lobby  *lobby.Lobby
	Logger *log.Logger

	// WS, if non-nil, is mounted at /ws alongside the control plane.
	WS http.Handler
}

// HTTPServer is the gorilla/mux-routed control plane for room lifecycle:
// POST /rooms creates a room, GET /rooms lists them, GET /rooms/{code}
// returns metadata for one room without touching its Board's cell
// state.
type HTTPServer struct {
	opts HTTPServerOptions
	srv  *http.Server
}

// NewHTTPServer constructs an HTTPServer from opts.
func NewHTTPServer(opts HTTPServerOptions) *HTTPServer {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(os.Stderr, log.LevelInfo)
	}
	return &HTTPServer{opts: opts}
}

type roomSummary struct {
	Code        string `json:"code"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	PlayerCount int    `json:"playerCount"`
}

func summarize(r *lobby.Room) roomSummary {
	return roomSummary{
		Code:        r.Code,
		Rows:        r.Board.NumRows(),
		Cols:        r.Board.NumCols(),
		PlayerCount: r.Board.PlayerCount(),
	}
}

func (s *HTTPServer) createRoom(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	room, err := s.opts.Lobby.Create(r.Context(), r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(room))
}

func (s *HTTPServer) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.opts.Lobby.List()
	out := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, summarize(room))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) getRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, ok := s.opts.Lobby.Get(code)
	if !ok {
		writeJSONError(w, http.StatusNotFound, &lobby.ErrRoomNotFound{Code: code})
		return
	}
	writeJSON(w, http.StatusOK, summarize(room))
}

func (s *HTTPServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/rooms", s.createRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms", s.listRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.getRoom).Methods(http.MethodGet)
	if s.opts.WS != nil {
		r.Handle("/ws", s.opts.WS)
	}
	return r
}

// Start serves the control plane until ctx is canceled.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.opts.Addr, Handler: s.router()}
	go func() {
		<-ctx.Done()
		s.srv.Close()
	}()
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
