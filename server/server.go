package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/screener"
	"github.com/xhad/screener/pkg/store"
)

// Message types.
const (
	TypeScreen    = "screen"
	TypeSampleJob = "sample_job"
	TypeSimilar   = "similar"
	TypeProgress  = "progress"
	TypeResult    = "result"
	TypeFailure   = "failure"
	TypeStatus    = "status"
	TypeDone      = "done"
	TypeError     = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Upload is a resume sent by the client. Data is base64 in JSON.
type Upload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Request is a message from the client. Scores, Limit and RunID are used by
// similar requests.
type Request struct {
	Type           string              `json:"type"`
	JobDescription string              `json:"job_description,omitempty"`
	Resumes        []Upload            `json:"resumes,omitempty"`
	Scores         *scorer.ScoreRecord `json:"scores,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	RunID          string              `json:"run_id,omitempty"`
}

// Message is a message to the client.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Progress is the payload of a progress message.
type Progress struct {
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Filename string `json:"filename"`
}

type Config struct {
	// Screener is the template for the screener built for each request.
	Screener screener.ScreenerConfig
	// Store, when set, receives every completed run.
	Store  *store.Store
	Logger *zerolog.Logger
	// MaxMessageBytes caps inbound messages; defaults to 32 MiB.
	MaxMessageBytes int64
}

type WSServer struct {
	config Config
	logger zerolog.Logger
}

func NewWSServer(config Config) *WSServer {
	if config.MaxMessageBytes == 0 {
		config.MaxMessageBytes = 32 << 20
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "server").Logger()
	}
	return &WSServer{config: config, logger: l}
}

// Handler serves /ws and /health.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting websocket server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
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
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxMessageBytes)

	log := s.logger.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("client connected")

	// Requests on one connection are handled in order.
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("error reading message")
			}
			return
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("invalid message: %v", err)})
			continue
		}

		s.handleRequest(r.Context(), conn, req)
	}
}

func (s *WSServer) handleRequest(ctx context.Context, conn *websocket.Conn, req Request) {
	switch req.Type {
	case TypeSampleJob:
		s.sendMessage(conn, Message{Type: TypeSampleJob, Content: strings.TrimSpace(screener.SampleJobDescription)})
	case TypeScreen:
		s.handleScreen(ctx, conn, req)
	case TypeSimilar:
		s.handleSimilar(ctx, conn, req)
	default:
		s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("unknown message type %q", req.Type)})
	}
}

func (s *WSServer) handleScreen(ctx context.Context, conn *websocket.Conn, req Request) {
	if strings.TrimSpace(req.JobDescription) == "" {
		s.sendMessage(conn, Message{Type: TypeError, Content: "job description is required"})
		return
	}
	if len(req.Resumes) == 0 {
		s.sendMessage(conn, Message{Type: TypeError, Content: "no resumes uploaded"})
		return
	}

	resumes := make([]models.Resume, len(req.Resumes))
	for i, u := range req.Resumes {
		resumes[i] = models.Resume{Filename: u.Filename, Source: "upload", Data: u.Data}
	}

	cfg := s.config.Screener
	cfg.OnProgress = func(done, total int, filename string) {
		s.sendMessage(conn, Message{Type: TypeProgress, Data: Progress{Done: done, Total: total, Filename: filename}})
	}
	cfg.OnResult = func(r models.Result) {
		s.sendMessage(conn, Message{Type: TypeResult, Content: r.Filename, Data: r})
	}
	cfg.OnFailure = func(f models.Failure) {
		s.sendMessage(conn, Message{Type: TypeFailure, Content: f.Error(), Data: f})
	}

	report, err := screener.NewWithConfig(cfg).Screen(ctx, req.JobDescription, resumes)
	if err != nil {
		s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("screening interrupted: %v", err)})
		return
	}

	if s.config.Store != nil {
		if err := s.config.Store.SaveRun(ctx, report.RunID, report.JobDescription, report.Results); err != nil {
			s.logger.Error().Err(err).Str("run_id", report.RunID.String()).Msg("failed to save run")
			s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("failed to save run: %v", err)})
		} else {
			s.sendMessage(conn, Message{Type: TypeStatus, Content: "run saved"})
		}
	}

	s.sendMessage(conn, Message{Type: TypeDone, Content: report.RunID.String(), Data: report})
}

// handleSimilar looks up stored results whose score profile is close to the
// given scores, leaving out the run named in the request.
func (s *WSServer) handleSimilar(ctx context.Context, conn *websocket.Conn, req Request) {
	if s.config.Store == nil {
		s.sendMessage(conn, Message{Type: TypeError, Content: "no result store configured"})
		return
	}
	if req.Scores == nil {
		s.sendMessage(conn, Message{Type: TypeError, Content: "scores are required"})
		return
	}
	exclude := uuid.Nil
	if req.RunID != "" {
		id, err := uuid.Parse(req.RunID)
		if err != nil {
			s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("invalid run id: %v", err)})
			return
		}
		exclude = id
	}

	stored, err := s.config.Store.SimilarProfiles(ctx, store.ProfileOf(*req.Scores), req.Limit, exclude)
	if err != nil {
		s.logger.Error().Err(err).Msg("similarity search failed")
		s.sendMessage(conn, Message{Type: TypeError, Content: fmt.Sprintf("similarity search failed: %v", err)})
		return
	}
	if stored == nil {
		stored = []store.StoredResult{}
	}
	s.sendMessage(conn, Message{Type: TypeSimilar, Data: stored})
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn().Err(err).Str("type", msg.Type).Msg("error sending message")
	}
}
