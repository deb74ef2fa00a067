package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"KabuScout/internal/model"
	"KabuScout/internal/recorder"
	"KabuScout/internal/scanner"
	"KabuScout/internal/watchlist"
)

//go:embed web/index.html
var indexHTML []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server exposes the scan UI and its JSON/WebSocket API.
type Server struct {
	Scanner   *scanner.Scanner
	Watchlist *watchlist.Watchlist
	Recorder  recorder.Recorder

	// ProgressEvery throttles WebSocket progress messages; 0 sends all.
	ProgressEvery time.Duration

	validate *validator.Validate
}

// New creates a Server.
func New(sc *scanner.Scanner, wl *watchlist.Watchlist, rec recorder.Recorder) *Server {
	return &Server{
		Scanner:       sc,
		Watchlist:     wl,
		Recorder:      rec,
		ProgressEvery: 100 * time.Millisecond,
		validate:      validator.New(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/sectors", s.handleSectors)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /ws/scan", s.handleScanWS)
	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

type sectorView struct {
	Name    string         `json:"name"`
	Tickers []model.Ticker `json:"tickers"`
}

func (s *Server) handleSectors(w http.ResponseWriter, _ *http.Request) {
	secs := s.Watchlist.SectorTickers()
	out := make([]sectorView, len(secs))
	for i, sec := range secs {
		out[i] = sectorView{Name: sec.Name, Tickers: sec.Tickers}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	scans, err := s.Recorder.RecentScans(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if scans == nil {
		scans = []recorder.ScanSummary{}
	}
	writeJSON(w, http.StatusOK, scans)
}

// prepare validates a request and resolves its ticker list: explicit
// symbols first, then selected sectors, then the whole watchlist.
func (s *Server) prepare(req *model.ScanRequest) ([]model.Ticker, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(req.Symbols) > 0 {
		symbols := watchlist.ParseSymbols(strings.Join(req.Symbols, " "))
		if len(symbols) > 0 {
			return s.Watchlist.Resolve(symbols), nil
		}
	}
	tickers := s.Watchlist.Select(req.Sectors)
	if len(tickers) == 0 {
		tickers = watchlist.Backup()
	}
	return tickers, nil
}

func (s *Server) record(report *model.ScanReport) {
	if err := s.Recorder.RecordScan(report); err != nil {
		log.Error().Err(err).Str("scan_id", report.ID).Msg("record scan")
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	tickers, err := s.prepare(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := s.Scanner.Scan(r.Context(), req, tickers, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	s.record(report)
	writeJSON(w, http.StatusOK, report)
}

// wsMessage is one server-to-client WebSocket frame.
type wsMessage struct {
	Type   string            `json:"type"` // progress | result | error
	Done   int               `json:"done,omitempty"`
	Total  int               `json:"total,omitempty"`
	Symbol string            `json:"symbol,omitempty"`
	Report *model.ScanReport `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// handleScanWS reads one ScanRequest, streams progress while scanning and
// finishes with a result or error frame. Closing the socket cancels the scan.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	var req model.ScanRequest
	if err := conn.ReadJSON(&req); err != nil {
		log.Debug().Err(err).Msg("websocket read request")
		return
	}
	tickers, err := s.prepare(&req)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Any read error means the client went away.
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	throttle := rate.NewLimiter(rate.Inf, 0)
	if s.ProgressEvery > 0 {
		throttle = rate.NewLimiter(rate.Every(s.ProgressEvery), 1)
	}
	progress := func(done, total int, symbol string) {
		if done < total && !throttle.Allow() {
			return
		}
		if err := conn.WriteJSON(wsMessage{Type: "progress", Done: done, Total: total, Symbol: symbol}); err != nil {
			cancel()
		}
	}

	report, err := s.Scanner.Scan(ctx, req, tickers, progress)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	s.record(report)
	if err := conn.WriteJSON(wsMessage{Type: "result", Report: report}); err != nil {
		log.Warn().Err(err).Msg("websocket write result")
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
