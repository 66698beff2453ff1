// Package server hosts one single-player match over HTTP and streams its
// events to websocket subscribers.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"battleship/internal/app"
	"battleship/internal/codec"
	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/zk"
)

const maxBody = 1 << 20

type Config struct {
	KeysDir           string
	Proofs            bool // commit each layout and serve strike proofs
	PresentationDelay time.Duration
	Defaults          match.Options
}

type Server struct {
	cfg      Config
	VKPath   string
	log      zerolog.Logger
	gridOpts []game.GridOption
	hub      *hub

	// mu guards the current match; match.Match is not safe for
	// concurrent use.
	mu     sync.Mutex
	id     string
	match  *match.Match
	opts   match.Options
	commit *app.Commitment
	prover *zk.Prover
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

// WithGridOptions is passed to every match, e.g. game.WithRand for
// reproducible layouts.
func WithGridOptions(opts ...game.GridOption) Option {
	return func(s *Server) { s.gridOpts = append(s.gridOpts, opts...) }
}

func New(cfg Config, opts ...Option) *Server {
	if cfg.PresentationDelay <= 0 {
		cfg.PresentationDelay = match.DefaultPresentationDelay
	}
	if cfg.Defaults.Size == 0 && len(cfg.Defaults.Ships) == 0 {
		cfg.Defaults = match.DefaultOptions()
	}
	s := &Server{
		cfg:    cfg,
		VKPath: zk.VKPath(cfg.KeysDir),
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.hub = newHub(s.log)
	return s
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/match", s.handleMatch)
	mux.HandleFunc("/v1/strike", s.handleStrike)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/proof", s.handleProof)
	mux.HandleFunc("/v1/verify", s.handleVerify)
	mux.HandleFunc("/v1/statistics/close", s.handleCloseStatistics)
	mux.HandleFunc("/v1/events", s.handleEvents)
}

// Close disconnects every event subscriber.
func (s *Server) Close() { s.hub.close() }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, codec.ErrorResponse{Error: err.Error()})
}

// allow answers preflight and wrong-method requests; it reports whether
// the handler should continue.
func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// === Match lifecycle ===

// StartMatch replaces the current match. data is the lenient options JSON;
// empty data uses the configured defaults.
func (s *Server) StartMatch(data []byte) (codec.MatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(bytes.TrimSpace(data)) == 0 {
		data = nil
	}
	return s.startLocked(data, s.cfg.Defaults)
}

func (s *Server) startLocked(data []byte, opts match.Options) (codec.MatchResponse, error) {
	id := uuid.NewString()
	log := s.log.With().Str("match_id", id).Logger()
	gridOpts := append([]game.GridOption{game.WithCellWatcher(traceCell(log))}, s.gridOpts...)
	mopts := []match.Option{
		match.WithLogger(log),
		match.WithPresentationDelay(s.cfg.PresentationDelay),
		match.WithGridOptions(gridOpts...),
		match.WithStatisticsClosed(s.restartLocked),
	}
	obs := broadcaster{hub: s.hub, matchID: id}

	var (
		m   *match.Match
		err error
	)
	if data != nil {
		m, err = match.NewFromJSON(data, obs, mopts...)
	} else {
		m, err = match.New(opts, obs, mopts...)
	}
	if err != nil {
		return codec.MatchResponse{}, err
	}
	if err := m.Start(); err != nil {
		return codec.MatchResponse{}, err
	}

	var commit *app.Commitment
	if s.cfg.Proofs {
		if commit, err = app.Commit(m.Grid().Layout(), s.cfg.KeysDir, log); err != nil {
			return codec.MatchResponse{}, err
		}
		if s.prover == nil {
			if s.prover, err = zk.NewProver(s.cfg.KeysDir); err != nil {
				return codec.MatchResponse{}, err
			}
		}
	}

	s.id, s.match, s.opts, s.commit = id, m, m.Options(), commit
	log.Info().
		Int("size", m.Grid().Size()).
		Int("ships", len(m.Fleet().Ships())).
		Int("ship_cells", m.Catalog().TotalCells(m.Options().Ships)).
		Int("warnings", len(m.Warnings())).
		Msg("match started")
	s.hub.broadcast(codec.Event{Type: codec.EventMatchStarted, MatchID: id})
	return s.matchResponseLocked(), nil
}

// restartLocked is the statistics-closed hook: it runs inside
// CloseStatistics with mu held.
func (s *Server) restartLocked() {
	if _, err := s.startLocked(nil, s.opts); err != nil {
		s.log.Error().Err(err).Msg("restart match")
	}
}

// traceCell logs every cell change at trace level.
func traceCell(log zerolog.Logger) func(*game.Cell) {
	return func(c *game.Cell) {
		log.Trace().
			Int("row", c.Row).
			Int("col", c.Col).
			Bool("free", c.Free()).
			Stringer("status", c.Status()).
			Msg("cell changed")
	}
}

func (s *Server) matchResponseLocked() codec.MatchResponse {
	m := s.match
	resp := codec.MatchResponse{
		ID:        s.id,
		State:     m.State(),
		Size:      m.Grid().Size(),
		Ships:     len(m.Fleet().Ships()),
		ShipCells: m.Catalog().TotalCells(m.Options().Ships),
	}
	for _, w := range m.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	if s.commit != nil {
		resp.Root = s.commit.RootHex()
	}
	return resp
}

var errNoMatch = errors.New("no match started")

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.StartMatch(data)
	if err != nil {
		s.log.Error().Err(err).Msg("start match")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// === Strike / Status ===

func (s *Server) handleStrike(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req codec.StrikeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, codec.ErrorResponse{Error: "bad json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		writeError(w, http.StatusConflict, errNoMatch)
		return
	}
	out, err := s.match.Strike(req.Row, req.Col)
	switch {
	case errors.Is(err, game.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, match.ErrNotActive):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.log.Error().Err(err).Str("match_id", s.id).Int("row", req.Row).Int("col", req.Col).Msg("strike")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.StrikeResponse{
		Outcome: out,
		State:   s.match.State(),
		Shots:   s.match.Shots(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		writeError(w, http.StatusNotFound, errNoMatch)
		return
	}
	resp := codec.StatusResponse{
		ID:    s.id,
		State: s.match.State(),
		Grid:   s.match.View(),
		Afloat: s.match.Fleet().AliveCount(),
		Shots:  s.match.Shots(),
	}
	if sum, ok := s.match.Summary(); ok {
		resp.Summary = &sum
	}
	if s.commit != nil {
		resp.Root = s.commit.RootHex()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseStatistics(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		writeError(w, http.StatusConflict, errNoMatch)
		return
	}
	if err := s.match.CloseStatistics(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.matchResponseLocked())
}

// === Proof / Verify ===

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	row, rerr := strconv.Atoi(r.URL.Query().Get("row"))
	col, cerr := strconv.Atoi(r.URL.Query().Get("col"))
	if rerr != nil || cerr != nil {
		writeJSON(w, http.StatusBadRequest, codec.ErrorResponse{Error: "row and col query parameters are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		writeError(w, http.StatusConflict, errNoMatch)
		return
	}
	if s.commit == nil {
		writeJSON(w, http.StatusNotFound, codec.ErrorResponse{Error: "proofs are disabled"})
		return
	}
	cell := s.match.Grid().Cell(row, col)
	if cell == nil {
		writeError(w, http.StatusBadRequest, game.ErrOutOfBounds)
		return
	}
	// Only resolved cells are proven; anything else would leak the layout.
	if cell.Status() == game.Untouched {
		writeJSON(w, http.StatusConflict, codec.ErrorResponse{Error: "cell has not been struck"})
		return
	}

	start := time.Now()
	res, err := s.commit.Shoot(s.prover, row, col)
	if err != nil {
		s.log.Error().Err(err).Str("match_id", s.id).Msg("prove strike")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Debug().Int("row", row).Int("col", col).Dur("took", time.Since(start)).Msg("strike proven")
	writeJSON(w, http.StatusOK, codec.ProofResponse{
		Root:    s.commit.RootHex(),
		Size:    s.match.Grid().Size(),
		Bit:     res.Bit,
		Payload: res.Payload,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req codec.VerifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, codec.ErrorResponse{Error: "bad json: " + err.Error()})
		return
	}
	root, err := codec.ParseHex(req.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	size := req.Size
	if size == 0 {
		s.mu.Lock()
		if s.match != nil {
			size = s.match.Grid().Size()
		}
		s.mu.Unlock()
	}
	if size < game.MinSize || size > game.MaxSize {
		writeJSON(w, http.StatusBadRequest, codec.ErrorResponse{Error: "grid size unknown or out of range"})
		return
	}
	if req.Row < 0 || req.Row >= size || req.Col < 0 || req.Col >= size {
		writeError(w, http.StatusBadRequest, game.ErrOutOfBounds)
		return
	}

	// The verifier's root is authoritative; ignore any root in the payload.
	req.Payload.Public.Root = nil
	res, err := app.VerifyWithRoot(s.VKPath, root, req.Row*size+req.Col, req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.VerifyResponse{Valid: res.Valid, Hit: res.Hit})
}

// === Events ===

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	id := s.id
	s.mu.Unlock()
	s.hub.serve(w, r, codec.Event{Type: codec.EventSubscribed, MatchID: id})
}

// === CORS ===

func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// In dev we allow any origin. For production, set this to the specific origin(s).
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
