package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/core/gateway"
	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/services"
)

// ReloadFunc runs a load cycle and stores the result in the server's holder
type ReloadFunc func(ctx context.Context) error

// Server exposes the current load cycle as read-only JSON
type Server struct {
	holder          *services.Holder
	reload          ReloadFunc
	table           levels.Table
	excludedDecades []string
	gatherer        prometheus.Gatherer
	logger          *zap.Logger

	mu      sync.RWMutex
	lastErr error
}

// New creates a Server reading state from holder
func New(holder *services.Holder, reload ReloadFunc, table levels.Table, excludedDecades []string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		holder:          holder,
		reload:          reload,
		table:           table,
		excludedDecades: excludedDecades,
		gatherer:        gatherer,
		logger:          logger,
	}
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	s.Register(r)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Register mounts the API endpoints on r
func (s *Server) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Get("/search", s.handleSearch)
		r.Get("/levels", s.handleLevels)
		r.Get("/levels/{index}/members", s.handleLevelMembers)
		r.Get("/members/{roll}", s.handleMember)
		r.Get("/leaderboards/top", s.handleTopDonors)
		r.Get("/leaderboards/decades", s.handleDecades)
		r.Get("/leaderboards/monthly", s.handleMonthly)
		r.Get("/funds", s.handleFunds)
		r.Get("/scholarships", s.handleScholarships)
	})
}

// Reload runs a load cycle, remembering the failure for status and data endpoints
func (s *Server) Reload(ctx context.Context) error {
	err := s.reload(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Reload failed", zap.Error(err))
	}
	return err
}

func (s *Server) lastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// state returns the current state, or writes 503 and returns nil.
// After a transient reload failure the previous state keeps serving; after a
// configuration or access failure it does not.
func (s *Server) state(w http.ResponseWriter) *services.State {
	err := s.lastError()
	st := s.holder.Current()
	if st != nil && (err == nil || gateway.KindOf(err) == gateway.KindTransient) {
		return st
	}

	if err == nil {
		writeError(w, http.StatusServiceUnavailable, "member data is still loading")
		return nil
	}
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error: gateway.Remediation(err),
		Kind:  gateway.KindOf(err).String(),
	})
	return nil
}

type statusResponse struct {
	Ready     bool            `json:"ready"`
	LoadID    string          `json:"loadId,omitempty"`
	LoadedAt  *time.Time      `json:"loadedAt,omitempty"`
	Members   int             `json:"members"`
	Stale     bool            `json:"stale"`
	CacheDate *time.Time      `json:"cacheDate,omitempty"`
	Datasets  map[string]bool `json:"datasets"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"errorKind,omitempty"`
}

func (s *Server) status() statusResponse {
	resp := statusResponse{Datasets: map[string]bool{}}

	if err := s.lastError(); err != nil {
		resp.Error = gateway.Remediation(err)
		resp.ErrorKind = gateway.KindOf(err).String()
	}

	st := s.holder.Current()
	if st == nil {
		return resp
	}

	resp.Ready = true
	resp.LoadID = st.LoadID
	resp.LoadedAt = &st.LoadedAt
	resp.Members = len(st.Members)
	resp.Stale = st.Stale
	resp.CacheDate = &st.CacheDate
	resp.Datasets = map[string]bool{
		gateway.DatasetMembers:      true,
		gateway.DatasetFunds:        st.Funds != nil,
		gateway.DatasetScholarships: st.Scholarships != nil,
		gateway.DatasetDecades:      st.Decades != nil,
		gateway.DatasetMonthly:      st.Monthly != nil,
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: gateway.Remediation(err),
			Kind:  gateway.KindOf(err).String(),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	writeJSON(w, http.StatusOK, st.Index.Query(r.URL.Query().Get("q")))
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	writeJSON(w, http.StatusOK, services.LevelSummaries(st.Members, s.table))
}

type levelMembersResponse struct {
	Level   levels.Level   `json:"level"`
	Range   string         `json:"range"`
	Members []model.Member `json:"members"`
}

func (s *Server) handleLevelMembers(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(s.table) {
		writeError(w, http.StatusNotFound, "unknown level")
		return
	}

	level := s.table[index]
	writeJSON(w, http.StatusOK, levelMembersResponse{
		Level:   level,
		Range:   level.RangeText(),
		Members: services.MembersAtLevel(st.Members, s.table, level),
	})
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}

	m, ok := services.FindByRoll(st.Members, chi.URLParam(r, "roll"))
	if !ok {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, services.Profile(m, s.table))
}

func (s *Server) handleTopDonors(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}

	n := services.DefaultTopDonors
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive number")
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, services.TopDonors(st.Members, s.table, n))
}

func (s *Server) handleDecades(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	if st.Decades == nil {
		writeError(w, http.StatusServiceUnavailable, errUnableToLoad)
		return
	}
	writeJSON(w, http.StatusOK, services.DecadeBattle(st.Decades, s.excludedDecades))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	if st.Monthly == nil {
		writeError(w, http.StatusServiceUnavailable, errUnableToLoad)
		return
	}
	writeJSON(w, http.StatusOK, services.MonthlyLeaderboard(st.Monthly))
}

type fundView struct {
	model.Fund
	Percent float64 `json:"percent"`
}

type fundsResponse struct {
	AsOfDate string     `json:"asOfDate"`
	Funds    []fundView `json:"funds"`
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	if st.Funds == nil {
		writeError(w, http.StatusServiceUnavailable, errUnableToLoad)
		return
	}

	resp := fundsResponse{AsOfDate: st.Funds.AsOfDate, Funds: make([]fundView, len(st.Funds.Funds))}
	for i, f := range st.Funds.Funds {
		resp.Funds[i] = fundView{Fund: f, Percent: f.Percent()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScholarships(w http.ResponseWriter, r *http.Request) {
	st := s.state(w)
	if st == nil {
		return
	}
	if st.Scholarships == nil {
		writeError(w, http.StatusServiceUnavailable, errUnableToLoad)
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeJSON(w, http.StatusOK, st.Scholarships)
		return
	}
	for _, sch := range st.Scholarships {
		if strings.EqualFold(sch.Key, key) {
			writeJSON(w, http.StatusOK, sch)
			return
		}
	}
	writeError(w, http.StatusNotFound, "unknown scholarship")
}
