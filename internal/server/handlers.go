package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/choropleth/pkg/buildinfo"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/pipeline"
	"github.com/matzehuels/choropleth/pkg/scale"
	"github.com/matzehuels/choropleth/pkg/session"
)

var validate = validator.New()

// optionsQuery holds the per-request overrides of the configured options.
type optionsQuery struct {
	Classes int    `validate:"omitempty,min=1,max=20"`
	Palette string `validate:"omitempty,alpha"`
}

// eventRequest is a pointer event posted to a hover session.
type eventRequest struct {
	Type     string            `json:"type" validate:"required,oneof=enter move leave"`
	Target   interact.Target   `json:"target"`
	Position interact.Position `json:"position"`
}

// tooltipResponse is the hover state of a session.
type tooltipResponse struct {
	Session string             `json:"session"`
	Visible bool               `json:"visible"`
	Target  interact.Target    `json:"target"`
	Text    string             `json:"text,omitempty"`
	Anchor  *interact.Position `json:"anchor,omitempty"`
}

type legendResponse struct {
	Classes  int                 `json:"classes"`
	Palette  string              `json:"palette"`
	Fallback string              `json:"fallback"`
	Entries  []scale.LegendEntry `json:"entries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version,
		"dataset":  s.cfg.Dataset.Version,
		"features": s.cfg.Features.Version,
	})
}

func (s *Server) handleDescriptors(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, info, err := s.cfg.Runner.ExportWithCacheInfo(r.Context(), s.cfg.Dataset, s.cfg.Features, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheHeader(info.DocumentHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.cfg.Runner.Derive(r.Context(), s.cfg.Dataset, s.cfg.Features, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := res.Scale.Legend()
	if entries == nil {
		entries = []scale.LegendEntry{}
	}
	writeJSON(w, http.StatusOK, legendResponse{
		Classes:  res.Options.Classes,
		Palette:  res.Options.Palette,
		Fallback: string(res.Options.Fallback),
		Entries:  entries,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.cfg.SessionTTL)
	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("session opened", "session", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         sess.ID,
		"expires_at": sess.ExpiresAt,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidEvent, err, "decode event"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidEvent, err, "invalid event"))
		return
	}
	if req.Type != "leave" && req.Target.IsNone() {
		writeError(w, errors.New(errors.ErrCodeInvalidEvent, "%s event needs a target", req.Type))
		return
	}

	res, err := s.cfg.Runner.Derive(r.Context(), s.cfg.Dataset, s.cfg.Features, s.cfg.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	m := interact.NewManager(res.Labels, interact.Options{Context: r.Context()})
	m.Restore(sess.State)
	switch req.Type {
	case "enter":
		m.Enter(req.Target, req.Position)
	case "move":
		m.Move(req.Target, req.Position)
	case "leave":
		m.Leave(req.Target, req.Position)
	}
	sess.State = m.State()

	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tooltipFor(sess.ID, m))
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Runner.Derive(r.Context(), s.cfg.Dataset, s.cfg.Features, s.cfg.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m := interact.NewManager(res.Labels, interact.Options{Context: r.Context()})
	m.Restore(sess.State)
	writeJSON(w, http.StatusOK, tooltipFor(sess.ID, m))
}

func (s *Server) loadSession(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "id")
	sess, err := s.cfg.Sessions.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found or expired", id)
	}
	return sess, nil
}

// requestOptions applies ?classes= and ?palette= to the configured options.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	q := optionsQuery{Palette: r.URL.Query().Get("palette")}
	if v := r.URL.Query().Get("classes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "classes must be an integer, got %q", v)
		}
		q.Classes = n
	}
	if err := validate.Struct(q); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid query")
	}

	opts := s.cfg.Options
	if q.Classes != 0 {
		opts.Classes = q.Classes
	}
	if q.Palette != "" {
		opts.Palette = q.Palette
	}
	return resetValidation(opts), nil
}

// resetValidation returns a copy of opts that will be validated again.
func resetValidation(opts pipeline.Options) pipeline.Options {
	return pipeline.Options{
		Classes:     opts.Classes,
		Palette:     opts.Palette,
		Fallback:    opts.Fallback,
		Stroke:      opts.Stroke,
		StrokeWidth: opts.StrokeWidth,
		Hover:       opts.Hover,
		Logger:      opts.Logger,
	}
}

func tooltipFor(id string, m *interact.Manager) tooltipResponse {
	resp := tooltipResponse{Session: id, Target: m.Current()}
	if tip, ok := m.Tooltip(); ok {
		anchor := tip.Anchor()
		resp.Visible = true
		resp.Text = tip.Text
		resp.Anchor = &anchor
	}
	return resp
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInternal, errors.ErrCodeUnsupported:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
