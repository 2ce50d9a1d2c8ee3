package httpserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/shineum/reply-composer/internal/compose"
	"github.com/shineum/reply-composer/internal/session"
)

func (s *Server) registerRoutes() {
	r := s.router

	r.Get("/healthz", s.handleHealthCheck)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/source", s.handleSetSource)
			r.Put("/template", s.handleSetTemplate)
			r.Post("/parse", s.handleParse)

			r.Route("/addresses/{address}", func(r chi.Router) {
				r.Delete("/", s.handleRemoveAddress)
				r.Post("/generate", s.handleGenerate)
				r.Get("/clipboard", s.handleClipboard)
				r.Get("/mailto", s.handleMailto)
				r.Post("/send", s.handleSend)
			})
		})
	})
}

type textRequest struct {
	Text string `json:"text"`
}

type createRequest struct {
	Source   *string `json:"source,omitempty"`
	Template *string `json:"template,omitempty"`
}

type sendRequest struct {
	Subject string `json:"subject,omitempty"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	sess := s.sessions.Create()
	if req.Template != nil {
		sess.SetTemplate(*req.Template)
	}
	if req.Source != nil {
		sess.SetSource(*req.Source)
	}
	s.logger.Debug("session created", "session", sess.ID())
	JSON(w, http.StatusCreated, map[string]string{"id": sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req textRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	sess.SetSource(req.Text)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTemplate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req textRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	sess.SetTemplate(req.Text)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	found := sess.Parse()
	s.logger.Info("addresses extracted", "session", sess.ID(), "count", len(found))
	JSON(w, http.StatusOK, map[string]any{"addresses": found})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, addr, ok := s.lookupAddress(w, r)
	if !ok {
		return
	}
	body, err := sess.Generate(addr)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"address": addr, "body": body})
}

func (s *Server) handleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	sess, addr, ok := s.lookupAddress(w, r)
	if !ok {
		return
	}
	if !sess.Remove(addr) {
		Error(w, http.StatusNotFound, "address not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	sess, addr, ok := s.lookupAddress(w, r)
	if !ok {
		return
	}
	draft, err := sess.Draft(addr)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"payload": draft.ClipboardText()})
}

func (s *Server) handleMailto(w http.ResponseWriter, r *http.Request) {
	sess, addr, ok := s.lookupAddress(w, r)
	if !ok {
		return
	}
	draft, err := sess.Draft(addr)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"uri": draft.MailtoURI()})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	sess, addr, ok := s.lookupAddress(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	draft, err := sess.Draft(addr)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if s.provider == nil {
		Error(w, http.StatusServiceUnavailable, "no delivery provider configured")
		return
	}

	subject := s.subject
	if req.Subject != "" {
		subject = req.Subject
	}
	if err := s.provider.Send(r.Context(), draft.Message(s.from, subject)); err != nil {
		s.logger.Error("failed to deliver reply",
			"session", sess.ID(),
			"recipient", addr,
			"provider", s.provider.Name(),
			"error", err,
		)
		Error(w, http.StatusBadGateway, "delivery failed: "+err.Error())
		return
	}

	s.logger.Info("reply delivered", "session", sess.ID(), "recipient", addr, "provider", s.provider.Name())
	JSON(w, http.StatusOK, map[string]string{"address": addr, "provider": s.provider.Name()})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// lookupAddress resolves the session and the unescaped {address} parameter.
func (s *Server) lookupAddress(w http.ResponseWriter, r *http.Request) (*session.Session, string, bool) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return nil, "", false
	}
	addr, err := url.PathUnescape(chi.URLParam(r, "address"))
	if err != nil || !compose.IsAddress(addr) {
		Error(w, http.StatusBadRequest, "malformed address")
		return nil, "", false
	}
	return sess, addr, true
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownAddress):
		Error(w, http.StatusNotFound, "address not found")
	case errors.Is(err, session.ErrNotGenerated):
		Error(w, http.StatusConflict, "reply not generated yet")
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
