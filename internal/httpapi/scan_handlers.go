package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"arheritage/internal/narration"
	"arheritage/internal/scan"
)

// ScanResponse is a scan session snapshot.
type ScanResponse struct {
	ID     string     `json:"id"`
	State  string     `json:"state"`
	Detail scan.State `json:"detail"`
}

func scanResponse(session *scan.Session) ScanResponse {
	state := session.Snapshot()
	return ScanResponse{ID: session.ID(), State: state.Name(), Detail: state}
}

type openScanRequest struct {
	Camera bool `json:"camera"`
}

func (s *Server) handleOpenScan(w http.ResponseWriter, r *http.Request) {
	var req openScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	email := currentUser(r)

	opts := []scan.Option{scan.WithCloseDelay(s.closeDelay)}
	if s.deps.Speech != nil && s.deps.Records != nil {
		narrator := narration.New(r.Context(), s.deps.Speech, s.deps.Records, s.logger)
		opts = append(opts, scan.WithNarrator(narrator), scan.WithOnClose(narrator.Close))
	}
	var camera scan.Capturer
	if req.Camera && s.deps.Camera != nil {
		camera = s.deps.Camera
	}
	session := scan.NewSession(camera, s.deps.Gateway, s.logger, opts...)

	if prev, ok := s.scans.put(email, session.ID(), session); ok {
		prev.Close()
	}
	if camera != nil {
		s.mu.Lock()
		prev := s.cameraSession
		s.cameraSession = session
		s.mu.Unlock()
		if prev != nil {
			prev.Close()
		}
	}
	if req.Camera {
		// A device failure is reported inside the Camera state.
		_ = session.Open(r.Context())
	}
	writeJSON(w, s.logger, http.StatusCreated, scanResponse(session))
}

func (s *Server) scanSession(w http.ResponseWriter, r *http.Request) (*scan.Session, bool) {
	session, err := s.scans.get(currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.scanSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, scanResponse(session))
}

func (s *Server) handleCloseScan(w http.ResponseWriter, r *http.Request) {
	session, err := s.scans.remove(currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	session.Close()
	writeJSON(w, s.logger, http.StatusOK, scanResponse(session))
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	session, ok := s.scanSession(w, r)
	if !ok {
		return
	}
	_, mimeType, data, uploaded, err := readUpload(w, r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// The frame grab and analysis outlive this request.
	ctx := context.WithoutCancel(r.Context())
	if uploaded {
		err = session.CaptureImage(ctx, data, mimeType)
	} else {
		err = session.Capture(ctx)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusAccepted, scanResponse(session))
}

func (s *Server) handleScanAgain(w http.ResponseWriter, r *http.Request) {
	s.scanAction(w, r, func(session *scan.Session) error { return session.ScanAgain() })
}

func (s *Server) handleProvideFeedback(w http.ResponseWriter, r *http.Request) {
	s.scanAction(w, r, func(session *scan.Session) error { return session.ProvideFeedback() })
}

func (s *Server) handleFeedbackBack(w http.ResponseWriter, r *http.Request) {
	s.scanAction(w, r, func(session *scan.Session) error { return session.BackToResult() })
}

type feedbackRequest struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.scanAction(w, r, func(session *scan.Session) error {
		return session.SubmitFeedback(r.Context(), req.Rating, req.Comment)
	})
}

func (s *Server) scanAction(w http.ResponseWriter, r *http.Request, fn func(*scan.Session) error) {
	session, ok := s.scanSession(w, r)
	if !ok {
		return
	}
	if err := fn(session); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, scanResponse(session))
}

// SpeakResponse reports whether narration is now playing.
type SpeakResponse struct {
	Speaking bool `json:"speaking"`
}

func (s *Server) handleScanSpeak(w http.ResponseWriter, r *http.Request) {
	session, ok := s.scanSession(w, r)
	if !ok {
		return
	}
	speaking, err := session.Speak(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SpeakResponse{Speaking: speaking})
}
