package httpapi

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"arheritage/internal/contributions"
	"arheritage/internal/device"
)

// DraftResponse is the current upload draft.
type DraftResponse struct {
	Draft contributions.DraftState `json:"draft"`
}

func (s *Server) writeDraft(w http.ResponseWriter, d *contributions.Draft) {
	writeJSON(w, s.logger, http.StatusOK, DraftResponse{Draft: d.State()})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	s.writeDraft(w, s.draft(currentUser(r)))
}

type draftRequest struct {
	PlaceName   string `json:"placeName"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d := s.draft(currentUser(r))
	d.SetDetails(req.PlaceName, req.Description)
	s.writeDraft(w, d)
}

func (s *Server) handleDraftDetails(w http.ResponseWriter, r *http.Request) {
	d := s.draft(currentUser(r))
	if err := d.SubmitDetails(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeDraft(w, d)
}

func (s *Server) handleDraftBack(w http.ResponseWriter, r *http.Request) {
	d := s.draft(currentUser(r))
	d.Back()
	s.writeDraft(w, d)
}

func (s *Server) handleDraftRestart(w http.ResponseWriter, r *http.Request) {
	d := s.draft(currentUser(r))
	d.StartOver()
	s.writeDraft(w, d)
}

type transcriptRequest struct {
	Segments []device.Segment `json:"segments"`
}

func (s *Server) handleDraftTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d := s.draft(currentUser(r))
	d.ApplyTranscript(req.Segments...)
	s.writeDraft(w, d)
}

func (s *Server) handleSubmitContribution(w http.ResponseWriter, r *http.Request) {
	name, _, data, uploaded, err := readUpload(w, r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body io.Reader
	if uploaded {
		body = bytes.NewReader(data)
	} else {
		name = ""
	}
	item, err := s.deps.Contributions.Submit(r.Context(), s.draft(currentUser(r)), name, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, item)
}

func (s *Server) handleContributions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.deps.Contributions.History(r.Context()))
}

func (s *Server) handleContributionMedia(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Contributions.Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	path, err := s.deps.Contributions.MediaPath(item.StoredName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}
