package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"arheritage/internal/device"
	"arheritage/internal/discovery"
)

// positionRequest carries what the client's geolocation returned. Omitted
// coordinates fall back to the configured position.
type positionRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Denied    bool     `json:"denied,omitempty"`
}

func (p positionRequest) locator(fallback device.Locator) device.Locator {
	client := device.ClientLocator{Denied: p.Denied}
	if p.Latitude != nil && p.Longitude != nil {
		client.Position = &device.Position{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	return device.FirstAvailable(client, fallback)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	s.mountView(w, r, s.deps.Discovery.Discover)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.mountView(w, r, s.deps.Discovery.Home)
}

func (s *Server) mountView(w http.ResponseWriter, r *http.Request, mount func(context.Context, device.Locator) *discovery.View) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view := mount(r.Context(), req.locator(s.deps.Locator))
	if prev, ok := s.views.put(currentUser(r), view.ID(), view); ok {
		prev.Unmount()
	}
	writeJSON(w, s.logger, http.StatusAccepted, view.Snapshot())
}

func (s *Server) discoveryView(w http.ResponseWriter, r *http.Request) (*discovery.View, bool) {
	view, err := s.views.get(currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return view, true
}

func (s *Server) handleViewState(w http.ResponseWriter, r *http.Request) {
	view, ok := s.discoveryView(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, view.Snapshot())
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	view, err := s.views.remove(currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view.Unmount()
	writeJSON(w, s.logger, http.StatusOK, view.Snapshot())
}

func (s *Server) handleViewSpeak(w http.ResponseWriter, r *http.Request) {
	view, ok := s.discoveryView(w, r)
	if !ok {
		return
	}
	speaking, err := view.Speak(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SpeakResponse{Speaking: speaking})
}

func (s *Server) handleViewStopSpeech(w http.ResponseWriter, r *http.Request) {
	view, ok := s.discoveryView(w, r)
	if !ok {
		return
	}
	view.StopSpeech()
	writeJSON(w, s.logger, http.StatusOK, SpeakResponse{Speaking: false})
}

func (s *Server) handleDiscoverHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.deps.Discovery.History(r.Context()))
}
