package httpapi

import (
	"net/http"

	"arheritage/internal/language"
	"arheritage/internal/records"
)

// SettingsResponse lists the current preferences and the choices offered.
type SettingsResponse struct {
	Theme     records.Theme         `json:"theme"`
	Audio     records.AudioSettings `json:"audio"`
	Languages []language.Option     `json:"languages"`
	Voices    []records.Voice       `json:"voices"`
}

func (s *Server) settingsResponse() SettingsResponse {
	return SettingsResponse{
		Theme:     s.deps.Settings.Theme(),
		Audio:     s.deps.Settings.AudioSettings(),
		Languages: language.Options(),
		Voices:    []records.Voice{records.VoiceFemale, records.VoiceMale},
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.settingsResponse())
}

type themeRequest struct {
	Theme records.Theme `json:"theme"`
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Settings.SetTheme(r.Context(), req.Theme); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.settingsResponse())
}

type audioRequest struct {
	Voice    *records.Voice `json:"voice,omitempty"`
	Language *string        `json:"language,omitempty"`
}

func (s *Server) handleSetAudio(w http.ResponseWriter, r *http.Request) {
	var req audioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Voice != nil {
		if err := s.deps.Settings.SetAudioVoice(r.Context(), *req.Voice); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Language != nil {
		if err := s.deps.Settings.SetAudioLanguage(r.Context(), *req.Language); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, s.logger, http.StatusOK, s.settingsResponse())
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.deps.Settings.Profile())
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	profile := s.deps.Settings.Profile()
	if err := decodeJSON(w, r, &profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Settings.SaveProfile(r.Context(), profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, profile)
}

func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	_, mimeType, data, _, err := readUpload(w, r, "avatar")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Settings.SetAvatar(r.Context(), mimeType, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.deps.Settings.Profile())
}
