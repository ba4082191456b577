package httpapi

import (
	"errors"
	"net/http"

	"arheritage/internal/accounts"
	"arheritage/internal/app"
	"arheritage/internal/apperr"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by sign-up and login.
type SessionResponse struct {
	Session accounts.Session `json:"session"`
	Screen  ScreenResponse   `json:"screen"`
}

// ScreenResponse describes the current screen.
type ScreenResponse struct {
	Screen string `json:"screen"`
	Mode   string `json:"mode,omitempty"`
	Page   string `json:"page,omitempty"`
	View   string `json:"view,omitempty"`
}

func screenResponse(screen app.Screen) ScreenResponse {
	resp := ScreenResponse{Screen: screen.Name()}
	switch sc := screen.(type) {
	case app.Splash:
	case app.Auth:
		resp.Mode = sc.Mode.String()
	case app.Main:
		resp.Page = string(sc.Page)
		resp.View = string(sc.View)
	}
	return resp
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, accounts.ModeSignUp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, accounts.ModeLogin)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, mode accounts.Mode) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	form := &accounts.Form{}
	form.SetMode(mode)
	form.SetName(req.Name)
	form.SetEmail(req.Email)
	form.SetPassword(req.Password)
	session, err := form.Submit(r.Context(), s.deps.Accounts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	router := s.screenRouter(session.Subject())
	if _, ok := router.Screen().(app.Main); !ok {
		if err := router.LoggedIn(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	status := http.StatusOK
	if mode == accounts.ModeSignUp {
		status = http.StatusCreated
	}
	writeJSON(w, s.logger, status, SessionResponse{Session: session, Screen: screenResponse(router.Screen())})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	email := currentUser(r)
	s.closeUserScreens(email)
	router := s.screenRouter(email)
	if err := router.Logout(); err != nil && !errors.Is(err, app.ErrInvalidNavigation) {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, screenResponse(router.Screen()))
}

// closeUserScreens ends the user's scan session and unmounts their view.
func (s *Server) closeUserScreens(email string) {
	if session, ok := s.scans.takeCurrent(email); ok {
		session.Close()
	}
	if view, ok := s.views.takeCurrent(email); ok {
		view.Unmount()
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email := currentUser(r)
	account, ok := s.deps.Accounts.Account(r.Context(), email)
	if !ok {
		s.writeError(w, r, apperr.Wrap(apperr.ErrUnauthorized, "me", "Please sign in again.", errors.New("account not found")))
		return
	}
	account.Password = ""
	writeJSON(w, s.logger, http.StatusOK, account)
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, screenResponse(s.screenRouter(currentUser(r)).Screen()))
}

type navigateRequest struct {
	Action string `json:"action"`
	Page   string `json:"page,omitempty"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	router := s.screenRouter(currentUser(r))
	var err error
	switch req.Action {
	case "select_page":
		page, ok := app.ParsePage(req.Page)
		if !ok {
			err = apperr.Validation("navigate", "Unknown page.")
			break
		}
		err = router.SelectPage(page)
	case "open_scan":
		err = router.OpenScan()
	case "close_scan":
		err = router.CloseScan()
	case "open_settings":
		err = router.OpenSettings()
	case "open_contributions":
		err = router.OpenContributions()
	case "back":
		err = router.Back()
	case "upload":
		err = router.UploadFromContributions()
	default:
		err = apperr.Validation("navigate", "Unknown navigation action.")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, screenResponse(router.Screen()))
}
