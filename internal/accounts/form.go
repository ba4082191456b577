package accounts

import (
	"context"

	"arheritage/internal/apperr"
)

// Mode selects the auth form tab.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "signup"
	}
	return "login"
}

// ParseMode maps "signup" to ModeSignUp and everything else to ModeLogin.
func ParseMode(value string) Mode {
	if value == "signup" || value == "sign-up" {
		return ModeSignUp
	}
	return ModeLogin
}

// Form holds auth form input and its current error. Any edit clears the error.
type Form struct {
	mode     Mode
	name     string
	email    string
	password string
	err      string
}

func (f *Form) Mode() Mode { return f.mode }
func (f *Form) Message() string { return f.err }
func (f *Form) Email() string { return f.email }
func (f *Form) Name() string { return f.name }

func (f *Form) SetMode(mode Mode) {
	f.mode = mode
	f.err = ""
}

func (f *Form) SetName(name string) {
	f.name = name
	f.err = ""
}

func (f *Form) SetEmail(email string) {
	f.email = email
	f.err = ""
}

func (f *Form) SetPassword(password string) {
	f.password = password
	f.err = ""
}

// Submit runs login or sign-up for the current mode. On failure the user
// message is kept as the form error and the error is returned.
func (f *Form) Submit(ctx context.Context, svc *Service) (Session, error) {
	f.err = ""
	var (
		session Session
		err     error
	)
	if f.mode == ModeSignUp {
		session, err = svc.SignUp(ctx, f.name, f.email, f.password)
	} else {
		session, err = svc.Login(ctx, f.email, f.password)
	}
	if err != nil {
		f.err = apperr.UserMessage(err, "Something went wrong. Please try again.")
		return Session{}, err
	}
	return session, nil
}
