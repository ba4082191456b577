package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arheritage/internal/accounts"
)

// SplashDelay is how long the splash screen shows before auth.
const SplashDelay = 1800 * time.Millisecond

// ErrInvalidNavigation is returned for a navigation the current screen does
// not offer.
var ErrInvalidNavigation = errors.New("invalid navigation")

// Page is a bottom-navigation tab.
type Page string

const (
	PageHome     Page = "home"
	PageUpload   Page = "upload"
	PageLocation Page = "location"
	PageProfile  Page = "profile"
)

// ParsePage maps a name onto a Page.
func ParsePage(value string) (Page, bool) {
	switch p := Page(value); p {
	case PageHome, PageUpload, PageLocation, PageProfile:
		return p, true
	default:
		return "", false
	}
}

// View is the full-screen overlay inside the main layout. ViewTabs shows the
// active page.
type View string

const (
	ViewTabs          View = "tabs"
	ViewScan          View = "scan"
	ViewSettings      View = "settings"
	ViewContributions View = "contributions"
)

// Screen is the top-level screen.
type Screen interface {
	Name() string
	isScreen()
}

// Splash is the launch screen shown for SplashDelay.
type Splash struct{}

// Auth is the login or sign-up form, selected by Mode.
type Auth struct {
	Mode accounts.Mode
}

// Main is the signed-in layout: the active tab plus any overlay view.
type Main struct {
	Page Page
	View View
}

func (Splash) Name() string { return "splash" }
func (Auth) Name() string   { return "auth" }
func (Main) Name() string   { return "main" }

func (Splash) isScreen() {}
func (Auth) isScreen()   {}
func (Main) isScreen()   {}

// Router tracks the current screen.
type Router struct {
	mu       sync.Mutex
	screen   Screen
	delay    time.Duration
	onChange func(Screen)
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithSplashDelay overrides SplashDelay.
func WithSplashDelay(d time.Duration) RouterOption {
	return func(r *Router) {
		r.delay = d
	}
}

// WithScreenListener is called after every screen change.
func WithScreenListener(fn func(Screen)) RouterOption {
	return func(r *Router) {
		r.onChange = fn
	}
}

// NewRouter starts on the splash screen.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{screen: Splash{}, delay: SplashDelay}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start advances from the splash screen after the splash delay. It returns
// immediately; cancelling ctx abandons the pending advance.
func (r *Router) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			r.FinishSplash()
		}
	}()
}

// Screen returns the current screen.
func (r *Router) Screen() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

// FinishSplash moves from splash to the login form. Other screens are left
// alone.
func (r *Router) FinishSplash() {
	r.transition(func(s Screen) (Screen, error) {
		if _, ok := s.(Splash); !ok {
			return s, nil
		}
		return Auth{Mode: accounts.ModeLogin}, nil
	})
}

// SetAuthMode switches between the login and sign-up tabs.
func (r *Router) SetAuthMode(mode accounts.Mode) error {
	return r.transition(func(s Screen) (Screen, error) {
		if _, ok := s.(Auth); !ok {
			return nil, invalid(s, "switch auth mode")
		}
		return Auth{Mode: mode}, nil
	})
}

// LoggedIn enters the main layout on the home page.
func (r *Router) LoggedIn() error {
	return r.transition(func(s Screen) (Screen, error) {
		if _, ok := s.(Auth); !ok {
			return nil, invalid(s, "log in")
		}
		return Main{Page: PageHome, View: ViewTabs}, nil
	})
}

// Logout returns to the auth screen.
func (r *Router) Logout() error {
	return r.transition(func(s Screen) (Screen, error) {
		if _, ok := s.(Main); !ok {
			return nil, invalid(s, "log out")
		}
		return Auth{Mode: accounts.ModeLogin}, nil
	})
}

// SelectPage switches the bottom-navigation tab.
func (r *Router) SelectPage(page Page) error {
	return r.inMain("select page", func(m Main) (Main, error) {
		if m.View != ViewTabs {
			return m, fmt.Errorf("%w: select page from %s view", ErrInvalidNavigation, m.View)
		}
		m.Page = page
		return m, nil
	})
}

// OpenScan shows the scanner over the current page.
func (r *Router) OpenScan() error {
	return r.openView(ViewScan)
}

// CloseScan returns from the scanner to the page it was opened from.
func (r *Router) CloseScan() error {
	return r.inMain("close scan", func(m Main) (Main, error) {
		if m.View != ViewScan {
			return m, fmt.Errorf("%w: close scan from %s view", ErrInvalidNavigation, m.View)
		}
		m.View = ViewTabs
		return m, nil
	})
}

// OpenSettings shows the settings screen.
func (r *Router) OpenSettings() error {
	return r.openView(ViewSettings)
}

// OpenContributions shows the contributions list.
func (r *Router) OpenContributions() error {
	return r.openView(ViewContributions)
}

// Back leaves settings or contributions for the profile page.
func (r *Router) Back() error {
	return r.inMain("back", func(m Main) (Main, error) {
		if m.View != ViewSettings && m.View != ViewContributions {
			return m, fmt.Errorf("%w: back from %s view", ErrInvalidNavigation, m.View)
		}
		return Main{Page: PageProfile, View: ViewTabs}, nil
	})
}

// UploadFromContributions leaves the contributions list for the upload page.
func (r *Router) UploadFromContributions() error {
	return r.inMain("upload from contributions", func(m Main) (Main, error) {
		if m.View != ViewContributions {
			return m, fmt.Errorf("%w: upload from %s view", ErrInvalidNavigation, m.View)
		}
		return Main{Page: PageUpload, View: ViewTabs}, nil
	})
}

func (r *Router) openView(view View) error {
	return r.inMain("open "+string(view), func(m Main) (Main, error) {
		if m.View != ViewTabs {
			return m, fmt.Errorf("%w: open %s from %s view", ErrInvalidNavigation, view, m.View)
		}
		if view != ViewScan && m.Page != PageProfile {
			return m, fmt.Errorf("%w: open %s from %s page", ErrInvalidNavigation, view, m.Page)
		}
		m.View = view
		return m, nil
	})
}

func (r *Router) inMain(op string, fn func(Main) (Main, error)) error {
	return r.transition(func(s Screen) (Screen, error) {
		m, ok := s.(Main)
		if !ok {
			return nil, invalid(s, op)
		}
		next, err := fn(m)
		if err != nil {
			return nil, err
		}
		return next, nil
	})
}

func (r *Router) transition(fn func(Screen) (Screen, error)) error {
	r.mu.Lock()
	next, err := fn(r.screen)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	changed := next != r.screen
	r.screen = next
	listener := r.onChange
	r.mu.Unlock()
	if changed && listener != nil {
		listener(next)
	}
	return nil
}

func invalid(s Screen, op string) error {
	return fmt.Errorf("%w: %s from %s screen", ErrInvalidNavigation, op, s.Name())
}
