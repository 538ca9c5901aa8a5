package main

import (
	"context"
	"net/http"

	"github.com/flosch/pongo2"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/matematik7/strava-go/config"
	"github.com/matematik7/strava-go/strava"
)

const sessionName = "strava-login"

var templates = packr.NewBox("./templates")

var resultPage = pongo2.Must(loadTemplate("login.html"))

func loadTemplate(name string) (*pongo2.Template, error) {
	source, err := templates.FindString(name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not find template %v", name)
	}
	return pongo2.FromString(source)
}

// LoginServer runs the OAuth authorization code flow on a local address
// and hands the resulting login to Run.
type LoginServer struct {
	client   *strava.Client
	settings config.Settings
	store    *sessions.CookieStore
	log      logrus.FieldLogger
	done     chan strava.Login
}

func NewLoginServer(client *strava.Client, settings config.Settings, log logrus.FieldLogger) *LoginServer {
	store := sessions.NewCookieStore([]byte(settings.SessionKey))
	store.MaxAge(60 * 10)
	store.Options.Path = "/"
	store.Options.HttpOnly = true

	return &LoginServer{
		client:   client,
		settings: settings,
		store:    store,
		log:      log,
		done:     make(chan strava.Login, 1),
	}
}

func (s *LoginServer) ServeMux() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/", s.AuthorizeHandler)
	router.Get("/callback", s.CallbackHandler)

	return router
}

// Run serves until a login completes or ctx is done.
func (s *LoginServer) Run(ctx context.Context) (strava.Login, error) {
	server := &http.Server{
		Addr:    s.settings.Listen(),
		Handler: s.ServeMux(),
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()
	s.log.Infof("open %s in a browser to log into strava", s.settings.URL)

	select {
	case login := <-s.done:
		if err := server.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("could not shut down login server")
		}
		return login, nil
	case err := <-errs:
		return strava.Login{}, errors.Wrap(err, "login server")
	case <-ctx.Done():
		server.Close()
		return strava.Login{}, ctx.Err()
	}
}

func (s *LoginServer) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	state, err := uuid.NewV4()
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, errors.Wrap(err, "could not generate state"))
		return
	}

	session, _ := s.store.Get(r, sessionName)
	session.Values["state"] = state.String()
	if err := session.Save(r, w); err != nil {
		s.renderError(w, http.StatusInternalServerError, errors.Wrap(err, "could not save session"))
		return
	}

	url := s.client.AuthorizationURL(s.settings.Strava(), s.settings.RedirectURL(), state.String(), s.settings.Scopes...)
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *LoginServer) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, errors.Wrap(err, "could not read session"))
		return
	}

	state, _ := session.Values["state"].(string)
	if state == "" || state != r.FormValue("state") {
		s.renderError(w, http.StatusBadRequest, errors.New("state does not match, start again"))
		return
	}

	if reason := r.FormValue("error"); reason != "" {
		s.renderError(w, http.StatusForbidden, errors.Errorf("authorization denied: %v", reason))
		return
	}

	login, err := s.client.Login(r.Context(), r.FormValue("code"), s.settings.Strava())
	if err != nil {
		s.renderError(w, http.StatusBadGateway, err)
		return
	}

	delete(session.Values, "state")
	if err := session.Save(r, w); err != nil {
		s.log.WithError(err).Warn("could not clear session state")
	}

	name := ""
	if login.Athlete != nil && login.Athlete.FirstName != nil {
		name = *login.Athlete.FirstName
	}
	s.render(w, http.StatusOK, pongo2.Context{
		"name":       name,
		"expires_at": login.ExpiresAt().Format("2006-01-02 15:04:05 MST"),
	})

	select {
	case s.done <- login:
	default:
	}
}

func (s *LoginServer) renderError(w http.ResponseWriter, status int, err error) {
	s.log.WithError(err).Error("strava login")
	s.render(w, status, pongo2.Context{"error": err.Error()})
}

func (s *LoginServer) render(w http.ResponseWriter, status int, ctx pongo2.Context) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := resultPage.ExecuteWriter(ctx, w); err != nil {
		s.log.WithError(err).Error("could not render login page")
	}
}
