// Package app wires the session manager and the activity controller to a
// shared view, token store and API client.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/apiclient"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/appconfig"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/controller"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/notify"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/session"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/store"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/view"
	"github.com/rs/zerolog/log"
)

// App contains all shared dependencies for commands.
type App struct {
	Config     *appconfig.Config
	Client     *apiclient.Client
	Store      store.Store
	Messages   *notify.Notifier
	View       *view.View
	Session    *session.Manager
	Activities *controller.ActivityController
}

// New builds an App from cfg.
func New(cfg *appconfig.Config) *App {
	return NewWithStore(cfg, store.NewFileStore(cfg.Session.TokenFile))
}

// NewWithStore builds an App that persists its token in st.
func NewWithStore(cfg *appconfig.Config, st store.Store) *App {
	client := apiclient.NewClient(cfg.Server.URL, cfg.HTTP.Timeout)
	messages := notify.New(cfg.Messages.TTL)
	messages.OnChange(func(m notify.Message) {
		if m.Visible {
			log.Info().Str("kind", string(m.Kind)).Msg(m.Text)
		}
	})
	v := view.New(messages)
	sess := session.NewManager(client, st, v, messages)

	return &App{
		Config:     cfg,
		Client:     client,
		Store:      st,
		Messages:   messages,
		View:       v,
		Session:    sess,
		Activities: controller.NewActivityController(client, sess, v, messages),
	}
}

// Start renders the catalog and restores any persisted session. The two
// run concurrently and neither waits for the other.
func (a *App) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = a.Activities.FetchActivities(ctx)
	}()

	go func() {
		defer wg.Done()
		state := a.Session.RestoreSession(ctx)
		log.Debug().Str("state", state.String()).Msg("session restore finished")
	}()

	wg.Wait()
}

// Render writes the current page to w.
func (a *App) Render(w io.Writer) error {
	return view.Render(w, a.View.Snapshot())
}

// Close stops pending message timers.
func (a *App) Close() {
	a.Messages.Hide()
}
