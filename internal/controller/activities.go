package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/apiclient"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/notify"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/view"
	"github.com/EO-DataHub/eodhp-activity-signup/models"
	"github.com/rs/zerolog/log"
)

const (
	MsgSignupAuthRequired     = "Authentication required to sign up students"
	MsgUnregisterAuthRequired = "Authentication required to unregister students"
	MsgSignupNetwork          = "Failed to sign up. Please try again."
	MsgUnregisterNetwork      = "Failed to unregister. Please try again."
	MsgGenericError           = "An error occurred"
)

// ErrAuthRequired is returned when a mutation is attempted without a token.
var ErrAuthRequired = errors.New("authentication required")

// ActivitiesClient is the part of the API the controller needs.
type ActivitiesClient interface {
	GetActivities(ctx context.Context) (models.Catalog, error)
	Signup(ctx context.Context, token, activity, email string) (*models.MessageResponse, error)
	Unregister(ctx context.Context, token, activity, email string) (*models.MessageResponse, error)
}

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// ActivityController renders the activity catalog and performs signups
// and unregistrations. Every successful mutation is followed by a full
// catalog fetch.
type ActivityController struct {
	api      ActivitiesClient
	session  TokenSource
	view     *view.View
	messages *notify.Notifier

	mu      sync.Mutex
	issued  uint64
	applied uint64
}

func NewActivityController(api ActivitiesClient, session TokenSource, v *view.View, messages *notify.Notifier) *ActivityController {
	return &ActivityController{
		api:      api,
		session:  session,
		view:     v,
		messages: messages,
	}
}

// FetchActivities retrieves the catalog and rebuilds the list. A failure
// replaces the list with a static notice. Responses are numbered in the
// order requests were issued; one that arrives after a newer response was
// applied is dropped.
func (c *ActivityController) FetchActivities(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	catalog, err := c.api.GetActivities(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.applied {
		log.Debug().Uint64("seq", seq).Uint64("applied", c.applied).Msg("discarding stale activities response")
		return err
	}
	c.applied = seq

	if err != nil {
		log.Error().Err(err).Msg("error fetching activities")
		c.view.ShowActivitiesError(view.FailureNotice)
		return err
	}

	c.view.SetActivities(catalog)
	log.Debug().Int("activities", len(catalog)).Msg("activities rendered")
	return nil
}

// Signup registers email for activity using the session token.
func (c *ActivityController) Signup(ctx context.Context, email, activity string) error {
	c.view.FillSignupForm(email, activity)

	token := c.session.Token()
	if token == "" {
		c.messages.Error(MsgSignupAuthRequired)
		return ErrAuthRequired
	}

	resp, err := c.api.Signup(ctx, token, activity, email)
	if err != nil {
		c.reportFailure(err, MsgSignupNetwork)
		log.Error().Err(err).Str("activity", activity).Str("email", email).Msg("error signing up")
		return err
	}

	c.messages.Success(resp.Message)
	c.view.ResetSignupForm()
	// a failed refresh reports itself on the page
	_ = c.FetchActivities(ctx)
	return nil
}

// Unregister removes email from activity using the session token.
func (c *ActivityController) Unregister(ctx context.Context, activity, email string) error {
	token := c.session.Token()
	if token == "" {
		c.messages.Error(MsgUnregisterAuthRequired)
		return ErrAuthRequired
	}

	resp, err := c.api.Unregister(ctx, token, activity, email)
	if err != nil {
		c.reportFailure(err, MsgUnregisterNetwork)
		log.Error().Err(err).Str("activity", activity).Str("email", email).Msg("error unregistering")
		return err
	}

	c.messages.Success(resp.Message)
	_ = c.FetchActivities(ctx)
	return nil
}

func (c *ActivityController) reportFailure(err error, networkMsg string) {
	if !apiclient.IsRejected(err) {
		c.messages.Error(networkMsg)
		return
	}
	detail := apiclient.Detail(err)
	if detail == "" {
		detail = MsgGenericError
	}
	c.messages.Error(detail)
}
