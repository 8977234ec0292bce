// Package view holds the page state the session manager and the activity
// controller write to, and renders it as text.
package view

import (
	"sync"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/notify"
	"github.com/EO-DataHub/eodhp-activity-signup/models"
)

const (
	LoadingNotice = "Loading activities..."
	FailureNotice = "Failed to load activities. Please try again later."
)

// Participant is a rendered participant entry. It carries the
// (activity, email) pair its unregister action applies to.
type Participant struct {
	Activity string
	Email    string
}

// Card is the rendering of one activity.
type Card struct {
	Name         string
	Description  string
	Schedule     string
	SpotsLeft    int
	Participants []Participant
}

// State is a copy of everything on the page.
type State struct {
	LoginFormVisible     bool
	UserInfoVisible      bool
	LoggedUser           string
	SignupSectionVisible bool
	TeacherNoticeVisible bool
	AuthMenuOpen         bool
	IndicatorActive      bool

	Cards      []Card
	ListNotice string
	Options    []string

	SignupEmail    string
	SignupActivity string
	LoginUsername  string

	Message notify.Message
}

// View owns the page state. All methods are safe for concurrent use.
type View struct {
	mu       sync.Mutex
	state    State
	messages *notify.Notifier
}

// New returns the page as it looks before any data arrives.
func New(messages *notify.Notifier) *View {
	return &View{
		messages: messages,
		state: State{
			LoginFormVisible:     true,
			TeacherNoticeVisible: true,
			ListNotice:           LoadingNotice,
		},
	}
}

// ShowLoggedIn reveals the signup section and user info for username.
func (v *View) ShowLoggedIn(username string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.LoginFormVisible = false
	v.state.UserInfoVisible = true
	v.state.LoggedUser = username
	v.state.SignupSectionVisible = true
	v.state.TeacherNoticeVisible = false
	v.state.IndicatorActive = true
}

// ShowLoggedOut is the inverse of ShowLoggedIn and also collapses the
// auth menu.
func (v *View) ShowLoggedOut() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.LoginFormVisible = true
	v.state.UserInfoVisible = false
	v.state.LoggedUser = ""
	v.state.SignupSectionVisible = false
	v.state.TeacherNoticeVisible = true
	v.state.IndicatorActive = false
	v.state.AuthMenuOpen = false
}

func (v *View) ToggleAuthMenu() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.AuthMenuOpen = !v.state.AuthMenuOpen
}

func (v *View) CloseAuthMenu() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.AuthMenuOpen = false
}

// SetActivities clears the list and the selection options and rebuilds
// both from catalog.
func (v *View) SetActivities(catalog models.Catalog) {
	cards := make([]Card, 0, len(catalog))
	options := make([]string, 0, len(catalog))

	for _, a := range catalog {
		participants := make([]Participant, 0, len(a.Participants))
		for _, email := range a.Participants {
			participants = append(participants, Participant{Activity: a.Name, Email: email})
		}
		cards = append(cards, Card{
			Name:         a.Name,
			Description:  a.Description,
			Schedule:     a.Schedule,
			SpotsLeft:    a.SpotsLeft(),
			Participants: participants,
		})
		options = append(options, a.Name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Cards = cards
	v.state.Options = options
	v.state.ListNotice = ""
}

// ShowActivitiesError replaces the list with a static notice and empties
// the selection options.
func (v *View) ShowActivitiesError(notice string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Cards = nil
	v.state.Options = nil
	v.state.ListNotice = notice
}

func (v *View) FillSignupForm(email, activity string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.SignupEmail = email
	v.state.SignupActivity = activity
}

func (v *View) ResetSignupForm() {
	v.FillSignupForm("", "")
}

func (v *View) FillLoginForm(username string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.LoginUsername = username
}

func (v *View) ResetLoginForm() {
	v.FillLoginForm("")
}

// Snapshot returns a copy of the current state including the message.
func (v *View) Snapshot() State {
	v.mu.Lock()
	s := v.state
	s.Cards = append([]Card(nil), v.state.Cards...)
	s.Options = append([]string(nil), v.state.Options...)
	v.mu.Unlock()

	if v.messages != nil {
		s.Message = v.messages.Current()
	}
	return s
}

// Participants returns the rendered participant emails of activity.
func (s State) Participants(activity string) []string {
	for _, c := range s.Cards {
		if c.Name != activity {
			continue
		}
		emails := make([]string, 0, len(c.Participants))
		for _, p := range c.Participants {
			emails = append(emails, p.Email)
		}
		return emails
	}
	return nil
}
