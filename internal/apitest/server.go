// Package apitest provides an in-memory activities API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/EO-DataHub/eodhp-activity-signup/models"
	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Route names used by Hits.
const (
	RouteActivities = "activities"
	RouteMe         = "me"
	RouteLogin      = "login"
	RouteSignup     = "signup"
	RouteUnregister = "unregister"
)

const (
	TeacherUsername = "teacher1"
	TeacherPassword = "pw"
)

var signingKey = []byte("apitest-signing-key")

type account struct {
	passwordHash []byte
	user         models.User
}

// Request is a recorded call against the fake API.
type Request struct {
	Route         string
	Method        string
	RawPath       string
	RawQuery      string
	Authorization string
}

// Server is a fake activities API backed by memory.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	activities     models.Catalog
	accounts       map[string]account
	tokens         map[string]models.User
	requests       []Request
	issued         int
	failActivities bool
}

// DefaultCatalog returns the activities the server starts with.
func DefaultCatalog() models.Catalog {
	return models.Catalog{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 2,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}

// NewServer starts a fake API seeded with DefaultCatalog and a single
// teacher account.
func NewServer() *Server {
	s := &Server{
		activities: DefaultCatalog(),
		accounts: map[string]account{
			TeacherUsername: {
				passwordHash: hashPassword(TeacherPassword),
				user:         models.User{Username: TeacherUsername, Role: "teacher"},
			},
		},
		tokens: map[string]models.User{},
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router returns the routes of the fake API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.record)

	r.HandleFunc("/activities", s.getActivities).Methods(http.MethodGet).Name(RouteActivities)
	r.HandleFunc("/auth/me", s.me).Methods(http.MethodGet).Name(RouteMe)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost).Name(RouteLogin)
	r.HandleFunc("/activities/{activity}/signup", s.signup).Methods(http.MethodPost).Name(RouteSignup)
	r.HandleFunc("/activities/{activity}/unregister", s.unregister).Methods(http.MethodDelete).Name(RouteUnregister)

	return r
}

// Hits returns how many requests reached the named route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, req := range s.requests {
		if req.Route == route {
			n++
		}
	}
	return n
}

// TotalHits returns the number of requests received on any route.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// IssueToken returns a valid token for username without a login request.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(s.accounts[username].user)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]models.User{}
}

// SetFailActivities makes GET /activities answer with a server error.
func (s *Server) SetFailActivities(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failActivities = fail
}

// Participants returns the current participants of an activity.
func (s *Server) Participants(activity string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.activities.Find(activity); ok {
		return append([]string(nil), a.Participants...)
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Route:         name,
			Method:        r.Method,
			RawPath:       r.URL.EscapedPath(),
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) getActivities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failActivities {
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, s.activities)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid authentication credentials")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[r.PostForm.Get("username")]
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(r.PostForm.Get("password"))) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: s.issueToken(acc.user),
		TokenType:   "bearer",
		User:        acc.user,
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, email, ok := s.membershipRequest(w, r)
	if !ok {
		return
	}

	activity := &s.activities[idx]
	for _, p := range activity.Participants {
		if p == email {
			writeDetail(w, http.StatusBadRequest, "Student is already signed up")
			return
		}
	}
	if len(activity.Participants) >= activity.MaxParticipants {
		writeDetail(w, http.StatusBadRequest, "Activity is full")
		return
	}

	activity.Participants = append(activity.Participants, email)
	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, activity.Name),
	})
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, email, ok := s.membershipRequest(w, r)
	if !ok {
		return
	}

	activity := &s.activities[idx]
	for i, p := range activity.Participants {
		if p == email {
			activity.Participants = append(activity.Participants[:i:i], activity.Participants[i+1:]...)
			writeJSON(w, http.StatusOK, models.MessageResponse{
				Message: fmt.Sprintf("Unregistered %s from %s", email, activity.Name),
			})
			return
		}
	}
	writeDetail(w, http.StatusBadRequest, "Student is not signed up for this activity")
}

// membershipRequest authenticates the caller and resolves the activity and
// email of a signup or unregister call. Callers hold s.mu.
func (s *Server) membershipRequest(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	if _, ok := s.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return 0, "", false
	}

	name, err := url.PathUnescape(mux.Vars(r)["activity"])
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid activity name")
		return 0, "", false
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Email is required")
		return 0, "", false
	}

	for i, a := range s.activities {
		if a.Name == name {
			return i, email, true
		}
	}
	writeDetail(w, http.StatusNotFound, "Activity not found")
	return 0, "", false
}

// Callers hold s.mu.
func (s *Server) authenticate(r *http.Request) (models.User, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return models.User{}, false
	}
	user, ok := s.tokens[token]
	return user, ok
}

// Callers hold s.mu.
func (s *Server) issueToken(user models.User) string {
	s.issued++
	claims := jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"jti":  fmt.Sprintf("%d", s.issued),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.tokens[token] = user
	return token
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
