package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActivities(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client := NewClient(server.URL, 0)
	catalog, err := client.GetActivities(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Chess Club", "Programming Class", "Gym Class"}, catalog.Names())
	chess, ok := catalog.Find("Chess Club")
	require.True(t, ok)
	assert.Equal(t, 12, chess.MaxParticipants)
	assert.Equal(t, 10, chess.SpotsLeft())
}

func TestGetActivities_ServerError(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	server.SetFailActivities(true)

	client := NewClient(server.URL, 0)
	_, err := client.GetActivities(context.Background())
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Equal(t, "Internal Server Error", Detail(err))
}

func TestGetActivities_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.GetActivities(context.Background())
	require.Error(t, err)
	assert.False(t, IsRejected(err))
}

func TestGetActivities_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, 0)
	_, err := client.GetActivities(context.Background())
	require.Error(t, err)
	assert.False(t, IsRejected(err))
	assert.Empty(t, Detail(err))
}

func TestLogin(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client := NewClient(server.URL, 0)
	resp, err := client.Login(context.Background(), apitest.TeacherUsername, apitest.TeacherPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, apitest.TeacherUsername, resp.User.Username)
	assert.Equal(t, "teacher", resp.User.Role)
}

func TestLogin_FormEncoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "teacher 1", r.PostForm.Get("username"))
		assert.Equal(t, "p&w=", r.PostForm.Get("password"))
		_, _ = w.Write([]byte(`{"access_token": "T", "user": {"username": "teacher 1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	resp, err := client.Login(context.Background(), "teacher 1", "p&w=")
	require.NoError(t, err)
	assert.Equal(t, "T", resp.AccessToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.Login(context.Background(), apitest.TeacherUsername, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", Detail(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestGetCurrentUser(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	token := server.IssueToken(apitest.TeacherUsername)

	client := NewClient(server.URL, 0)
	user, err := client.GetCurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, apitest.TeacherUsername, user.Username)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer "+token, requests[0].Authorization)
}

func TestGetCurrentUser_InvalidToken(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.GetCurrentUser(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
}

func TestSignupAndUnregister(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	token := server.IssueToken(apitest.TeacherUsername)

	client := NewClient(server.URL, 0)
	msg, err := client.Signup(context.Background(), token, "Chess Club", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Signed up a@b.com for Chess Club", msg.Message)
	assert.Contains(t, server.Participants("Chess Club"), "a@b.com")

	msg, err = client.Unregister(context.Background(), token, "Chess Club", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Unregistered a@b.com from Chess Club", msg.Message)
	assert.NotContains(t, server.Participants("Chess Club"), "a@b.com")
}

func TestSignup_Rejected(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	token := server.IssueToken(apitest.TeacherUsername)

	client := NewClient(server.URL, 0)
	_, err := client.Signup(context.Background(), token, "Chess Club", "michael@mergington.edu")
	require.Error(t, err)
	assert.Equal(t, "Student is already signed up", Detail(err))

	_, err = client.Signup(context.Background(), token, "Gym Class", "new@mergington.edu")
	assert.Equal(t, "Activity is full", Detail(err))

	_, err = client.Signup(context.Background(), token, "Knitting", "new@mergington.edu")
	assert.Equal(t, "Activity not found", Detail(err))
}

func TestMembershipURL_Encoding(t *testing.T) {
	got := MembershipURL("http://host", "Art/Design Club", "signup", "a+b&c@x.com")
	assert.Equal(t, "http://host/activities/Art%2FDesign%20Club/signup?email=a%2Bb%26c%40x.com", got)
}

func TestSignup_EncodedRequest(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	token := server.IssueToken(apitest.TeacherUsername)

	client := NewClient(server.URL, 0)
	_, err := client.Signup(context.Background(), token, "Programming Class", "a+b@x.com")
	require.NoError(t, err)
	assert.Contains(t, server.Participants("Programming Class"), "a+b@x.com")

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/activities/Programming%20Class/signup", requests[0].RawPath)
	assert.Equal(t, "email=a%2Bb%40x.com", requests[0].RawQuery)
}

func TestHTTPError_EmptyDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.Unregister(context.Background(), "T", "Chess Club", "a@b.com")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Empty(t, Detail(err))
	assert.Equal(t, "request failed with status 502", err.Error())
}

func TestErrorResponse_NotJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html page", body: "<html>502 Bad Gateway</html>"},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, 0)
			_, err := client.Signup(context.Background(), "T", "Chess Club", "a@b.com")
			require.Error(t, err)
			assert.False(t, IsRejected(err))
			assert.Empty(t, Detail(err))
			assert.Contains(t, err.Error(), "status 502")
		})
	}
}

func TestLoggingTransport_SetsRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	catalog, err := client.GetActivities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, catalog)
}
