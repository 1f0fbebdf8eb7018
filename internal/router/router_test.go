package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/quirknotes/internal/auth"
	"github.com/patric-chuzhbe/quirknotes/internal/db/memorystorage"
	"github.com/patric-chuzhbe/quirknotes/internal/ipchecker"
	"github.com/patric-chuzhbe/quirknotes/internal/logger"
	"github.com/patric-chuzhbe/quirknotes/internal/mockstorage"
	"github.com/patric-chuzhbe/quirknotes/internal/models"
	"github.com/patric-chuzhbe/quirknotes/internal/service"
)

var testTokenSigningSecretKey = []byte("router-test-signing-secret-key01")

type testServer struct {
	srv *httptest.Server
}

func newTestServer(t *testing.T, trustedSubnet string) *testServer {
	t.Helper()

	err := logger.Init("debug")
	require.NoError(t, err)

	theDB, err := memorystorage.New()
	require.NoError(t, err)

	theIPChecker, err := ipchecker.New(trustedSubnet)
	require.NoError(t, err)

	theAuth := auth.New(testTokenSigningSecretKey, time.Hour)
	router := New(service.New(theDB), theDB, theAuth, theIPChecker)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv}
}

// registerUser creates an account through the public route and returns
// the minted token.
func (ts *testServer) registerUser(t *testing.T, username, password string) string {
	t.Helper()

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)).
		Post(ts.srv.URL + "/registerUser")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	var authResponse models.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &authResponse))
	require.NotEmpty(t, authResponse.Token)

	return authResponse.Token
}

func TestPostRegisteruser(t *testing.T) {
	type tRequest struct {
		method string
		body   string
	}
	type tExpectedResponse struct {
		code int
		body *regexp.Regexp
	}
	type tTestCase struct {
		name             string
		request          tRequest
		expectedResponse tExpectedResponse
	}
	testCases := []tTestCase{
		{
			name: "positive",
			request: tRequest{
				http.MethodPost,
				`{"username": "alice", "password": "some password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusCreated,
				regexp.MustCompile(`\{\s*"response"\s*:\s*"User registered successfully\."\s*,\s*"token"\s*:\s*"[\w-]+\.[\w-]+\.[\w-]+"\s*\}`),
			},
		},
		{
			name: "duplicate_username",
			request: tRequest{
				http.MethodPost,
				`{"username": "alice", "password": "another password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				regexp.MustCompile(`\{\s*"error"\s*:\s*"Username already exists\."\s*\}`),
			},
		},
		{
			name: "missing_password",
			request: tRequest{
				http.MethodPost,
				`{"username": "bob"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				regexp.MustCompile(`\{\s*"error"\s*:\s*"Username and password both needed to register\."\s*\}`),
			},
		},
		{
			name: "empty_body",
			request: tRequest{
				http.MethodPost,
				``,
			},
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				nil,
			},
		},
		{
			name: "unsupported_method_get",
			request: tRequest{
				http.MethodGet,
				``,
			},
			expectedResponse: tExpectedResponse{
				http.StatusMethodNotAllowed,
				nil,
			},
		},
	}

	ts := newTestServer(t, "")

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := resty.New().R()
			req.Method = testCase.request.method
			req.URL = fmt.Sprintf("%s/registerUser", ts.srv.URL)

			if len(testCase.request.body) > 0 {
				req.SetHeader("Content-Type", "application/json")
				req.SetBody(testCase.request.body)
			}

			resp, err := req.Send()
			assert.NoError(t, err, "error making HTTP request")

			assert.Equal(t, testCase.expectedResponse.code, resp.StatusCode(), "Response code didn't match expected value")

			if testCase.expectedResponse.body != nil {
				assert.NotNil(
					t,
					testCase.expectedResponse.body.FindIndex(resp.Body()),
					fmt.Sprintf(
						"The response body should match expected value (%s)",
						testCase.expectedResponse.body.String(),
					),
				)
			}
		})
	}
}

func TestPostLoginuser(t *testing.T) {
	type tRequest struct {
		body string
	}
	type tExpectedResponse struct {
		code int
		body *regexp.Regexp
	}
	type tTestCase struct {
		name             string
		request          tRequest
		expectedResponse tExpectedResponse
	}
	testCases := []tTestCase{
		{
			name: "positive",
			request: tRequest{
				`{"username": "alice", "password": "some password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusOK,
				regexp.MustCompile(`\{\s*"response"\s*:\s*"User logged in successfully\."\s*,\s*"token"\s*:\s*"[\w-]+\.[\w-]+\.[\w-]+"\s*\}`),
			},
		},
		{
			name: "wrong_password",
			request: tRequest{
				`{"username": "alice", "password": "wrong password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusUnauthorized,
				regexp.MustCompile(`\{\s*"error"\s*:\s*"Authentication failed\."\s*\}`),
			},
		},
		{
			name: "unknown_username",
			request: tRequest{
				`{"username": "nobody", "password": "some password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusUnauthorized,
				regexp.MustCompile(`\{\s*"error"\s*:\s*"Authentication failed\."\s*\}`),
			},
		},
		{
			name: "missing_username",
			request: tRequest{
				`{"password": "some password"}`,
			},
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				regexp.MustCompile(`\{\s*"error"\s*:\s*"Username and password both needed to login\."\s*\}`),
			},
		},
	}

	ts := newTestServer(t, "")
	ts.registerUser(t, "alice", "some password")

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetHeader("Content-Type", "application/json").
				SetBody(testCase.request.body).
				Post(fmt.Sprintf("%s/loginUser", ts.srv.URL))
			assert.NoError(t, err, "error making HTTP request")

			assert.Equal(t, testCase.expectedResponse.code, resp.StatusCode(), "Response code didn't match expected value")

			if testCase.expectedResponse.body != nil {
				assert.NotNil(
					t,
					testCase.expectedResponse.body.FindIndex(resp.Body()),
					fmt.Sprintf(
						"The response body should match expected value (%s)",
						testCase.expectedResponse.body.String(),
					),
				)
			}
		})
	}
}

func TestNoteRoutesRequireAuthentication(t *testing.T) {
	type tTestCase struct {
		name   string
		method string
		url    string
	}
	testCases := []tTestCase{
		{"post_note", http.MethodPost, "/postNote"},
		{"get_note", http.MethodGet, "/getNote/2c126862-11bf-4ae1-9ec1-45fbaf1c8d6b"},
		{"get_all_notes", http.MethodGet, "/getAllNotes"},
		{"delete_note", http.MethodDelete, "/deleteNote/2c126862-11bf-4ae1-9ec1-45fbaf1c8d6b"},
		{"edit_note", http.MethodPatch, "/editNote/2c126862-11bf-4ae1-9ec1-45fbaf1c8d6b"},
	}

	ts := newTestServer(t, "")
	expectedBody := regexp.MustCompile(`\{\s*"error"\s*:\s*"Unauthorized\."\s*\}`)

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := resty.New().R()
			req.Method = testCase.method
			req.URL = ts.srv.URL + testCase.url

			resp, err := req.Send()
			assert.NoError(t, err, "error making HTTP request")

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
			assert.NotNil(t, expectedBody.FindIndex(resp.Body()))
		})
	}
}

func TestNotesLifecycle(t *testing.T) {
	ts := newTestServer(t, "")
	aliceToken := ts.registerUser(t, "alice", "alice password")
	bobToken := ts.registerUser(t, "bob", "bob password")

	client := resty.New()

	// Alice stores a note.
	resp, err := client.R().
		SetAuthToken(aliceToken).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"title": "groceries", "content": "milk, eggs"}`).
		Post(ts.srv.URL + "/postNote")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var postNoteResponse models.PostNoteResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &postNoteResponse))
	assert.Equal(t, "Note added successfully.", postNoteResponse.Response)
	require.NotEmpty(t, postNoteResponse.InsertedID)
	noteID := postNoteResponse.InsertedID

	// A note without both fields is rejected.
	resp, err = client.R().
		SetAuthToken(aliceToken).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"title": "only a title"}`).
		Post(ts.srv.URL + "/postNote")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	// The note is visible to its owner.
	resp, err = client.R().
		SetAuthToken(aliceToken).
		Get(ts.srv.URL + "/getNote/" + noteID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var noteResponse models.NoteResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &noteResponse))
	assert.Equal(t, "groceries", noteResponse.Response.Title)
	assert.Equal(t, "milk, eggs", noteResponse.Response.Content)
	assert.Equal(t, "alice", noteResponse.Response.Username)

	// And invisible to everyone else.
	resp, err = client.R().
		SetAuthToken(bobToken).
		Get(ts.srv.URL + "/getNote/" + noteID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = client.R().
		SetAuthToken(bobToken).
		Get(ts.srv.URL + "/getAllNotes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var bobNotes models.NotesResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &bobNotes))
	assert.Empty(t, bobNotes.Response)

	resp, err = client.R().
		SetAuthToken(aliceToken).
		Get(ts.srv.URL + "/getAllNotes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var aliceNotes models.NotesResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &aliceNotes))
	require.Len(t, aliceNotes.Response, 1)
	assert.Equal(t, noteID, aliceNotes.Response[0].ID)

	// A malformed identifier is rejected before any lookup.
	resp, err = client.R().
		SetAuthToken(aliceToken).
		Get(ts.srv.URL + "/getNote/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	var errorResponse models.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &errorResponse))
	assert.Equal(t, "Invalid note ID.", errorResponse.Error)

	// Editing merges only the supplied fields.
	resp, err = client.R().
		SetAuthToken(aliceToken).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"content": "milk, eggs, bread"}`).
		Patch(ts.srv.URL + "/editNote/" + noteID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var editResponse models.EditNoteResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &editResponse))
	assert.Equal(t, fmt.Sprintf("Document with ID %s properly updated.", noteID), editResponse.Response)
	assert.Equal(t, models.EditResult{MatchedCount: 1, ModifiedCount: 1}, editResponse.Result)

	resp, err = client.R().
		SetAuthToken(aliceToken).
		Get(ts.srv.URL + "/getNote/" + noteID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(resp.Body(), &noteResponse))
	assert.Equal(t, "groceries", noteResponse.Response.Title)
	assert.Equal(t, "milk, eggs, bread", noteResponse.Response.Content)

	// An edit with nothing to change is rejected.
	resp, err = client.R().
		SetAuthToken(aliceToken).
		SetHeader("Content-Type", "application/json").
		SetBody(`{}`).
		Patch(ts.srv.URL + "/editNote/" + noteID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	require.NoError(t, json.Unmarshal(resp.Body(), &errorResponse))
	assert.Equal(t, "Invalid body parameters.", errorResponse.Error)

	// Deleting someone else's note answers the same 404 as a missing one.
	resp, err = client.R().
		SetAuthToken(bobToken).
		Delete(ts.srv.URL + "/deleteNote/" + noteID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = client.R().
		SetAuthToken(aliceToken).
		Delete(ts.srv.URL + "/deleteNote/" + noteID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var confirmation models.ConfirmationResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &confirmation))
	assert.Equal(t, fmt.Sprintf("Document with ID %s properly deleted.", noteID), confirmation.Response)

	resp, err = client.R().
		SetAuthToken(aliceToken).
		Delete(ts.srv.URL + "/deleteNote/" + noteID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestGetPing(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := resty.New().R().Get(ts.srv.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestGetPingStorageFailure(t *testing.T) {
	err := logger.Init("debug")
	require.NoError(t, err)

	theDB := new(mockstorage.StorageMock)
	theDB.On("Ping", mock.Anything).Return(errors.New("the storage is unreachable"))

	theIPChecker, err := ipchecker.New("")
	require.NoError(t, err)

	theAuth := auth.New(testTokenSigningSecretKey, time.Hour)
	router := New(service.New(theDB), theDB, theAuth, theIPChecker)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := resty.New().R().Get(srv.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	theDB.AssertExpectations(t)
}

func TestGetApiinternalstats(t *testing.T) {
	type tTestCase struct {
		name          string
		trustedSubnet string
		clientIP      string
		registerUsers []string
		expectedCode  int
		expectedBody  *regexp.Regexp
	}
	testCases := []tTestCase{
		{
			name:          "no_subnet_configured",
			trustedSubnet: "",
			clientIP:      "192.168.1.10",
			expectedCode:  http.StatusForbidden,
			expectedBody:  regexp.MustCompile(`\{\s*"error"\s*:\s*"Forbidden\."\s*\}`),
		},
		{
			name:          "client_outside_subnet",
			trustedSubnet: "192.168.1.0/24",
			clientIP:      "10.0.0.1",
			expectedCode:  http.StatusForbidden,
			expectedBody:  regexp.MustCompile(`\{\s*"error"\s*:\s*"Forbidden\."\s*\}`),
		},
		{
			name:          "client_inside_subnet",
			trustedSubnet: "192.168.1.0/24",
			clientIP:      "192.168.1.10",
			registerUsers: []string{"alice", "bob"},
			expectedCode:  http.StatusOK,
			expectedBody:  regexp.MustCompile(`\{\s*"users"\s*:\s*2\s*,\s*"notes"\s*:\s*0\s*\}`),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ts := newTestServer(t, testCase.trustedSubnet)
			for _, username := range testCase.registerUsers {
				ts.registerUser(t, username, "some password")
			}

			resp, err := resty.New().R().
				SetHeader("X-Real-IP", testCase.clientIP).
				Get(ts.srv.URL + "/api/internal/stats")
			require.NoError(t, err)

			assert.Equal(t, testCase.expectedCode, resp.StatusCode())
			if testCase.expectedBody != nil {
				assert.NotNil(
					t,
					testCase.expectedBody.FindIndex(resp.Body()),
					fmt.Sprintf(
						"The response body should match expected value (%s)",
						testCase.expectedBody.String(),
					),
				)
			}
		})
	}
}

func TestPostLoginuserStorageFailure(t *testing.T) {
	err := logger.Init("debug")
	require.NoError(t, err)

	theDB := new(mockstorage.StorageMock)
	theDB.On("FindUser", mock.Anything, "alice").Return(nil, errors.New("the storage exploded"))

	theIPChecker, err := ipchecker.New("")
	require.NoError(t, err)

	theAuth := auth.New(testTokenSigningSecretKey, time.Hour)
	router := New(service.New(theDB), theDB, theAuth, theIPChecker)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(`{"username": "alice", "password": "some password"}`).
		Post(srv.URL + "/loginUser")
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "the storage exploded")
	theDB.AssertExpectations(t)
}
