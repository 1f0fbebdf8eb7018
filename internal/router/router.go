// Package router assembles the HTTP surface of the notes backend: public
// registration/login routes, the bearer-token-gated note routes, a health
// ping and a trusted-subnet-only stats endpoint.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/quirknotes/internal/auth"
	"github.com/patric-chuzhbe/quirknotes/internal/gzippedhttp"
	"github.com/patric-chuzhbe/quirknotes/internal/ipchecker"
	"github.com/patric-chuzhbe/quirknotes/internal/logger"
	"github.com/patric-chuzhbe/quirknotes/internal/models"
	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/service"
)

type noteService interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (bool, error)
	CreateNote(ctx context.Context, title, content, username string) (string, error)
	GetNote(ctx context.Context, noteID, username string) (*note.Note, error)
	GetUserNotes(ctx context.Context, username string) ([]note.Note, error)
	DeleteNote(ctx context.Context, noteID, username string) error
	EditNote(ctx context.Context, noteID, username, title, content string) (models.EditResult, error)
	GetStats(ctx context.Context) (models.StatsResponse, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	BuildJWTString(username string) (string, error)
}

// Router holds the handlers of the HTTP API.
type Router struct {
	svc       noteService
	db        pinger
	auth      authenticator
	ipChecker *ipchecker.IPChecker
	validate  *validator.Validate
}

// New assembles the chi mux: logging and gzip middleware on every route,
// the authentication gate only on the note routes.
func New(
	svc noteService,
	db pinger,
	theAuth authenticator,
	theIPChecker *ipchecker.IPChecker,
) *chi.Mux {
	theRouter := &Router{
		svc:       svc,
		db:        db,
		auth:      theAuth,
		ipChecker: theIPChecker,
		validate:  validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipJSONAndTextHTMLRequest,
		gzippedhttp.GzipResponse,
	)

	router.Post(`/registerUser`, theRouter.PostRegisteruser)
	router.Post(`/loginUser`, theRouter.PostLoginuser)
	router.Get(`/ping`, theRouter.GetPing)
	router.Get(`/api/internal/stats`, theRouter.GetApiinternalstats)

	// The gate runs before any note handler; no note operation is reachable
	// without a valid, unexpired token.
	router.Group(func(gated chi.Router) {
		gated.Use(theAuth.AuthenticateUser)

		gated.Post(`/postNote`, theRouter.PostPostnote)
		gated.Get(`/getNote/{noteId}`, theRouter.GetGetnote)
		gated.Get(`/getAllNotes`, theRouter.GetGetallnotes)
		gated.Delete(`/deleteNote/{noteId}`, theRouter.DeleteDeletenote)
		gated.Patch(`/editNote/{noteId}`, theRouter.PatchEditnote)
	})

	return router
}

// PostRegisteruser handles POST /registerUser: it stores the new account and
// answers 201 with a freshly minted token. A taken username answers 400; the
// storage constraint is the authoritative conflict signal.
func (theRouter *Router) PostRegisteruser(response http.ResponseWriter, request *http.Request) {
	var credentials models.CredentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&credentials); err != nil {
		writeError(response, http.StatusBadRequest, "Username and password both needed to register.")
		return
	}
	if err := theRouter.validate.Struct(credentials); err != nil {
		writeError(response, http.StatusBadRequest, "Username and password both needed to register.")
		return
	}

	err := theRouter.svc.Register(request.Context(), credentials.Username, credentials.Password)
	if errors.Is(err, service.ErrUserExists) {
		writeError(response, http.StatusBadRequest, "Username already exists.")
		return
	}
	if err != nil {
		writeInternalError(response, err)
		return
	}

	token, err := theRouter.auth.BuildJWTString(credentials.Username)
	if err != nil {
		writeInternalError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.AuthResponse{
		Response: "User registered successfully.",
		Token:    token,
	})
}

// PostLoginuser handles POST /loginUser: it verifies the credentials and
// answers with a token. Unknown usernames and wrong passwords are both 401.
func (theRouter *Router) PostLoginuser(response http.ResponseWriter, request *http.Request) {
	var credentials models.CredentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&credentials); err != nil {
		writeError(response, http.StatusBadRequest, "Username and password both needed to login.")
		return
	}
	if err := theRouter.validate.Struct(credentials); err != nil {
		writeError(response, http.StatusBadRequest, "Username and password both needed to login.")
		return
	}

	authenticated, err := theRouter.svc.Authenticate(request.Context(), credentials.Username, credentials.Password)
	if err != nil {
		writeInternalError(response, err)
		return
	}
	if !authenticated {
		writeError(response, http.StatusUnauthorized, "Authentication failed.")
		return
	}

	token, err := theRouter.auth.BuildJWTString(credentials.Username)
	if err != nil {
		writeInternalError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.AuthResponse{
		Response: "User logged in successfully.",
		Token:    token,
	})
}

// PostPostnote handles POST /postNote for the authenticated user.
func (theRouter *Router) PostPostnote(response http.ResponseWriter, request *http.Request) {
	username, ok := auth.GetUsername(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	var noteRequest models.PostNoteRequest
	if err := json.NewDecoder(request.Body).Decode(&noteRequest); err != nil {
		writeError(response, http.StatusBadRequest, "Title and content are both required.")
		return
	}
	if err := theRouter.validate.Struct(noteRequest); err != nil {
		writeError(response, http.StatusBadRequest, "Title and content are both required.")
		return
	}

	insertedID, err := theRouter.svc.CreateNote(
		request.Context(),
		noteRequest.Title,
		noteRequest.Content,
		username,
	)
	if err != nil {
		writeInternalError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PostNoteResponse{
		Response:   "Note added successfully.",
		InsertedID: insertedID,
	})
}

// GetGetnote handles GET /getNote/{noteId} for the authenticated user.
// A foreign note is indistinguishable from a nonexistent one: both are 404.
func (theRouter *Router) GetGetnote(response http.ResponseWriter, request *http.Request) {
	username, ok := auth.GetUsername(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	noteID := chi.URLParam(request, "noteId")

	theNote, err := theRouter.svc.GetNote(request.Context(), noteID, username)
	switch {
	case errors.Is(err, service.ErrInvalidNoteID):
		writeError(response, http.StatusBadRequest, "Invalid note ID.")
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(response, http.StatusNotFound, "Unable to find note with given ID.")
	case err != nil:
		writeInternalError(response, err)
	default:
		writeJSON(response, http.StatusOK, models.NoteResponse{Response: *theNote})
	}
}

// GetGetallnotes handles GET /getAllNotes for the authenticated user.
// A user with zero notes gets an empty list, not an error.
func (theRouter *Router) GetGetallnotes(response http.ResponseWriter, request *http.Request) {
	username, ok := auth.GetUsername(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	notes, err := theRouter.svc.GetUserNotes(request.Context(), username)
	if err != nil {
		writeInternalError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.NotesResponse{Response: notes})
}

// DeleteDeletenote handles DELETE /deleteNote/{noteId} for the authenticated user.
func (theRouter *Router) DeleteDeletenote(response http.ResponseWriter, request *http.Request) {
	username, ok := auth.GetUsername(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	noteID := chi.URLParam(request, "noteId")

	err := theRouter.svc.DeleteNote(request.Context(), noteID, username)
	switch {
	case errors.Is(err, service.ErrInvalidNoteID):
		writeError(response, http.StatusBadRequest, "Invalid note ID.")
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(
			response,
			http.StatusNotFound,
			fmt.Sprintf("Note with ID %s belonging to the user not found.", noteID),
		)
	case err != nil:
		writeInternalError(response, err)
	default:
		writeJSON(response, http.StatusOK, models.ConfirmationResponse{
			Response: fmt.Sprintf("Document with ID %s properly deleted.", noteID),
		})
	}
}

// PatchEditnote handles PATCH /editNote/{noteId} for the authenticated user.
// The update is a partial merge: only non-empty fields replace stored values,
// and a body with both fields empty is rejected outright.
func (theRouter *Router) PatchEditnote(response http.ResponseWriter, request *http.Request) {
	username, ok := auth.GetUsername(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	noteID := chi.URLParam(request, "noteId")

	var editRequest models.EditNoteRequest
	if err := json.NewDecoder(request.Body).Decode(&editRequest); err != nil {
		writeError(response, http.StatusBadRequest, "Invalid body parameters.")
		return
	}
	if editRequest.Title == "" && editRequest.Content == "" {
		writeError(response, http.StatusBadRequest, "Invalid body parameters.")
		return
	}

	result, err := theRouter.svc.EditNote(
		request.Context(),
		noteID,
		username,
		editRequest.Title,
		editRequest.Content,
	)
	switch {
	case errors.Is(err, service.ErrInvalidNoteID):
		writeError(response, http.StatusBadRequest, "Invalid note ID.")
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(
			response,
			http.StatusNotFound,
			fmt.Sprintf("Note with ID %s belonging to the user not found.", noteID),
		)
	case err != nil:
		writeInternalError(response, err)
	default:
		writeJSON(response, http.StatusOK, models.EditNoteResponse{
			Response: fmt.Sprintf("Document with ID %s properly updated.", noteID),
			Result:   result,
		})
	}
}

// GetPing handles GET /ping and reports storage reachability.
func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.db.Ping(request.Context()); err != nil {
		writeInternalError(response, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetApiinternalstats handles GET /api/internal/stats. The endpoint is only
// served to clients from the configured trusted subnet; with no subnet
// configured it answers 403 unconditionally.
func (theRouter *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	if theRouter.ipChecker.IsTrustedSubnetEmpty() {
		writeError(response, http.StatusForbidden, "Forbidden.")
		return
	}

	clientIP, err := theRouter.ipChecker.GetClientIP(request)
	if err != nil || !theRouter.ipChecker.Check(clientIP) {
		writeError(response, http.StatusForbidden, "Forbidden.")
		return
	}

	stats, err := theRouter.svc.GetStats(request.Context())
	if err != nil {
		writeInternalError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response payload: ", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, statusCode int, message string) {
	writeJSON(response, statusCode, models.ErrorResponse{Error: message})
}

// writeInternalError answers 500 with the underlying error message.
func writeInternalError(response http.ResponseWriter, err error) {
	writeError(response, http.StatusInternalServerError, err.Error())
}
