package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smallbiznis/boardview/internal/config"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/http/middleware"
	"github.com/smallbiznis/boardview/internal/repository"
	authsvc "github.com/smallbiznis/boardview/internal/service/auth"
	boardsvc "github.com/smallbiznis/boardview/internal/service/board"
)

// BoardHandler orchestrates the login flow and board endpoints.
type BoardHandler struct {
	Flow        authsvc.FlowService
	Aggregator  boardsvc.Aggregator
	Reports     *boardsvc.ReportService
	Credentials repository.CredentialStore
	Config      config.Config
}

// NewBoardHandler creates the handler set.
func NewBoardHandler(flow authsvc.FlowService, aggregator boardsvc.Aggregator, reports *boardsvc.ReportService, credentials repository.CredentialStore, cfg config.Config) *BoardHandler {
	return &BoardHandler{
		Flow:        flow,
		Aggregator:  aggregator,
		Reports:     reports,
		Credentials: credentials,
		Config:      cfg,
	}
}

// Index serves a minimal landing page with the login entry point.
func (h *BoardHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
		`<h1>BoardView</h1><p><a href="/login">Login with your board provider</a></p>`))
}

// Login starts the OAuth1 handshake and redirects the user to the provider's
// authorization page.
func (h *BoardHandler) Login(c *gin.Context) {
	redirectURL, err := h.Flow.BeginLogin(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

// Callback completes the handshake: validates the returned token id and
// verifier, exchanges them for an access credential, and binds the credential
// to a fresh session.
func (h *BoardHandler) Callback(c *gin.Context) {
	tokenID := c.Query("oauth_token")
	verifier := c.Query("oauth_verifier")

	cred, err := h.Flow.CompleteLogin(c.Request.Context(), tokenID, verifier)
	if err != nil {
		writeError(c, err)
		return
	}

	sessionID := uuid.NewString()
	if err := h.Credentials.Set(c.Request.Context(), sessionID, *cred, h.Config.SessionTTL); err != nil {
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, sessionID, int(h.Config.SessionTTL.Seconds()), "/", "", h.Config.Environment != "development", true)
	c.Redirect(http.StatusFound, "/api/boards")
}

// Logout clears the session credential and cookie.
func (h *BoardHandler) Logout(c *gin.Context) {
	if sessionID, ok := middleware.SessionID(c); ok {
		if err := h.Credentials.Delete(c.Request.Context(), sessionID); err != nil {
			writeError(c, err)
			return
		}
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.Config.Environment != "development", true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// ListBoards returns the authenticated user's boards.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	cred, ok := h.credential(c)
	if !ok {
		return
	}
	boards, err := h.Aggregator.ListBoards(c.Request.Context(), cred)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

// GetBoard returns the full aggregate snapshot for one board.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	cred, ok := h.credential(c)
	if !ok {
		return
	}
	snapshot, err := h.Aggregator.Aggregate(c.Request.Context(), cred, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetBoardReport aggregates the board and asks the summarizer for a
// narrative report. A summarizer failure degrades to a snapshot-only
// response; it never fails the aggregation.
func (h *BoardHandler) GetBoardReport(c *gin.Context) {
	cred, ok := h.credential(c)
	if !ok {
		return
	}
	snapshot, err := h.Aggregator.Aggregate(c.Request.Context(), cred, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if !h.Reports.Enabled() {
		c.JSON(http.StatusOK, gin.H{"snapshot": snapshot, "report_error": "report generation is not configured"})
		return
	}
	report, err := h.Reports.Report(c.Request.Context(), snapshot)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": snapshot, "report_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot, "report": report})
}

// credential resolves the caller's access credential from the session cookie,
// writing the error response itself when there is none.
func (h *BoardHandler) credential(c *gin.Context) (*domainoauth.AccessCredential, bool) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		writeError(c, domainoauth.ErrUnauthenticated)
		return nil, false
	}
	cred, err := h.Credentials.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return cred, true
}

// writeError maps the error taxonomy onto HTTP statuses with enough
// structure for API consumers to distinguish the failure classes.
func writeError(c *gin.Context, err error) {
	var rejected *domainoauth.ProviderRejectedError
	var unreachable *domainoauth.ProviderUnreachableError

	switch {
	case errors.Is(err, domainoauth.ErrMissingParameter):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Missing oauth_token or oauth_verifier.",
		})
	case errors.Is(err, domainoauth.ErrUnknownToken), errors.Is(err, domainoauth.ErrTokenMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "The request token is unknown, expired, or already used.",
		})
	case errors.Is(err, domainoauth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthenticated",
			"error_description": "No active session. Visit /login first.",
		})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "provider_rejected",
			"error_description": "The board provider rejected the request.",
			"provider_status":   rejected.StatusCode,
			"provider_body":     rejected.Body,
		})
	case errors.As(err, &unreachable):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":             "provider_unreachable",
			"error_description": "The board provider could not be reached.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": err.Error(),
		})
	}
}
