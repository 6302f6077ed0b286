package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/metrics"
	"github.com/go-socialgate/socialgate/internal/middleware"
)

const (
	signInResultSignedIn  = "signed_in"
	signInResultSignedUp  = "signed_up"
	signInResultNotFound  = "not_found"
	signInResultAmbiguous = "ambiguous"
)

// SignInHandler signs a user in by provider identity: it runs the same
// handshake as connecting, then resolves the provider account to a local
// user instead of persisting under the session user.
type SignInHandler struct {
	registry  *connect.Registry
	usersRepo connect.UsersConnectionRepository
	handshake *handshake
	baseURL   string
	metrics   metrics.Recorder
}

// NewSignInHandler creates a new sign-in handler. Whether a fresh identity
// mints a local account is decided by the repository's sign-up policy.
func NewSignInHandler(
	registry *connect.Registry,
	usersRepo connect.UsersConnectionRepository,
	stateCache cache.Cache[string],
	stateTTL time.Duration,
	baseURL string,
	m metrics.Recorder,
) *SignInHandler {
	return &SignInHandler{
		registry:  registry,
		usersRepo: usersRepo,
		handshake: &handshake{stateCache: stateCache, stateTTL: stateTTL},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		metrics:   m,
	}
}

func (h *SignInHandler) callbackURL(providerID string) string {
	return h.baseURL + "/signin/" + providerID + "/callback"
}

// Start begins the sign-in handshake and redirects to the provider.
func (h *SignInHandler) Start(c *gin.Context) {
	providerID := c.Param("provider")
	factory, err := h.registry.ByProviderID(providerID)
	if err != nil {
		writeError(c, err)
		return
	}

	authorizeURL, err := h.handshake.start(c, factory, h.callbackURL(providerID))
	if err != nil {
		writeError(c, err)
		return
	}

	h.metrics.RecordHandshakeStarted(providerID)
	c.Redirect(http.StatusFound, authorizeURL)
}

// Callback completes the handshake and resolves the provider identity to a
// local user. Exactly one match signs the session in; zero matches either
// mint an account (when implicit sign-up is on) or return 401; multiple
// matches are ambiguous and return 409.
func (h *SignInHandler) Callback(c *gin.Context) {
	providerID := c.Param("provider")
	factory, err := h.registry.ByProviderID(providerID)
	if err != nil {
		writeError(c, err)
		return
	}

	if denied(c) {
		h.metrics.RecordHandshakeCompleted(providerID, false, 0)
		writeDenied(c)
		return
	}

	started := time.Now()
	conn, err := h.handshake.complete(c, factory, h.callbackURL(providerID))
	if err != nil {
		h.metrics.RecordHandshakeCompleted(providerID, false, 0)
		if errors.Is(err, errHandshakeExpired) {
			writeHandshakeExpired(c)
			return
		}
		writeError(c, err)
		return
	}
	h.metrics.RecordHandshakeCompleted(providerID, true, time.Since(started))

	ctx := c.Request.Context()
	hadConnection, err := h.identityKnown(c, conn)
	if err != nil {
		writeError(c, err)
		return
	}

	userIDs, err := h.usersRepo.FindUserIDsWithConnection(ctx, conn)
	if err != nil {
		writeError(c, err)
		return
	}

	switch len(userIDs) {
	case 0:
		h.metrics.RecordSignIn(providerID, signInResultNotFound)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "signup_required",
			"error_description": "no local user is connected to this provider account",
		})

	case 1:
		result := signInResultSignedIn
		if !hadConnection {
			result = signInResultSignedUp
		}
		session := sessions.Default(c)
		session.Set(middleware.SessionUserID, userIDs[0])
		if err := session.Save(); err != nil {
			log.Printf("[SignIn] Failed to save session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "internal_error",
				"error_description": "failed to establish session",
			})
			return
		}
		h.metrics.RecordSignIn(providerID, result)
		c.JSON(http.StatusOK, gin.H{"user_id": userIDs[0], "result": result})

	default:
		h.metrics.RecordSignIn(providerID, signInResultAmbiguous)
		c.JSON(http.StatusConflict, gin.H{
			"error":             "multiple_users",
			"error_description": "the provider account is connected to more than one local user",
		})
	}
}

// identityKnown reports whether the provider account was already connected to
// some local user before this sign-in resolved.
func (h *SignInHandler) identityKnown(c *gin.Context, conn connect.Connection) (bool, error) {
	key := conn.Key()
	ids, err := h.usersRepo.FindUserIDsConnectedTo(c.Request.Context(),
		key.ProviderID, []string{key.ProviderUserID})
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// Logout clears the session.
func (h *SignInHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[SignIn] Failed to clear session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "internal_error",
			"error_description": "failed to clear session",
		})
		return
	}
	c.Status(http.StatusNoContent)
}
