package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/metrics"
	"github.com/go-socialgate/socialgate/internal/middleware"
)

// ConnectHandler manages the session user's provider connections: the
// connect handshake, status listing, token refresh and disconnect.
type ConnectHandler struct {
	registry  *connect.Registry
	usersRepo connect.UsersConnectionRepository
	handshake *handshake
	baseURL   string
	metrics   metrics.Recorder
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(
	registry *connect.Registry,
	usersRepo connect.UsersConnectionRepository,
	stateCache cache.Cache[string],
	stateTTL time.Duration,
	baseURL string,
	m metrics.Recorder,
) *ConnectHandler {
	return &ConnectHandler{
		registry:  registry,
		usersRepo: usersRepo,
		handshake: &handshake{stateCache: stateCache, stateTTL: stateTTL},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		metrics:   m,
	}
}

// connectionView is the wire shape of one connection. Token material never
// leaves the server.
type connectionView struct {
	ProviderID     string `json:"provider_id"`
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`
	ProfileURL     string `json:"profile_url"`
	ImageURL       string `json:"image_url"`
	Expired        bool   `json:"expired"`
}

func toView(conn connect.Connection) connectionView {
	key := conn.Key()
	return connectionView{
		ProviderID:     key.ProviderID,
		ProviderUserID: key.ProviderUserID,
		DisplayName:    conn.DisplayName(),
		ProfileURL:     conn.ProfileURL(),
		ImageURL:       conn.ImageURL(),
		Expired:        conn.HasExpired(),
	}
}

func (h *ConnectHandler) repository(c *gin.Context) connect.ConnectionRepository {
	return h.usersRepo.CreateConnectionRepository(middleware.CurrentUserID(c))
}

func (h *ConnectHandler) callbackURL(providerID string) string {
	return h.baseURL + "/connect/" + providerID + "/callback"
}

// StatusAll returns the session user's connections for every registered
// provider, connected or not.
func (h *ConnectHandler) StatusAll(c *gin.Context) {
	all, err := h.repository(c).FindAllConnections(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	result := make(map[string][]connectionView, len(all))
	for providerID, conns := range all {
		views := make([]connectionView, 0, len(conns))
		for _, conn := range conns {
			views = append(views, toView(conn))
		}
		result[providerID] = views
	}
	c.JSON(http.StatusOK, gin.H{"connections": result})
}

// Status returns the session user's connections to one provider in rank
// order.
func (h *ConnectHandler) Status(c *gin.Context) {
	providerID := c.Param("provider")
	if _, err := h.registry.ByProviderID(providerID); err != nil {
		writeError(c, err)
		return
	}

	conns, err := h.repository(c).FindConnections(c.Request.Context(), providerID)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]connectionView, 0, len(conns))
	for _, conn := range conns {
		views = append(views, toView(conn))
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": providerID, "connections": views})
}

// Start begins the connect handshake and redirects to the provider.
func (h *ConnectHandler) Start(c *gin.Context) {
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

// Callback completes the handshake and persists the connection. Reconnecting
// an already-connected provider account refreshes its stored tokens and
// profile instead of failing.
func (h *ConnectHandler) Callback(c *gin.Context) {
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

	repo := h.repository(c)
	ctx := c.Request.Context()
	status := http.StatusCreated
	if err := repo.AddConnection(ctx, conn); err != nil {
		if !errors.Is(err, connect.ErrDuplicateConnection) {
			writeError(c, err)
			return
		}
		// Reconnect: keep the rank, rotate the stored credentials.
		if err := repo.UpdateConnection(ctx, conn); err != nil {
			writeError(c, err)
			return
		}
		status = http.StatusOK
	} else {
		h.metrics.RecordConnectionAdded(providerID)
	}

	c.JSON(status, gin.H{"connection": toView(conn)})
}

// Refresh rotates the primary connection's access token and persists the
// result.
func (h *ConnectHandler) Refresh(c *gin.Context) {
	providerID := c.Param("provider")
	if _, err := h.registry.ByProviderID(providerID); err != nil {
		writeError(c, err)
		return
	}

	repo := h.repository(c)
	ctx := c.Request.Context()
	conn, err := repo.GetPrimaryConnection(ctx, providerID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := conn.Refresh(ctx); err != nil {
		h.metrics.RecordConnectionRefresh(providerID, false)
		writeError(c, err)
		return
	}
	if err := repo.UpdateConnection(ctx, conn); err != nil {
		writeError(c, err)
		return
	}

	h.metrics.RecordConnectionRefresh(providerID, true)
	c.JSON(http.StatusOK, gin.H{"connection": toView(conn)})
}

// Disconnect removes all of the session user's connections to a provider.
func (h *ConnectHandler) Disconnect(c *gin.Context) {
	providerID := c.Param("provider")
	if _, err := h.registry.ByProviderID(providerID); err != nil {
		writeError(c, err)
		return
	}

	if err := h.repository(c).RemoveConnections(c.Request.Context(), providerID); err != nil {
		writeError(c, err)
		return
	}

	h.metrics.RecordConnectionRemoved(providerID)
	c.Status(http.StatusNoContent)
}

// DisconnectOne removes a single connection.
func (h *ConnectHandler) DisconnectOne(c *gin.Context) {
	providerID := c.Param("provider")
	if _, err := h.registry.ByProviderID(providerID); err != nil {
		writeError(c, err)
		return
	}

	key := connect.ConnectionKey{
		ProviderID:     providerID,
		ProviderUserID: c.Param("providerUserId"),
	}
	if err := h.repository(c).RemoveConnection(c.Request.Context(), key); err != nil {
		writeError(c, err)
		return
	}

	h.metrics.RecordConnectionRemoved(providerID)
	c.Status(http.StatusNoContent)
}
