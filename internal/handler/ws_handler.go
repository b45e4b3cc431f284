package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"modmarket/internal/config"
	"modmarket/internal/monitor"
	"modmarket/internal/repository"
	"modmarket/internal/service/auth"
	"modmarket/internal/ws"
	"modmarket/pkg/log"
	"modmarket/pkg/utils"
)

// WSHandler upgrades authenticated clients onto the live hub
type WSHandler struct {
	hub          *ws.Hub
	authService  auth.AuthService
	userRepo     repository.UserRepository
	upgrader     websocket.Upgrader
	readLimit    int64
	writeTimeout time.Duration
}

// NewWSHandler creates a websocket handler
func NewWSHandler(hub *ws.Hub, authService auth.AuthService, userRepo repository.UserRepository, cfg *config.WSConfig) *WSHandler {
	return &WSHandler{
		hub:         hub,
		authService: authService,
		userRepo:    userRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Browsers cannot set an Authorization header on a websocket,
			// so the token rides in the query string and origin checks are
			// left to the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		readLimit:    cfg.ReadLimit,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Serve authenticates the token from the query string, upgrades the
// connection, and pumps it until it drops. The pre-upgrade auth failure is
// the only JSON error this endpoint returns; after the upgrade all errors
// are socket closes.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, utils.CodeUnauthorized, "missing token")
		return
	}

	claims, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("ws upgrade for user %d failed: %v", claims.UserID, err)
		return
	}

	wsConn := ws.WrapConn(conn, h.writeTimeout)
	connID := h.hub.Register(claims.UserID, wsConn)
	monitor.SetWSConnections(h.hub.OnlineCount())

	client := ws.NewClient(h.hub, wsConn, claims.UserID, connID, h.readLimit)
	client.ReadPump(func(userID uint64) {
		// Activity updates outlive the request context on purpose; the
		// socket is long-lived while c.Request.Context() is not.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := h.userRepo.TouchActivity(ctx, userID, time.Now()); err != nil {
			log.Debugf("touch activity for user %d: %v", userID, err)
		}
	})

	monitor.SetWSConnections(h.hub.OnlineCount())
}
