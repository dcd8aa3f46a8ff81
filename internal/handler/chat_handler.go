package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tour-app/internal/chat"
	"tour-app/internal/services"
)

// ChatHandler апгрейдит HTTP-соединения в вебсокеты чата поддержки.
// Личность берётся из JWT-контекста, payload клиента не авторитетен.
type ChatHandler struct {
	hub      *chat.Hub
	auth     *services.AuthService
	archive  *services.SupportArchive
	upgrader websocket.Upgrader
}

func NewChatHandler(hub *chat.Hub, auth *services.AuthService, archive *services.SupportArchive, allowedOrigins string) *ChatHandler {
	origins := strings.Split(allowedOrigins, ",")
	allowAll := allowedOrigins == "" || allowedOrigins == "*"
	originSet := make(map[string]bool, len(origins))
	for _, o := range origins {
		originSet[strings.TrimSpace(o)] = true
	}

	return &ChatHandler{
		hub:     hub,
		auth:    auth,
		archive: archive,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // не-браузерные клиенты
				}
				return originSet[origin]
			},
		},
	}
}

// ServeVisitor вебсокет посетителя: /ws/support
func (h *ChatHandler) ServeVisitor(c *gin.Context) {
	visitor, ok := h.identity(c)
	if !ok {
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[CHAT] Failed to upgrade visitor connection: %v", err)
		return
	}
	conn := chat.NewConn(ws)
	defer conn.Close()

	chat.ServeVisitor(h.hub, conn, visitor)
}

// ServeAgent вебсокет агента поддержки: /ws/support/agent,
// защищён RequireRoles("manager", "admin") на уровне роутера
func (h *ChatHandler) ServeAgent(c *gin.Context) {
	visitor, ok := h.identity(c)
	if !ok {
		return
	}
	agent := chat.Agent{ID: visitor.ID, Name: visitor.Name, Email: visitor.Email}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[CHAT] Failed to upgrade agent connection: %v", err)
		return
	}
	conn := chat.NewConn(ws)
	defer conn.Close()

	chat.ServeAgent(h.hub, conn, agent)
}

// GetHistory закрытые обращения текущего пользователя: GET /api/support/history
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID := c.GetString("userId")
	sessions, err := h.archive.GetHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *ChatHandler) identity(c *gin.Context) (chat.Visitor, bool) {
	userID := c.GetString("userId")
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return chat.Visitor{}, false
	}

	visitor := chat.Visitor{ID: userID}
	if user, err := h.auth.GetProfile(c.Request.Context(), objID); err == nil {
		visitor.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)
		visitor.Email = user.Email
	}
	return visitor, true
}
