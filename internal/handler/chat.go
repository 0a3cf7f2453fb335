package handler

import (
	"net/http"
	"time"

	"agency-hub/internal/dto"
	"agency-hub/internal/service"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

type ChatHandler struct {
	chatService service.ChatService
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewChatHandler(chatService service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// tabs of the dashboard are served from other origins in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *ChatHandler) Open(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.OpenChatRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	chat, err := h.chatService.Open(ctx, userID, req.ChatID, req.SupportInteractionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	chat, err := h.chatService.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) Send(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	chat, err := h.chatService.Send(ctx, userID, c.Param("id"), req.ClientID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) Escalate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	chat, err := h.chatService.Escalate(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chat)
}

// Incoming is called by the live chat bridge for agent messages and echoes.
func (h *ChatHandler) Incoming(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.IncomingMessage
	if err := c.Bind(&req); err != nil {
		return err
	}

	chat, err := h.chatService.Receive(ctx, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": chat.Status,
	})
}

// Stream pushes chat events to one browser tab. Events the tab caused itself are not echoed back.
func (h *ChatHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	chatID := c.Param("id")

	sub, err := h.chatService.Subscribe(ctx, userID, chatID, c.QueryParam("client_id"))
	if err != nil {
		return err
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the request
		h.logger.Debug("websocket upgrade failed", zap.String("chat_id", chatID), zap.Error(err))
		return nil
	}

	// the reader only notices the tab going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-done
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", zap.String("chat_id", chatID), zap.Error(err))
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
