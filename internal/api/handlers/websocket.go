package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quiz_web/internal/quiz"
	"quiz_web/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 測驗房間的連線入口。
// 連線的第一則訊息必須是 host 或 join，之後的訊息全部送進
// 該房間的信箱依序處理。
type WebSocketHandler struct {
	registry   *quiz.Registry
	setService *service.StudySetService
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(registry *quiz.Registry, setService *service.StudySetService) *WebSocketHandler {
	return &WebSocketHandler{
		registry:   registry,
		setService: setService,
	}
}

// HandleWebSocket 處理 WebSocket 連接請求
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userIDUint := userID.(uint)
	username, _ := c.Get("username")
	displayName, _ := username.(string)

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// 第一則訊息決定這條連線綁定哪個房間
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	msg, err := quiz.DecodeInbound(raw)
	if err != nil {
		conn.WriteJSON(quiz.NewErrorMsg(err))
		conn.Close()
		return
	}

	var room *quiz.Room
	var client *quiz.Client

	switch msg.Kind {
	case quiz.InHost:
		name := msg.Host.Name
		if name == "" {
			name = displayName
		}
		set, err := h.setService.LoadQuestionSet(msg.Host.SetID)
		if err != nil {
			conn.WriteJSON(quiz.NewErrorMsg(err))
			conn.Close()
			return
		}
		client = quiz.NewClient(conn, userIDUint, name)
		room, err = h.registry.Create(userIDUint, name, set, msg.Host.Options, client)
		if err != nil {
			conn.WriteJSON(quiz.NewErrorMsg(err))
			conn.Close()
			return
		}
		go client.WritePump()
		opts := room.Options()
		client.Send(quiz.RoomMsg{
			Type:         quiz.OutRoom,
			RoomID:       room.Code,
			QuestionTime: opts.QuestionTime,
			Options:      opts,
		})

	case quiz.InJoin:
		room, err = h.registry.Lookup(msg.Join.RoomID)
		if err != nil {
			conn.WriteJSON(quiz.NewErrorMsg(err))
			conn.Close()
			return
		}
		client = quiz.NewClient(conn, userIDUint, msg.Join.Name)
		go client.WritePump()
		room.Join(userIDUint, msg.Join.Name, client)

	default:
		conn.WriteJSON(quiz.NewErrorMsg(quiz.ErrInvalidTransition))
		conn.Close()
		return
	}

	// 之後的訊息交給房間信箱；解碼失敗只回覆錯誤，不中斷連線
	client.ReadPump(func(raw []byte) {
		m, err := quiz.DecodeInbound(raw)
		if err != nil {
			client.Send(quiz.NewErrorMsg(err))
			return
		}
		room.HandleMessage(userIDUint, m)
	})

	room.Disconnect(userIDUint, client)
	client.Close()
}
