package quiz

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Sender 房間對單一連線的出站介面。
// Send 不得阻塞；送往已斷線或佇列已滿的連線回傳 false。
type Sender interface {
	Send(v interface{}) bool
	Close()
}

// Client 代表一個 WebSocket 客戶端連線
type Client struct {
	conn   *websocket.Conn
	UserID uint
	Name   string

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient 建立客戶端連線，設置緩衝大小為 64 的出站佇列
func NewClient(conn *websocket.Conn, userID uint, name string) *Client {
	return &Client{
		conn:   conn,
		UserID: userID,
		Name:   name,
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

// Send 將訊息編碼後排入出站佇列。
// 佇列已滿表示連線過慢，回傳 false 交由呼叫端決定是否斷線。
func (c *Client) Send(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("message encoding error: %v", err)
		return true
	}
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close 關閉連線，重複呼叫安全
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump 持續讀取入站訊框並交給 handle 處理，連線結束時返回
func (c *Client) ReadPump(handle func(raw []byte)) {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			return
		}
		handle(raw)
	}
}

// WritePump 處理向客戶端發送訊息的邏輯，含心跳
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
