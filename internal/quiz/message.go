package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 封閉的訊息集合。入站與出站各是一組帶 type 標記的 JSON 訊息，
// 在編解碼邊界驗證完畢，房間狀態機只會看到格式正確的事件。

// InboundKind 入站訊息的類型標記
type InboundKind string

const (
	InHost   InboundKind = "host"
	InJoin   InboundKind = "join"
	InStart  InboundKind = "start"
	InNext   InboundKind = "next"
	InAnswer InboundKind = "answer"
)

// HostPayload 主持人建立房間
type HostPayload struct {
	SetID   uint    `json:"setId"`
	Name    string  `json:"name"`
	Options Options `json:"options"`
}

// JoinPayload 參加者以房間代碼加入
type JoinPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// RoomPayload 指向某房間的主持人指令（start / next）
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// AnswerPayload 參加者作答
type AnswerPayload struct {
	RoomID string `json:"roomId"`
	Answer int    `json:"answer"`
}

// InboundMessage 解碼後的入站訊息，依 Kind 只有對應的欄位非 nil
type InboundMessage struct {
	Kind   InboundKind
	Host   *HostPayload
	Join   *JoinPayload
	Room   *RoomPayload
	Answer *AnswerPayload
}

type inboundEnvelope struct {
	Type InboundKind `json:"type"`
}

// DecodeInbound 解析並驗證一則入站訊息
func DecodeInbound(raw []byte) (*InboundMessage, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("無法解析訊息: %w", err)
	}

	msg := &InboundMessage{Kind: env.Type}
	switch env.Type {
	case InHost:
		var p HostPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.SetID == 0 {
			return nil, errors.New("缺少題目集 ID")
		}
		msg.Host = &p
	case InJoin:
		var p JoinPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, errors.New("缺少房間代碼")
		}
		if p.Name == "" {
			return nil, errors.New("缺少顯示名稱")
		}
		msg.Join = &p
	case InStart, InNext:
		var p RoomPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, errors.New("缺少房間代碼")
		}
		msg.Room = &p
	case InAnswer:
		var p AnswerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, errors.New("缺少房間代碼")
		}
		if p.Answer < 0 {
			return nil, ErrInvalidAnswer
		}
		msg.Answer = &p
	default:
		return nil, fmt.Errorf("未知的訊息類型: %q", env.Type)
	}
	return msg, nil
}

// 出站訊息類型
const (
	OutRoom     = "room"
	OutJoined   = "joined"
	OutStart    = "start"
	OutProgress = "progress"
	OutNext     = "next"
	OutReveal   = "reveal"
	OutEnd      = "end"
	OutState    = "state"
	OutError    = "error"
)

// RoomMsg 房間建立成功，回覆給主持人
type RoomMsg struct {
	Type         string  `json:"type"`
	RoomID       string  `json:"roomId"`
	QuestionTime int     `json:"questionTime"`
	Options      Options `json:"options"`
}

// JoinedMsg 加入成功，回覆給參加者
type JoinedMsg struct {
	Type string `json:"type"`
	Mode Mode   `json:"mode"`
}

// QuestionMsg 回合開始（start 為第一回合，next 為之後的回合）
type QuestionMsg struct {
	Type     string         `json:"type"`
	Current  int            `json:"current"`
	Question ClientQuestion `json:"question"`
	EndsAt   int64          `json:"endsAt"` // 回合截止時間（Unix 毫秒）
}

// ProgressMsg 作答進度廣播
type ProgressMsg struct {
	Type     string `json:"type"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

// RevealMsg 揭曉：正解、各選項票數、最新排行榜與模式事件
type RevealMsg struct {
	Type         string             `json:"type"`
	CorrectIndex int                `json:"correctIndex"`
	Counts       []int              `json:"counts"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	Steals       []StealEvent       `json:"steals,omitempty"`
	Eliminated   []uint             `json:"eliminated,omitempty"`
}

// EndMsg 遊戲結束與最終排行榜
type EndMsg struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	RoomID      string             `json:"roomId"`
}

// StateMsg 房間現況，用於名單變動廣播與重連同步
type StateMsg struct {
	Type         string             `json:"type"`
	Participants []LeaderboardEntry `json:"participants"`
	Mode         Mode               `json:"mode"`
}

// ErrorMsg 回覆給單一連線的錯誤
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorMsg(err error) ErrorMsg {
	return ErrorMsg{Type: OutError, Message: err.Error()}
}
