package quiz

import "time"

// RoundResult 一回合結束時封存的結果，累積成最終摘要的回合歷史
type RoundResult struct {
	Round        int          `json:"round"`
	CorrectIndex int          `json:"correctIndex"`
	Counts       []int        `json:"counts"`
	Steals       []StealEvent `json:"steals,omitempty"`
	Eliminated   []uint       `json:"eliminated,omitempty"`
}

// Summary 一場完賽遊戲的不可變紀錄
type Summary struct {
	RoomID      string             `json:"roomId"`
	Mode        Mode               `json:"mode"`
	Options     Options            `json:"options"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Rounds      []RoundResult      `json:"rounds"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// SummaryStore 摘要持久化的外部協作介面。
// Save 必須對同一房間 ID 冪等，重試不得產生重複紀錄。
type SummaryStore interface {
	Save(summary *Summary) error
	FindByRoomID(roomID string) (*Summary, error)
	ListRecent(limit int) ([]Summary, error)
}
