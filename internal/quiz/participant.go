package quiz

import (
	"sort"
	"time"
)

const noAnswer = -1

// Participant 房間內的一位參加者。
// 連線中斷時 conn 為 nil，遊戲狀態保留，重連後繼續累計。
type Participant struct {
	ID        uint
	Name      string
	JoinOrder int

	Score      int
	Gold       int  // 金幣爭奪模式的金幣餘額
	Lives      int  // 淘汰賽模式的剩餘生命
	Eliminated bool // 淘汰賽模式的淘汰旗標

	Answer   int // 本回合的作答索引，noAnswer 表示尚未作答
	AnswerAt time.Time

	conn Sender
}

// Connected 是否目前有連線
func (p *Participant) Connected() bool {
	return p.conn != nil
}

// LeaderboardEntry 排行榜上的一列
type LeaderboardEntry struct {
	UserID     uint   `json:"userId"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Gold       int    `json:"gold,omitempty"`
	Lives      int    `json:"lives,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

// buildLeaderboard 依分數遞減排序，同分者依加入順序遞增。
// 排序必須穩定，相同輸入重複計算要得到一致的結果。
func buildLeaderboard(participants []*Participant) []LeaderboardEntry {
	sorted := make([]*Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].JoinOrder < sorted[j].JoinOrder
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for _, p := range sorted {
		entries = append(entries, LeaderboardEntry{
			UserID:     p.ID,
			Name:       p.Name,
			Score:      p.Score,
			Gold:       p.Gold,
			Lives:      p.Lives,
			Eliminated: p.Eliminated,
		})
	}
	return entries
}
