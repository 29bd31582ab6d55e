package quiz

import (
	"math/rand"
	"time"
)

// Answer 一筆已收集的作答，依抵達順序排入批次
type Answer struct {
	UserID uint
	Index  int
	At     time.Time
}

// StealEvent 金幣爭奪模式的偷取事件
type StealEvent struct {
	From   uint `json:"from"`
	To     uint `json:"to"`
	Amount int  `json:"amount"`
}

// RoundOutcome 一回合計分的結果。
// 策略不直接修改參加者狀態，只回傳差額與事件，由房間套用。
type RoundOutcome struct {
	CorrectIndex int
	Counts       []int
	ScoreDeltas  map[uint]int
	GoldDeltas   map[uint]int
	LivesDeltas  map[uint]int
	Steals       []StealEvent
	Eliminated   []uint
}

// Strategy 計分策略：以作答批次、題目與目前參加者狀態計算回合結果。
// 對相同輸入（含注入的亂數來源狀態）必須產生相同輸出。
type Strategy interface {
	Score(batch []Answer, q Question, participants map[uint]*Participant) RoundOutcome
}

// classicBasePoints 經典模式答對的固定得分。
// 刻意不加入答題速度加成，讓回合結果不受時鐘抖動影響。
const classicBasePoints = 100

// goldEarn 金幣爭奪模式答對獲得的金幣
const goldEarn = 100

func newOutcome(q Question) RoundOutcome {
	return RoundOutcome{
		CorrectIndex: q.Correct,
		Counts:       make([]int, len(q.Choices)),
		ScoreDeltas:  make(map[uint]int),
		GoldDeltas:   make(map[uint]int),
		LivesDeltas:  make(map[uint]int),
	}
}

func countVotes(out *RoundOutcome, batch []Answer) {
	for _, a := range batch {
		if a.Index >= 0 && a.Index < len(out.Counts) {
			out.Counts[a.Index]++
		}
	}
}

// NewStrategy 依模式設定建立對應的計分策略
func NewStrategy(opts Options, rng *rand.Rand) Strategy {
	switch opts.Mode {
	case ModeGold:
		return &GoldQuestStrategy{Chance: opts.StealChance, rng: rng}
	case ModeRoyale:
		return &BattleRoyaleStrategy{}
	default:
		return &ClassicStrategy{}
	}
}

// ClassicStrategy 經典模式：答對得固定分數
type ClassicStrategy struct{}

func (s *ClassicStrategy) Score(batch []Answer, q Question, participants map[uint]*Participant) RoundOutcome {
	out := newOutcome(q)
	countVotes(&out, batch)
	for _, a := range batch {
		if a.Index == q.Correct {
			out.ScoreDeltas[a.UserID] = classicBasePoints
		}
	}
	return out
}

// GoldQuestStrategy 金幣爭奪模式：答對得金幣；答錯以設定的機率
// 從本回合答對者中均勻抽出一位，偷走其一半金幣。
// 亂數來源由外部注入，固定種子下結果可重現。
type GoldQuestStrategy struct {
	Chance float64
	rng    *rand.Rand
}

func (s *GoldQuestStrategy) Score(batch []Answer, q Question, participants map[uint]*Participant) RoundOutcome {
	out := newOutcome(q)
	countVotes(&out, batch)

	// 以現有餘額為基礎的工作簿，先結算答對者的進帳
	balances := make(map[uint]int, len(participants))
	for id, p := range participants {
		balances[id] = p.Gold
	}

	var winners []uint
	for _, a := range batch {
		if a.Index == q.Correct {
			winners = append(winners, a.UserID)
			balances[a.UserID] += goldEarn
		}
	}

	// 依批次順序處理答錯者的偷取，後面的偷取以前面結算後的餘額為準
	for _, a := range batch {
		if a.Index == q.Correct {
			continue
		}
		if len(winners) == 0 || s.Chance <= 0 {
			continue
		}
		if s.rng.Float64() >= s.Chance {
			continue
		}
		victim := winners[s.rng.Intn(len(winners))]
		amount := balances[victim] / 2
		if amount <= 0 {
			continue
		}
		balances[victim] -= amount
		balances[a.UserID] += amount
		out.Steals = append(out.Steals, StealEvent{From: victim, To: a.UserID, Amount: amount})
	}

	for id, p := range participants {
		if delta := balances[id] - p.Gold; delta != 0 {
			out.GoldDeltas[id] = delta
		}
	}
	return out
}

// BattleRoyaleStrategy 淘汰賽模式：答對得分，答錯扣一條命，
// 命歸零即標記淘汰。
type BattleRoyaleStrategy struct{}

func (s *BattleRoyaleStrategy) Score(batch []Answer, q Question, participants map[uint]*Participant) RoundOutcome {
	out := newOutcome(q)
	countVotes(&out, batch)
	for _, a := range batch {
		p, ok := participants[a.UserID]
		if !ok || p.Eliminated {
			continue
		}
		if a.Index == q.Correct {
			out.ScoreDeltas[a.UserID] = classicBasePoints
			continue
		}
		out.LivesDeltas[a.UserID] = -1
		if p.Lives-1 <= 0 {
			out.Eliminated = append(out.Eliminated, a.UserID)
		}
	}
	return out
}
