package quiz

import "errors"

// Mode 定義遊戲模式的類型
type Mode string

const (
	ModeClassic Mode = "classic" // 經典模式：答對得分
	ModeGold    Mode = "gold"    // 金幣爭奪：答錯有機率偷取答對者的金幣
	ModeRoyale  Mode = "royale"  // 淘汰賽：答錯扣命，命歸零即淘汰
)

// Options 房間建立時的模式設定，建立後不可變更
type Options struct {
	Mode         Mode    `json:"mode"`
	QuestionTime int     `json:"questionTime"`          // 每題作答秒數
	StealChance  float64 `json:"stealChance,omitempty"` // 金幣爭奪：偷取機率 [0,1]
	Lives        int     `json:"lives,omitempty"`       // 淘汰賽：初始生命數
}

// Normalize 驗證並補齊選項的預設值
func (o *Options) Normalize(defaultQuestionTime int) error {
	if o.Mode == "" {
		o.Mode = ModeClassic
	}
	switch o.Mode {
	case ModeClassic:
	case ModeGold:
		if o.StealChance < 0 || o.StealChance > 1 {
			return errors.New("偷取機率必須介於 0 和 1 之間")
		}
	case ModeRoyale:
		if o.Lives == 0 {
			o.Lives = 3
		}
		if o.Lives < 1 {
			return errors.New("初始生命數必須至少為 1")
		}
	default:
		return errors.New("未知的遊戲模式")
	}
	if o.QuestionTime == 0 {
		o.QuestionTime = defaultQuestionTime
	}
	if o.QuestionTime < 1 {
		return errors.New("每題作答秒數必須至少為 1")
	}
	return nil
}
