package quiz

import "errors"

// Question 一道題目：題幹、選項列表與正確選項索引
type Question struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Correct int      `json:"-"` // 正解索引，不可在揭曉前外洩給客戶端
}

// QuestionSet 房間生命週期內不可變的題目集
type QuestionSet struct {
	ID        uint
	Title     string
	Questions []Question
}

// NewQuestionSet 建立題目集並驗證：集合非空、每題正解索引在選項範圍內
func NewQuestionSet(id uint, title string, questions []Question) (*QuestionSet, error) {
	if len(questions) == 0 {
		return nil, ErrEmptySet
	}
	for _, q := range questions {
		if len(q.Choices) < 2 {
			return nil, errors.New("每題至少需要兩個選項")
		}
		if q.Correct < 0 || q.Correct >= len(q.Choices) {
			return nil, errors.New("正解索引超出選項範圍")
		}
	}
	return &QuestionSet{ID: id, Title: title, Questions: questions}, nil
}

// Len 題目數量
func (s *QuestionSet) Len() int {
	return len(s.Questions)
}

// ClientQuestion 傳給客戶端的題目，不含正解
type ClientQuestion struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// ForClient 去除正解後的題目表示
func (q Question) ForClient() ClientQuestion {
	return ClientQuestion{Prompt: q.Prompt, Choices: q.Choices}
}
