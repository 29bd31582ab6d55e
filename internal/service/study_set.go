package service

import (
	"encoding/json"
	"errors"

	"quiz_web/internal/models"
	"quiz_web/internal/quiz"
	"quiz_web/internal/repository"
)

// QuestionInput 建立題目集時的一道題
type QuestionInput struct {
	Prompt  string   `json:"prompt" binding:"required"`
	Choices []string `json:"choices" binding:"required"`
	Correct int      `json:"correct"`
}

type StudySetService struct {
	setRepo repository.StudySetRepository
}

func NewStudySetService(setRepo repository.StudySetRepository) *StudySetService {
	return &StudySetService{setRepo: setRepo}
}

// CreateSet 建立題目集，題目順序依輸入順序保存
func (s *StudySetService) CreateSet(ownerID uint, title string, questions []QuestionInput) (*models.StudySet, error) {
	if title == "" {
		return nil, errors.New("標題不能為空")
	}
	if len(questions) == 0 {
		return nil, quiz.ErrEmptySet
	}

	set := &models.StudySet{Title: title, OwnerID: ownerID}
	for i, q := range questions {
		if len(q.Choices) < 2 {
			return nil, errors.New("每題至少需要兩個選項")
		}
		if q.Correct < 0 || q.Correct >= len(q.Choices) {
			return nil, errors.New("正解索引超出選項範圍")
		}
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return nil, err
		}
		set.Questions = append(set.Questions, models.StudyQuestion{
			Position: i,
			Prompt:   q.Prompt,
			Choices:  string(choices),
			Correct:  q.Correct,
		})
	}

	if err := s.setRepo.Create(set); err != nil {
		return nil, err
	}
	return set, nil
}

// GetSet 取得題目集，僅限擁有者（正解索引不對外洩漏）
func (s *StudySetService) GetSet(id, ownerID uint) (*models.StudySet, error) {
	set, err := s.setRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if set.OwnerID != ownerID {
		return nil, quiz.ErrUnauthorized
	}
	return set, nil
}

// ListSets 列出用戶的題目集，不含題目內容
func (s *StudySetService) ListSets(ownerID uint) ([]models.StudySet, error) {
	return s.setRepo.FindByOwner(ownerID)
}

// LoadQuestionSet 將題目集載入為房間使用的不可變題目序列
func (s *StudySetService) LoadQuestionSet(id uint) (*quiz.QuestionSet, error) {
	set, err := s.setRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	questions := make([]quiz.Question, 0, len(set.Questions))
	for _, q := range set.Questions {
		var choices []string
		if err := json.Unmarshal([]byte(q.Choices), &choices); err != nil {
			return nil, err
		}
		questions = append(questions, quiz.Question{
			Prompt:  q.Prompt,
			Choices: choices,
			Correct: q.Correct,
		})
	}
	return quiz.NewQuestionSet(set.ID, set.Title, questions)
}
