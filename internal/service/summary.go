package service

import (
	"encoding/json"
	"fmt"
	"time"

	"quiz_web/internal/models"
	"quiz_web/internal/quiz"
	"quiz_web/internal/repository"
)

const saveRetries = 3

// SummaryService 摘要持久化的轉接層，實作 quiz.SummaryStore。
// Save 以房間 ID 冪等：已存在的摘要不重寫，失敗則以退避重試。
type SummaryService struct {
	summaryRepo repository.SummaryRepository
}

func NewSummaryService(summaryRepo repository.SummaryRepository) *SummaryService {
	return &SummaryService{summaryRepo: summaryRepo}
}

func (s *SummaryService) Save(summary *quiz.Summary) error {
	record, err := encodeSummary(summary)
	if err != nil {
		return err
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		exists, err := s.summaryRepo.ExistsByRoomID(summary.RoomID)
		if err != nil {
			lastErr = err
			continue
		}
		if exists {
			return nil
		}

		if err := s.summaryRepo.Create(record); err != nil {
			// RoomID 的唯一索引兜底：並發重試下的重複寫入會在這裡失敗，
			// 下一輪的存在檢查會把它視為成功
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("儲存遊戲摘要失敗: %w", lastErr)
}

func (s *SummaryService) FindByRoomID(roomID string) (*quiz.Summary, error) {
	record, err := s.summaryRepo.FindByRoomID(roomID)
	if err != nil {
		return nil, err
	}
	return decodeSummary(record)
}

func (s *SummaryService) ListRecent(limit int) ([]quiz.Summary, error) {
	records, err := s.summaryRepo.FindRecent(limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]quiz.Summary, 0, len(records))
	for i := range records {
		summary, err := decodeSummary(&records[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func encodeSummary(summary *quiz.Summary) (*models.GameSummary, error) {
	options, err := json.Marshal(summary.Options)
	if err != nil {
		return nil, err
	}
	leaderboard, err := json.Marshal(summary.Leaderboard)
	if err != nil {
		return nil, err
	}
	rounds, err := json.Marshal(summary.Rounds)
	if err != nil {
		return nil, err
	}
	return &models.GameSummary{
		RoomID:      summary.RoomID,
		Mode:        string(summary.Mode),
		Options:     string(options),
		Leaderboard: string(leaderboard),
		Rounds:      string(rounds),
	}, nil
}

func decodeSummary(record *models.GameSummary) (*quiz.Summary, error) {
	summary := &quiz.Summary{
		RoomID:    record.RoomID,
		Mode:      quiz.Mode(record.Mode),
		CreatedAt: record.CreatedAt,
	}
	if err := json.Unmarshal([]byte(record.Options), &summary.Options); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(record.Leaderboard), &summary.Leaderboard); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(record.Rounds), &summary.Rounds); err != nil {
		return nil, err
	}
	return summary, nil
}
