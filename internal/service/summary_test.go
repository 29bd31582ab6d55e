package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz_web/internal/models"
	"quiz_web/internal/quiz"
)

// fakeSummaryRepo 以記憶體模擬摘要儲存庫，可注入暫時性錯誤
type fakeSummaryRepo struct {
	records    map[string]*models.GameSummary
	createErrs int // 前幾次 Create 回傳錯誤
	creates    int
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{records: make(map[string]*models.GameSummary)}
}

func (r *fakeSummaryRepo) Create(summary *models.GameSummary) error {
	r.creates++
	if r.createErrs > 0 {
		r.createErrs--
		return errors.New("connection refused")
	}
	if _, ok := r.records[summary.RoomID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	r.records[summary.RoomID] = summary
	return nil
}

func (r *fakeSummaryRepo) FindByRoomID(roomID string) (*models.GameSummary, error) {
	record, ok := r.records[roomID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return record, nil
}

func (r *fakeSummaryRepo) FindRecent(limit int) ([]models.GameSummary, error) {
	var out []models.GameSummary
	for _, record := range r.records {
		out = append(out, *record)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSummaryRepo) ExistsByRoomID(roomID string) (bool, error) {
	_, ok := r.records[roomID]
	return ok, nil
}

func testSummary() *quiz.Summary {
	return &quiz.Summary{
		RoomID:  "ABC234",
		Mode:    quiz.ModeClassic,
		Options: quiz.Options{Mode: quiz.ModeClassic, QuestionTime: 20},
		Leaderboard: []quiz.LeaderboardEntry{
			{UserID: 2, Name: "P1", Score: 300},
			{UserID: 3, Name: "P2", Score: 0},
		},
		Rounds: []quiz.RoundResult{
			{Round: 0, CorrectIndex: 1, Counts: []int{0, 2}},
		},
		CreatedAt: time.Now(),
	}
}

func TestSummarySaveRoundTrip(t *testing.T) {
	repo := newFakeSummaryRepo()
	svc := NewSummaryService(repo)

	require.NoError(t, svc.Save(testSummary()))

	loaded, err := svc.FindByRoomID("ABC234")
	require.NoError(t, err)
	assert.Equal(t, quiz.ModeClassic, loaded.Mode)
	require.Len(t, loaded.Leaderboard, 2)
	assert.Equal(t, 300, loaded.Leaderboard[0].Score)
	require.Len(t, loaded.Rounds, 1)
	assert.Equal(t, []int{0, 2}, loaded.Rounds[0].Counts)
}

func TestSummarySaveIsIdempotent(t *testing.T) {
	repo := newFakeSummaryRepo()
	svc := NewSummaryService(repo)

	require.NoError(t, svc.Save(testSummary()))
	require.NoError(t, svc.Save(testSummary()))

	assert.Equal(t, 1, repo.creates, "同一房間重存不得再寫入")
	assert.Len(t, repo.records, 1)
}

func TestSummarySaveRetriesTransientFailure(t *testing.T) {
	repo := newFakeSummaryRepo()
	repo.createErrs = 2
	svc := NewSummaryService(repo)

	require.NoError(t, svc.Save(testSummary()))
	assert.Len(t, repo.records, 1)
	assert.Equal(t, 3, repo.creates)
}

func TestSummarySaveGivesUpAfterRetries(t *testing.T) {
	repo := newFakeSummaryRepo()
	repo.createErrs = 10
	svc := NewSummaryService(repo)

	assert.Error(t, svc.Save(testSummary()))
}
