package quiz

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn 記錄房間送出的訊息，模擬一條客戶端連線
type fakeConn struct {
	mu     sync.Mutex
	msgs   []interface{}
	cursor int
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (f *fakeConn) Send(v interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.msgs = append(f.msgs, v)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func msgType(v interface{}) string {
	switch m := v.(type) {
	case RoomMsg:
		return m.Type
	case JoinedMsg:
		return m.Type
	case QuestionMsg:
		return m.Type
	case ProgressMsg:
		return m.Type
	case RevealMsg:
		return m.Type
	case EndMsg:
		return m.Type
	case StateMsg:
		return m.Type
	case ErrorMsg:
		return m.Type
	}
	return ""
}

// next 從游標處等待下一則指定類型的訊息，逾時判定測試失敗
func (f *fakeConn) next(t *testing.T, typ string) interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		f.mu.Lock()
		for i := f.cursor; i < len(f.msgs); i++ {
			if msgType(f.msgs[i]) == typ {
				f.cursor = i + 1
				m := f.msgs[i]
				f.mu.Unlock()
				return m
			}
		}
		f.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("等不到類型為 %q 的訊息", typ)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("等待條件逾時")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// fakeStore 記錄持久化呼叫的摘要儲存庫
type fakeStore struct {
	mu    sync.Mutex
	saved []*Summary
}

func (s *fakeStore) Save(summary *Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, summary)
	return nil
}

func (s *fakeStore) FindByRoomID(roomID string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sum := range s.saved {
		if sum.RoomID == roomID {
			return sum, nil
		}
	}
	return nil, ErrRoomNotFound
}

func (s *fakeStore) ListRecent(limit int) ([]Summary, error) {
	return nil, nil
}

func (s *fakeStore) waitSaved(t *testing.T) *Summary {
	t.Helper()
	var result *Summary
	waitUntil(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.saved) == 0 {
			return false
		}
		result = s.saved[0]
		return true
	})
	return result
}

func inStart(roomID string) *InboundMessage {
	return &InboundMessage{Kind: InStart, Room: &RoomPayload{RoomID: roomID}}
}

func inNext(roomID string) *InboundMessage {
	return &InboundMessage{Kind: InNext, Room: &RoomPayload{RoomID: roomID}}
}

func inAnswer(roomID string, index int) *InboundMessage {
	return &InboundMessage{Kind: InAnswer, Answer: &AnswerPayload{RoomID: roomID, Answer: index}}
}

// setupGame 建立一間房並讓兩位參加者完成加入
func setupGame(t *testing.T, store SummaryStore, questions int, opts Options) (*Registry, *Room, *fakeConn, *fakeConn, *fakeConn) {
	t.Helper()
	reg := NewRegistry(store, 60, time.Minute)
	host := newFakeConn()
	room, err := reg.Create(1, "host", testQuestionSet(t, questions), opts, host)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Evict(room.Code) })

	p1 := newFakeConn()
	p2 := newFakeConn()
	room.Join(2, "P1", p1)
	room.Join(3, "P2", p2)
	p1.next(t, OutJoined)
	p2.next(t, OutJoined)
	return reg, room, host, p1, p2
}

func TestClassicEndToEnd(t *testing.T) {
	store := &fakeStore{}
	_, room, host, p1, p2 := setupGame(t, store, 3, Options{Mode: ModeClassic})

	room.HandleMessage(1, inStart(room.Code))
	start := p1.next(t, OutStart).(QuestionMsg)
	assert.Equal(t, 0, start.Current)
	assert.Len(t, start.Question.Choices, 3)

	// P1 每回合答對、P2 每回合答錯
	for round := 0; round < 3; round++ {
		room.HandleMessage(2, inAnswer(room.Code, 0))
		room.HandleMessage(3, inAnswer(room.Code, 1))

		reveal := host.next(t, OutReveal).(RevealMsg)
		assert.Equal(t, 0, reveal.CorrectIndex)
		assert.Equal(t, []int{1, 1, 0}, reveal.Counts)

		if round < 2 {
			room.HandleMessage(1, inNext(room.Code))
			next := p1.next(t, OutNext).(QuestionMsg)
			assert.Equal(t, round+1, next.Current)
		}
	}

	end := p2.next(t, OutEnd).(EndMsg)
	require.Len(t, end.Leaderboard, 2)
	assert.Equal(t, uint(2), end.Leaderboard[0].UserID)
	assert.Equal(t, 3*classicBasePoints, end.Leaderboard[0].Score)
	assert.Equal(t, uint(3), end.Leaderboard[1].UserID)
	assert.Zero(t, end.Leaderboard[1].Score)

	summary := store.waitSaved(t)
	assert.Equal(t, room.Code, summary.RoomID)
	assert.Equal(t, ModeClassic, summary.Mode)
	require.Len(t, summary.Rounds, 3)
	for i, result := range summary.Rounds {
		assert.Equal(t, i, result.Round, "回合索引必須從 0 嚴格遞增")
	}
	assert.Equal(t, end.Leaderboard, summary.Leaderboard)
}

func TestDuplicateAnswerIgnored(t *testing.T) {
	_, room, host, _, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	// P1 答錯後再改答對，第二筆不覆寫也不計入
	room.HandleMessage(2, inAnswer(room.Code, 1))
	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 0))

	reveal := host.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []int{1, 1, 0}, reveal.Counts)

	end := host.next(t, OutEnd).(EndMsg)
	assert.Equal(t, uint(3), end.Leaderboard[0].UserID)
	assert.Equal(t, classicBasePoints, end.Leaderboard[0].Score)
	assert.Zero(t, end.Leaderboard[1].Score)
}

func TestRevealWithoutWaitingForDeadline(t *testing.T) {
	// 作答時間 60 秒；全員到齊就該立刻揭曉，next 的 3 秒逾時
	// 證明沒有等計時器
	_, room, host, _, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic, QuestionTime: 60})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 1))
	host.next(t, OutReveal)
}

func TestRevealOnDeadline(t *testing.T) {
	_, room, host, _, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic, QuestionTime: 1})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	// 只有 P1 作答，揭曉由截止計時器觸發
	room.HandleMessage(2, inAnswer(room.Code, 0))
	reveal := host.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []int{1, 0, 0}, reveal.Counts)
}

func TestAnswerBeforeStartIgnored(t *testing.T) {
	_, room, host, _, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	// 大廳階段的作答不適用於目前狀態，靜默忽略
	room.HandleMessage(2, inAnswer(room.Code, 0))

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	room.HandleMessage(2, inAnswer(room.Code, 2))
	room.HandleMessage(3, inAnswer(room.Code, 0))

	reveal := host.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []int{1, 0, 1}, reveal.Counts)
}

func TestNonHostCannotStart(t *testing.T) {
	_, room, host, p1, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	room.HandleMessage(2, inStart(room.Code))
	errMsg := p1.next(t, OutError).(ErrorMsg)
	assert.Equal(t, ErrUnauthorized.Error(), errMsg.Message)

	// 房間仍在大廳，主持人開局照常生效
	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)
}

func TestJoinAfterStartRejected(t *testing.T) {
	_, room, host, _, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	late := newFakeConn()
	room.Join(9, "遲到者", late)
	errMsg := late.next(t, OutError).(ErrorMsg)
	assert.Equal(t, ErrGameStarted.Error(), errMsg.Message)
	waitUntil(t, late.isClosed)
}

func TestReconnectKeepsScore(t *testing.T) {
	_, room, host, p1, _ := setupGame(t, &fakeStore{}, 2, Options{Mode: ModeClassic})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 1))
	host.next(t, OutReveal)

	// P1 斷線再重連，分數保留，之後的廣播送往新連線
	room.Disconnect(2, p1)
	reconnected := newFakeConn()
	room.Join(2, "P1", reconnected)
	reconnected.next(t, OutJoined)

	state := reconnected.next(t, OutState).(StateMsg)
	found := false
	for _, entry := range state.Participants {
		if entry.UserID == 2 {
			found = true
			assert.Equal(t, classicBasePoints, entry.Score)
		}
	}
	assert.True(t, found, "重連後名單必須包含 P1")

	room.HandleMessage(1, inNext(room.Code))
	next := reconnected.next(t, OutNext).(QuestionMsg)
	assert.Equal(t, 1, next.Current)
}

func TestHostDisconnectRoomContinues(t *testing.T) {
	_, room, host, p1, _ := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	room.HandleMessage(1, inStart(room.Code))
	p1.next(t, OutStart)

	room.Disconnect(1, host)

	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 0))
	p1.next(t, OutReveal)
	p1.next(t, OutEnd)
}

func TestBattleRoyaleEliminationEndsGameEarly(t *testing.T) {
	store := &fakeStore{}
	_, room, host, p1, p2 := setupGame(t, store, 3, Options{Mode: ModeRoyale, Lives: 1})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	// P2 答錯唯一一條命：淘汰後剩不到兩位存活者，即使還有題目也結束
	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 1))

	reveal := p1.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []uint{3}, reveal.Eliminated)

	end := p2.next(t, OutEnd).(EndMsg)
	require.Len(t, end.Leaderboard, 2)
	var p2Entry LeaderboardEntry
	for _, entry := range end.Leaderboard {
		if entry.UserID == 3 {
			p2Entry = entry
		}
	}
	assert.True(t, p2Entry.Eliminated)

	summary := store.waitSaved(t)
	require.Len(t, summary.Rounds, 1)
	assert.Equal(t, []uint{3}, summary.Rounds[0].Eliminated)
}

func TestEliminatedExcludedFromCompleteness(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)
	host := newFakeConn()
	room, err := reg.Create(1, "host", testQuestionSet(t, 2), Options{Mode: ModeRoyale, Lives: 1}, host)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Evict(room.Code) })

	p1 := newFakeConn()
	p2 := newFakeConn()
	p3 := newFakeConn()
	room.Join(2, "P1", p1)
	room.Join(3, "P2", p2)
	room.Join(4, "P3", p3)
	p3.next(t, OutJoined)

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	// 第 0 回合只有 P3 答錯，被淘汰
	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 0))
	room.HandleMessage(4, inAnswer(room.Code, 1))
	reveal := host.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []uint{4}, reveal.Eliminated)

	room.HandleMessage(1, inNext(room.Code))
	host.next(t, OutNext)

	// 已淘汰者的作答不計入，也不擋住全員到齊的判定
	room.HandleMessage(4, inAnswer(room.Code, 0))
	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 1))

	reveal = host.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []int{1, 1, 0}, reveal.Counts)
}

func TestGoldQuestEndToEndWithFullSteal(t *testing.T) {
	store := &fakeStore{}
	_, room, host, _, _ := setupGame(t, store, 1, Options{Mode: ModeGold, StealChance: 1})

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)

	// 機率 1：P2 答錯必定從唯一答對的 P1 偷走一半金幣
	room.HandleMessage(2, inAnswer(room.Code, 0))
	room.HandleMessage(3, inAnswer(room.Code, 1))

	reveal := host.next(t, OutReveal).(RevealMsg)
	require.Len(t, reveal.Steals, 1)
	assert.Equal(t, uint(2), reveal.Steals[0].From)
	assert.Equal(t, uint(3), reveal.Steals[0].To)
	assert.Equal(t, goldEarn/2, reveal.Steals[0].Amount)

	end := host.next(t, OutEnd).(EndMsg)
	for _, entry := range end.Leaderboard {
		assert.Equal(t, entry.Gold, entry.Score, "金幣爭奪的名次以金幣餘額計")
	}

	summary := store.waitSaved(t)
	require.Len(t, summary.Rounds, 1)
	assert.Len(t, summary.Rounds[0].Steals, 1)
}

func TestStartRequiresConnectedParticipant(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)
	host := newFakeConn()
	room, err := reg.Create(1, "host", testQuestionSet(t, 1), Options{}, host)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Evict(room.Code) })

	room.HandleMessage(1, inStart(room.Code))
	errMsg := host.next(t, OutError).(ErrorMsg)
	assert.Equal(t, ErrNoParticipants.Error(), errMsg.Message)
}

func TestSlowConnectionDroppedNotRoom(t *testing.T) {
	_, room, host, p1, p2 := setupGame(t, &fakeStore{}, 1, Options{Mode: ModeClassic})

	// 以關閉讓 p2 的 Send 失敗，模擬佇列滿的慢速連線：
	// 廣播時斷開該連線，房間與其他人不受影響
	p2.Close()

	room.HandleMessage(1, inStart(room.Code))
	host.next(t, OutStart)
	p1.next(t, OutStart)
	waitUntil(t, func() bool { return room.Connections() == 2 })

	// p2 已視同斷線，P1 一人作答即全員到齊
	room.HandleMessage(2, inAnswer(room.Code, 0))
	reveal := p1.next(t, OutReveal).(RevealMsg)
	assert.Equal(t, []int{1, 0, 0}, reveal.Counts)
}
