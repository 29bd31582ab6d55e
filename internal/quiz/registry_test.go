package quiz

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestionSet(t *testing.T, n int) *QuestionSet {
	t.Helper()
	questions := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, Question{
			Prompt:  "q",
			Choices: []string{"a", "b", "c"},
			Correct: 0,
		})
	}
	set, err := NewQuestionSet(1, "測試題目集", questions)
	require.NoError(t, err)
	return set
}

func TestRegistryCreateAndLookup(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)
	host := newFakeConn()

	room, err := reg.Create(1, "host", testQuestionSet(t, 1), Options{}, host)
	require.NoError(t, err)
	defer reg.Evict(room.Code)

	assert.Len(t, room.Code, codeLength)
	for _, ch := range room.Code {
		assert.Contains(t, codeAlphabet, string(ch), "代碼不得含易混淆字元")
	}
	assert.False(t, strings.ContainsAny(room.Code, "0O1IL"))

	found, err := reg.Lookup(room.Code)
	require.NoError(t, err)
	assert.Same(t, room, found)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryLookupUnknownCode(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)

	_, err := reg.Lookup("ZZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryRejectsEmptySet(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)

	_, err := reg.Create(1, "host", nil, Options{}, newFakeConn())
	assert.ErrorIs(t, err, ErrEmptySet)
}

func TestRegistryRejectsBadOptions(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)

	_, err := reg.Create(1, "host", testQuestionSet(t, 1), Options{Mode: "turbo"}, newFakeConn())
	assert.Error(t, err)

	_, err = reg.Create(1, "host", testQuestionSet(t, 1), Options{Mode: ModeGold, StealChance: 1.5}, newFakeConn())
	assert.Error(t, err)
}

func TestRegistryEvict(t *testing.T) {
	reg := NewRegistry(nil, 60, time.Minute)

	room, err := reg.Create(1, "host", testQuestionSet(t, 1), Options{}, newFakeConn())
	require.NoError(t, err)

	reg.Evict(room.Code)
	_, err = reg.Lookup(room.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Zero(t, reg.Count())
	assert.True(t, room.Ended())

	// 重複移除是 no-op
	reg.Evict(room.Code)
}

func TestJanitorSweepsIdleRooms(t *testing.T) {
	// 閒置時限設為 0，無連線的房間在下一次清掃就會被回收
	reg := NewRegistry(nil, 60, 0)

	host := newFakeConn()
	room, err := reg.Create(1, "host", testQuestionSet(t, 1), Options{}, host)
	require.NoError(t, err)

	room.Disconnect(1, host)
	waitUntil(t, func() bool { return room.Connections() == 0 })

	reg.sweep()
	_, err = reg.Lookup(room.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
