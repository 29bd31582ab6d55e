package quiz

import "errors"

// 測驗引擎的錯誤分類
var (
	ErrRoomNotFound      = errors.New("找不到房間")
	ErrInvalidTransition = errors.New("目前狀態不允許此操作")
	ErrDuplicateAnswer   = errors.New("本回合已經作答")
	ErrUnauthorized      = errors.New("沒有權限執行此操作")
	ErrGameStarted       = errors.New("遊戲已開始，無法加入")
	ErrEmptySet          = errors.New("題目集不能為空")
	ErrNoParticipants    = errors.New("至少需要一位參加者才能開始")
	ErrInvalidAnswer     = errors.New("無效的答案選項")
)
