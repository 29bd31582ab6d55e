package models

import (
	"gorm.io/gorm"
)

// GameSummary 一場完賽遊戲的持久化紀錄。
// RoomID 上的唯一索引保證同一房間不會寫入兩份摘要。
type GameSummary struct {
	gorm.Model
	RoomID      string `gorm:"uniqueIndex;not null" json:"room_id"`
	Mode        string `gorm:"type:varchar(20);not null" json:"mode"`
	Options     string `gorm:"type:jsonb" json:"options"`
	Leaderboard string `gorm:"type:jsonb" json:"leaderboard"`
	Rounds      string `gorm:"type:jsonb" json:"rounds"`
}
