package models

import (
	"gorm.io/gorm"
)

// StudySet 一份題目集，房間開局時載入為不可變的題目序列
type StudySet struct {
	gorm.Model
	Title     string          `gorm:"not null" json:"title"`
	OwnerID   uint            `gorm:"index;not null" json:"owner_id"`
	Questions []StudyQuestion `gorm:"foreignKey:SetID" json:"questions,omitempty"`
}

// StudyQuestion 題目集中的一道題
type StudyQuestion struct {
	gorm.Model
	SetID    uint   `gorm:"index;not null" json:"set_id"`
	Position int    `gorm:"not null" json:"position"`       // 題目在集合中的順序
	Prompt   string `gorm:"type:text;not null" json:"prompt"`
	Choices  string `gorm:"type:jsonb;not null" json:"choices"` // JSON 編碼的選項列表
	Correct  int    `gorm:"not null" json:"correct"`            // 正解索引（零起算）
}
