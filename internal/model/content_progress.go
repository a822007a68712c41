package model

import "time"

// ContentProgress 记录某次报名对单个课时的完成状态
// swagger:model ContentProgress
type ContentProgress struct {
	BaseModel
	RegistrationID uint       `gorm:"index:idx_reg_content,unique;not null" json:"registrationId"`
	ContentID      uint       `gorm:"index:idx_reg_content,unique;not null" json:"contentId"`
	IsCompleted    bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func (ContentProgress) TableName() string {
	return "content_progress"
}
