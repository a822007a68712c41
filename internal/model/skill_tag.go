package model

// SkillTag 课程技能标签的封闭词表
type SkillTag struct {
	BaseModel
	Code        string `gorm:"size:100;uniqueIndex" json:"code"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"default:0" json:"order"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`
}

func (SkillTag) TableName() string {
	return "skill_tags"
}
