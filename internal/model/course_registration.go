package model

import "time"

// CourseRegistration 用户与课程之间的报名关系
// (UserID, CourseID) 组合唯一，由数据库唯一索引兜底并发重复报名
// swagger:model CourseRegistration
type CourseRegistration struct {
	BaseModel
	UserID       uint       `gorm:"index:idx_user_course,unique;not null" json:"userId"`
	CourseID     uint       `gorm:"index:idx_user_course,unique;not null" json:"courseId"`
	RegisteredAt time.Time  `json:"registeredAt"`
	Completed    bool       `gorm:"default:false" json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Progress     int        `gorm:"default:0" json:"progress"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`

	ContentProgress []ContentProgress `gorm:"foreignKey:RegistrationID" json:"contentProgress,omitempty"`
}

func (CourseRegistration) TableName() string {
	return "course_registrations"
}

// CompletedContents 统计已完成的课时数
func (r *CourseRegistration) CompletedContents() int {
	count := 0
	for _, cp := range r.ContentProgress {
		if cp.IsCompleted {
			count++
		}
	}
	return count
}
