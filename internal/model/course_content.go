package model

type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentText     ContentType = "text"
	ContentDocument ContentType = "document"
	ContentQuiz     ContentType = "quiz"
)

// CourseContent 课程中的一个有序单元
// 同一课程内激活状态的内容 OrderIndex 不允许重复
// swagger:model CourseContent
type CourseContent struct {
	BaseModel
	CourseID    uint        `gorm:"index:idx_course_order;not null" json:"courseId"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	ContentType ContentType `gorm:"type:varchar(20);not null" json:"contentType"`
	ContentData string      `gorm:"type:text" json:"contentData"`
	FileURL     string      `gorm:"size:500" json:"fileUrl"`
	FileName    string      `gorm:"size:255" json:"fileName"`
	FileSize    int64       `gorm:"default:0" json:"fileSize"`
	MimeType    string      `gorm:"size:100" json:"mimeType"`
	OrderIndex  int         `gorm:"index:idx_course_order;default:0" json:"orderIndex"`
	IsActive    bool        `gorm:"default:true;index" json:"isActive"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (CourseContent) TableName() string {
	return "course_contents"
}
