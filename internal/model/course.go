package model

// Course 预防教育课程
// IsAccept 由审核流程单独控制，创建时始终为 false
// swagger:model Course
type Course struct {
	BaseModel
	Title        string   `gorm:"size:255;not null;index" json:"title"`
	Description  string   `gorm:"type:text" json:"description"`
	TargetGroup  string   `gorm:"size:100" json:"targetGroup"`
	AgeGroup     string   `gorm:"size:50" json:"ageGroup"`
	Skills       []string `gorm:"serializer:json" json:"skills"`
	ContentURL   string   `gorm:"size:500" json:"contentUrl"`
	ThumbnailURL string   `gorm:"size:500" json:"thumbnailUrl"`
	CreatedBy    uint     `gorm:"index;not null" json:"createdBy"`
	IsActive     bool     `gorm:"default:true;index" json:"isActive"`
	IsAccept     bool     `gorm:"default:false;index" json:"isAccept"`

	Creator       *User              `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Contents      []CourseContent    `gorm:"foreignKey:CourseID" json:"contents,omitempty"`
	Registrations []CourseRegistration `gorm:"foreignKey:CourseID" json:"registrations,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}
