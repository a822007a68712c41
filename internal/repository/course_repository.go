package repository

import (
	"time"

	"prevention_edu_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// CourseFilter 课程列表查询条件
type CourseFilter struct {
	Keyword     string
	TargetGroup string
	AgeGroup    string
	Skills      []string
	IsActive    *bool
	IsAccept    *bool
	CreatedBy   uint
	FromDate    *time.Time
	ToDate      *time.Time
	Page        int
	Limit       int
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

// FindWithDetails 取课程及创建者、课时、报名数
func (r *CourseRepository) FindWithDetails(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Creator").
		Preload("Contents").
		Preload("Registrations").
		First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

// ExistsByTitle 检查激活课程中是否已有同名标题，excludeID 排除自身
func (r *CourseRepository) ExistsByTitle(title string, excludeID uint) (bool, error) {
	query := r.DB.Model(&model.Course{}).
		Where("title = ? AND is_active = ?", title, true)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// HasRegistrations 检查课程是否存在任何报名记录（不区分状态）
func (r *CourseRepository) HasRegistrations(courseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CourseRegistration{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count > 0, err
}

// SoftDeleteCascade 单事务内软删除课程及其全部课时
func (r *CourseRepository) SoftDeleteCascade(courseID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.CourseContent{}).
			Where("course_id = ?", courseID).
			Update("is_active", false).Error
	})
}

// FindWithFilters 条件 + 分页查询课程列表
func (r *CourseRepository) FindWithFilters(filter CourseFilter) ([]model.Course, int64, error) {
	query := r.DB.Model(&model.Course{}).Preload("Creator")

	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", kw, kw)
	}
	if filter.TargetGroup != "" {
		query = query.Where("target_group = ?", filter.TargetGroup)
	}
	if filter.AgeGroup != "" {
		query = query.Where("age_group = ?", filter.AgeGroup)
	}
	for _, skill := range filter.Skills {
		query = query.Where("skills LIKE ?", "%\""+skill+"\"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsAccept != nil {
		query = query.Where("is_accept = ?", *filter.IsAccept)
	}
	if filter.CreatedBy > 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	offset := (filter.Page - 1) * filter.Limit

	var courses []model.Course
	err := query.Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&courses).Error
	return courses, total, err
}
