package repository

import (
	"prevention_edu_backend/internal/model"

	"gorm.io/gorm"
)

type CourseContentRepository struct {
	DB *gorm.DB
}

func NewCourseContentRepository(db *gorm.DB) *CourseContentRepository {
	return &CourseContentRepository{DB: db}
}

func (r *CourseContentRepository) Create(content *model.CourseContent) error {
	return r.DB.Create(content).Error
}

func (r *CourseContentRepository) FindByID(id uint) (*model.CourseContent, error) {
	var content model.CourseContent
	err := r.DB.First(&content, id).Error
	return &content, err
}

func (r *CourseContentRepository) FindWithCourse(id uint) (*model.CourseContent, error) {
	var content model.CourseContent
	err := r.DB.Preload("Course").First(&content, id).Error
	return &content, err
}

func (r *CourseContentRepository) Update(content *model.CourseContent) error {
	return r.DB.Save(content).Error
}

// NextOrderIndex 返回当前最大序号 + 1，无课时时为 0
func (r *CourseContentRepository) NextOrderIndex(courseID uint) (int, error) {
	var maxIndex *int
	err := r.DB.Model(&model.CourseContent{}).
		Where("course_id = ?", courseID).
		Select("MAX(order_index)").
		Scan(&maxIndex).Error
	if err != nil {
		return 0, err
	}
	if maxIndex == nil {
		return 0, nil
	}
	return *maxIndex + 1, nil
}

// ExistsWithOrder 检查激活课时中该序号是否被占用，excludeID 排除自身
func (r *CourseContentRepository) ExistsWithOrder(courseID uint, orderIndex int, excludeID uint) (bool, error) {
	query := r.DB.Model(&model.CourseContent{}).
		Where("course_id = ? AND order_index = ? AND is_active = ?", courseID, orderIndex, true)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// HasProgressRecords 检查是否有学习者进入过该课时
func (r *CourseContentRepository) HasProgressRecords(contentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ContentProgress{}).
		Where("content_id = ?", contentID).
		Count(&count).Error
	return count > 0, err
}

// FindActiveByCourse 按序号升序返回激活课时
func (r *CourseContentRepository) FindActiveByCourse(courseID uint) ([]model.CourseContent, error) {
	var contents []model.CourseContent
	err := r.DB.Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index ASC").
		Find(&contents).Error
	return contents, err
}

// CountActiveByCourse 激活课时总数，作为进度分母
func (r *CourseContentRepository) CountActiveByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseContent{}).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Count(&count).Error
	return count, err
}

// FindByCourse 分页返回课程全部课时（含停用，管理端视图）
func (r *CourseContentRepository) FindByCourse(courseID uint, page, limit int) ([]model.CourseContent, int64, error) {
	query := r.DB.Model(&model.CourseContent{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	var contents []model.CourseContent
	err := query.Order("order_index ASC").
		Offset(offset).Limit(limit).
		Find(&contents).Error
	return contents, total, err
}

// OrderUpdate 一条被接受的顺序调整
type OrderUpdate struct {
	ContentID  uint
	OrderIndex int
}

// ApplyOrderUpdates 单事务内批量写入新序号
func (r *CourseContentRepository) ApplyOrderUpdates(updates []OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := tx.Model(&model.CourseContent{}).
				Where("id = ?", u.ContentID).
				Update("order_index", u.OrderIndex).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
