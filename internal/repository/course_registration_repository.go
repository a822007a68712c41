package repository

import (
	"time"

	"prevention_edu_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRegistrationRepository struct {
	DB *gorm.DB
}

func NewCourseRegistrationRepository(db *gorm.DB) *CourseRegistrationRepository {
	return &CourseRegistrationRepository{DB: db}
}

// RegistrationFilter 报名列表查询条件
type RegistrationFilter struct {
	Completed   *bool
	TargetGroup string
	AgeGroup    string
	FromDate    *time.Time
	ToDate      *time.Time
	MinProgress *int
	MaxProgress *int
	Page        int
	Limit       int
}

func (r *CourseRegistrationRepository) Create(reg *model.CourseRegistration) error {
	return r.DB.Create(reg).Error
}

func (r *CourseRegistrationRepository) FindByID(id uint) (*model.CourseRegistration, error) {
	var reg model.CourseRegistration
	err := r.DB.First(&reg, id).Error
	return &reg, err
}

// FindDetailed 取报名及用户、课程、课时完成记录
func (r *CourseRegistrationRepository) FindDetailed(id uint) (*model.CourseRegistration, error) {
	var reg model.CourseRegistration
	err := r.DB.
		Preload("User").
		Preload("Course").
		Preload("Course.Contents").
		Preload("ContentProgress").
		First(&reg, id).Error
	return &reg, err
}

func (r *CourseRegistrationRepository) FindByUserAndCourse(userID, courseID uint) (*model.CourseRegistration, error) {
	var reg model.CourseRegistration
	err := r.DB.
		Preload("User").
		Preload("Course").
		Preload("ContentProgress").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&reg).Error
	return &reg, err
}

func (r *CourseRegistrationRepository) IsRegistered(userID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CourseRegistration{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *CourseRegistrationRepository) Update(reg *model.CourseRegistration) error {
	return r.DB.Save(reg).Error
}

// DeleteCascade 单事务内删除报名及其课时完成记录
func (r *CourseRegistrationRepository) DeleteCascade(registrationID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("registration_id = ?", registrationID).
			Delete(&model.ContentProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CourseRegistration{}, registrationID).Error
	})
}

// FindByCourse 课程维度的全部报名，按报名时间倒序
func (r *CourseRegistrationRepository) FindByCourse(courseID uint) ([]model.CourseRegistration, error) {
	var regs []model.CourseRegistration
	err := r.DB.
		Preload("User").
		Preload("Course").
		Where("course_id = ?", courseID).
		Order("registered_at DESC").
		Find(&regs).Error
	return regs, err
}

// FindByUser 用户维度的全部报名，按报名时间倒序
func (r *CourseRegistrationRepository) FindByUser(userID uint) ([]model.CourseRegistration, error) {
	var regs []model.CourseRegistration
	err := r.DB.
		Preload("User").
		Preload("Course").
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Find(&regs).Error
	return regs, err
}

// FindProgress 查单条课时完成记录
func (r *CourseRegistrationRepository) FindProgress(registrationID, contentID uint) (*model.ContentProgress, error) {
	var cp model.ContentProgress
	err := r.DB.
		Where("registration_id = ? AND content_id = ?", registrationID, contentID).
		First(&cp).Error
	return &cp, err
}

func (r *CourseRegistrationRepository) SaveProgress(cp *model.ContentProgress) error {
	return r.DB.Save(cp).Error
}

// CountCompletedContents 某次报名已完成的课时数
func (r *CourseRegistrationRepository) CountCompletedContents(registrationID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ContentProgress{}).
		Where("registration_id = ? AND is_completed = ?", registrationID, true).
		Count(&count).Error
	return count, err
}
