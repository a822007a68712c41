package repository

import (
	"prevention_edu_backend/internal/model"

	"gorm.io/gorm"
)

type SkillTagRepository struct {
	DB *gorm.DB
}

func NewSkillTagRepository(db *gorm.DB) *SkillTagRepository {
	return &SkillTagRepository{DB: db}
}

func (r *SkillTagRepository) FindAll() ([]model.SkillTag, error) {
	var tags []model.SkillTag
	err := r.DB.Order("`order` ASC").Find(&tags).Error
	return tags, err
}

func (r *SkillTagRepository) FindEnabled() ([]model.SkillTag, error) {
	var tags []model.SkillTag
	err := r.DB.Where("enabled = ?", true).Order("`order` ASC").Find(&tags).Error
	return tags, err
}

// EnabledCodes 当前词表中允许使用的标签码
func (r *SkillTagRepository) EnabledCodes() ([]string, error) {
	var codes []string
	err := r.DB.Model(&model.SkillTag{}).
		Where("enabled = ?", true).
		Pluck("code", &codes).Error
	return codes, err
}

func (r *SkillTagRepository) Create(tag *model.SkillTag) error {
	return r.DB.Create(tag).Error
}

func (r *SkillTagRepository) Update(tag *model.SkillTag) error {
	return r.DB.Save(tag).Error
}
