package service

import (
	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
)

// TagValidator 校验技能标签是否落在封闭词表内
// 以接口注入，词表演进不影响课程服务本身
type TagValidator interface {
	// Validate 返回所有不在词表中的标签
	Validate(tags []string) ([]string, error)
}

type SkillTagService struct {
	TagRepo *repository.SkillTagRepository
}

func NewSkillTagService(tagRepo *repository.SkillTagRepository) *SkillTagService {
	return &SkillTagService{TagRepo: tagRepo}
}

func (s *SkillTagService) ListTags() ([]model.SkillTag, error) {
	return s.TagRepo.FindEnabled()
}

func (s *SkillTagService) ListAllTags() ([]model.SkillTag, error) {
	return s.TagRepo.FindAll()
}

// Validate 实现 TagValidator
func (s *SkillTagService) Validate(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	codes, err := s.TagRepo.EnabledCodes()
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(codes))
	for _, code := range codes {
		allowed[code] = true
	}

	var invalid []string
	for _, tag := range tags {
		if !allowed[tag] {
			invalid = append(invalid, tag)
		}
	}
	return invalid, nil
}
