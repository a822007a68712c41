package service

import (
	"errors"
	"time"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/util"
	"prevention_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CourseService 课程目录：创建、更新、审核、启停、级联软删除
type CourseService struct {
	CourseRepo       *repository.CourseRepository
	ContentRepo      *repository.CourseContentRepository
	UserRepo         *repository.UserRepository
	RegistrationRepo *repository.CourseRegistrationRepository
	TagValidator     TagValidator
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	contentRepo *repository.CourseContentRepository,
	userRepo *repository.UserRepository,
	registrationRepo *repository.CourseRegistrationRepository,
	tagValidator TagValidator,
) *CourseService {
	return &CourseService{
		CourseRepo:       courseRepo,
		ContentRepo:      contentRepo,
		UserRepo:         userRepo,
		RegistrationRepo: registrationRepo,
		TagValidator:     tagValidator,
	}
}

type CreateCourseRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	TargetGroup  string   `json:"targetGroup"`
	AgeGroup     string   `json:"ageGroup"`
	Skills       []string `json:"skills"`
	ContentURL   string   `json:"contentUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	IsActive     *bool    `json:"isActive"`
}

// UpdateCourseRequest 不包含 IsAccept：审核状态只能走 Approve
type UpdateCourseRequest struct {
	CourseID     uint     `json:"courseId" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	TargetGroup  string   `json:"targetGroup"`
	AgeGroup     string   `json:"ageGroup"`
	Skills       []string `json:"skills"`
	ContentURL   string   `json:"contentUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	IsActive     bool     `json:"isActive"`
}

type CourseResponse struct {
	CourseID           uint      `json:"courseId"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	TargetGroup        string    `json:"targetGroup"`
	AgeGroup           string    `json:"ageGroup"`
	Skills             []string  `json:"skills"`
	ContentURL         string    `json:"contentUrl"`
	ThumbnailURL       string    `json:"thumbnailUrl"`
	CreatedBy          uint      `json:"createdBy"`
	CreatorName        string    `json:"creatorName"`
	CreatedAt          time.Time `json:"createdAt"`
	IsActive           bool      `json:"isActive"`
	IsAccept           bool      `json:"isAccept"`
	TotalContents      int       `json:"totalContents"`
	TotalRegistrations int       `json:"totalRegistrations"`
}

func (s *CourseService) validateSkills(skills []string) error {
	if len(skills) == 0 {
		return nil
	}
	invalid, err := s.TagValidator.Validate(skills)
	if err != nil {
		return err
	}
	if len(invalid) > 0 {
		return &util.ValidationError{Message: "无效的技能标签", Fields: invalid}
	}
	return nil
}

// Create 新课程始终处于待审核状态（IsAccept=false），无论调用方传什么
func (s *CourseService) Create(req CreateCourseRequest, creatorID uint) (*CourseResponse, error) {
	exists, err := s.UserRepo.Exists(creatorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.NewValidationError("创建者不存在")
	}

	taken, err := s.CourseRepo.ExistsByTitle(req.Title, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.NewConflictError("课程标题已存在")
	}

	if err := s.validateSkills(req.Skills); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		TargetGroup:  req.TargetGroup,
		AgeGroup:     req.AgeGroup,
		Skills:       req.Skills,
		ContentURL:   req.ContentURL,
		ThumbnailURL: req.ThumbnailURL,
		CreatedBy:    creatorID,
		IsActive:     isActive,
		IsAccept:     false, // 创建后必须经过审核
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}

	logger.Log.Info("course created",
		zap.Uint("courseId", course.ID),
		zap.Uint("creatorId", creatorID))

	return s.GetByID(course.ID)
}

// Update 全量替换可变字段，审核状态除外
func (s *CourseService) Update(req UpdateCourseRequest) (*CourseResponse, error) {
	course, err := s.CourseRepo.FindByID(req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	taken, err := s.CourseRepo.ExistsByTitle(req.Title, req.CourseID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.NewConflictError("课程标题已存在")
	}

	if err := s.validateSkills(req.Skills); err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.TargetGroup = req.TargetGroup
	course.AgeGroup = req.AgeGroup
	course.Skills = req.Skills
	course.ContentURL = req.ContentURL
	course.ThumbnailURL = req.ThumbnailURL
	course.IsActive = req.IsActive

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}

	return s.GetByID(course.ID)
}

// SetActive 幂等启停
func (s *CourseService) SetActive(courseID uint, isActive bool) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("课程不存在")
		}
		return err
	}

	course.IsActive = isActive
	return s.CourseRepo.Update(course)
}

// Approve 审核开关，IsAccept 唯一的修改入口
func (s *CourseService) Approve(courseID uint, accept bool) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("课程不存在")
		}
		return err
	}

	course.IsAccept = accept
	if err := s.CourseRepo.Update(course); err != nil {
		return err
	}

	logger.Log.Info("course approval changed",
		zap.Uint("courseId", courseID),
		zap.Bool("accept", accept))
	return nil
}

// Delete 软删除课程并级联停用全部课时，存在报名时拒绝。
// 权限校验在路由层的角色中间件完成，requesterID 仅用于审计日志
func (s *CourseService) Delete(courseID uint, requesterID uint) error {
	_, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("课程不存在")
		}
		return err
	}

	hasRegs, err := s.CourseRepo.HasRegistrations(courseID)
	if err != nil {
		return err
	}
	if hasRegs {
		return util.NewConflictError("课程已有报名记录，无法删除")
	}

	if err := s.CourseRepo.SoftDeleteCascade(courseID); err != nil {
		return err
	}

	logger.Log.Info("course soft-deleted",
		zap.Uint("courseId", courseID),
		zap.Uint("requesterId", requesterID))
	return nil
}

func (s *CourseService) GetByID(courseID uint) (*CourseResponse, error) {
	course, err := s.CourseRepo.FindWithDetails(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}
	return mapCourseResponse(course), nil
}

// List 条件 + 分页查询
func (s *CourseService) List(filter repository.CourseFilter) ([]CourseResponse, int64, error) {
	courses, total, err := s.CourseRepo.FindWithFilters(filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CourseResponse, len(courses))
	for i := range courses {
		responses[i] = *mapCourseResponse(&courses[i])
	}
	return responses, total, nil
}

func mapCourseResponse(course *model.Course) *CourseResponse {
	creatorName := "未知"
	if course.Creator != nil {
		creatorName = course.Creator.FullName
	}

	return &CourseResponse{
		CourseID:           course.ID,
		Title:              course.Title,
		Description:        course.Description,
		TargetGroup:        course.TargetGroup,
		AgeGroup:           course.AgeGroup,
		Skills:             course.Skills,
		ContentURL:         course.ContentURL,
		ThumbnailURL:       course.ThumbnailURL,
		CreatedBy:          course.CreatedBy,
		CreatorName:        creatorName,
		CreatedAt:          course.CreatedAt,
		IsActive:           course.IsActive,
		IsAccept:           course.IsAccept,
		TotalContents:      len(course.Contents),
		TotalRegistrations: len(course.Registrations),
	}
}
