package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/util"
	"prevention_edu_backend/pkg/logger"
	"prevention_edu_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	enrollmentStatsKeyPrefix = "enrollment_stats:"
	enrollmentStatsTTL       = 60 * time.Second
)

// EnrollmentService 报名生命周期：注册、退课、进度、统计看板
type EnrollmentService struct {
	RegistrationRepo *repository.CourseRegistrationRepository
	CourseRepo       *repository.CourseRepository
	ContentRepo      *repository.CourseContentRepository
	UserRepo         *repository.UserRepository
	Redis            *redis.Client
}

func NewEnrollmentService(
	registrationRepo *repository.CourseRegistrationRepository,
	courseRepo *repository.CourseRepository,
	contentRepo *repository.CourseContentRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
) *EnrollmentService {
	return &EnrollmentService{
		RegistrationRepo: registrationRepo,
		CourseRepo:       courseRepo,
		ContentRepo:      contentRepo,
		UserRepo:         userRepo,
		Redis:            rdb,
	}
}

type RegistrationResponse struct {
	RegistrationID    uint       `json:"registrationId"`
	UserID            uint       `json:"userId"`
	CourseID          uint       `json:"courseId"`
	UserName          string     `json:"userName"`
	UserEmail         string     `json:"userEmail"`
	CourseTitle       string     `json:"courseTitle"`
	RegisteredAt      time.Time  `json:"registeredAt"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	Progress          int        `json:"progress"`
	TotalContents     int        `json:"totalContents"`
	CompletedContents int        `json:"completedContents"`
}

type RegistrationListItem struct {
	RegistrationID uint      `json:"registrationId"`
	UserID         uint      `json:"userId"`
	CourseID       uint      `json:"courseId"`
	UserName       string    `json:"userName"`
	UserEmail      string    `json:"userEmail"`
	CourseTitle    string    `json:"courseTitle"`
	TargetGroup    string    `json:"targetGroup"`
	AgeGroup       string    `json:"ageGroup"`
	RegisteredAt   time.Time `json:"registeredAt"`
	Completed      bool      `json:"completed"`
	Progress       int       `json:"progress"`
}

type EnrollmentStats struct {
	CourseID             uint                   `json:"courseId"`
	CourseTitle          string                 `json:"courseTitle"`
	TotalEnrollments     int                    `json:"totalEnrollments"`
	CompletedEnrollments int                    `json:"completedEnrollments"`
	InProgressEnrollments int                   `json:"inProgressEnrollments"`
	CompletionRate       float64                `json:"completionRate"`
	AverageProgress      float64                `json:"averageProgress"`
	RecentEnrollments    []RegistrationListItem `json:"recentEnrollments"`
}

type UserDashboard struct {
	UserID             uint                   `json:"userId"`
	UserName           string                 `json:"userName"`
	TotalRegistrations int                    `json:"totalRegistrations"`
	CompletedCourses   int                    `json:"completedCourses"`
	InProgressCount    int                    `json:"inProgressCount"`
	OverallProgress    float64                `json:"overallProgress"`
	RecentRegistrations []RegistrationListItem `json:"recentRegistrations"`
	InProgressCourses  []RegistrationListItem `json:"inProgressCourses"`
}

// Register 报名。课程必须同时处于激活且已审核状态；
// (userId, courseId) 的唯一索引兜底并发下的重复报名
func (s *EnrollmentService) Register(courseID, userID uint) (*RegistrationResponse, error) {
	exists, err := s.UserRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.NewValidationError("用户不存在")
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	if !course.IsActive || !course.IsAccept {
		return nil, util.NewConflictError("课程当前不可报名")
	}

	registered, err := s.RegistrationRepo.IsRegistered(userID, courseID)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, util.NewConflictError("已报名该课程")
	}

	reg := &model.CourseRegistration{
		UserID:       userID,
		CourseID:     courseID,
		RegisteredAt: time.Now(),
		Completed:    false,
		Progress:     0,
	}

	if err := s.RegistrationRepo.Create(reg); err != nil {
		// 并发重复报名由唯一索引拦截，视为冲突而非内部错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NewConflictError("已报名该课程")
		}
		return nil, err
	}

	monitoring.EnrollmentCounter.WithLabelValues("register").Inc()
	s.invalidateStatsCache(courseID)

	logger.Log.Info("user registered for course",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID))

	return s.GetRegistration(courseID, userID)
}

// Unregister 退课。进度超过 50% 的学习者不允许通过该入口退出
func (s *EnrollmentService) Unregister(courseID, userID uint) error {
	reg, err := s.RegistrationRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("报名记录不存在")
		}
		return err
	}

	if reg.Progress > 50 {
		return util.NewConflictError("课程进度已超过50%%，无法退课")
	}

	if err := s.RegistrationRepo.DeleteCascade(reg.ID); err != nil {
		return err
	}

	monitoring.EnrollmentCounter.WithLabelValues("unregister").Inc()
	s.invalidateStatsCache(courseID)
	return nil
}

// UpdateProgress 由调用方提交进度与完成标记；进度收敛到 [0,100]，
// 允许回退（更正场景）。CompletedAt 只写一次
func (s *EnrollmentService) UpdateProgress(registrationID uint, progress int, completed bool, callerID uint) (*RegistrationResponse, error) {
	reg, err := s.RegistrationRepo.FindByID(registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("报名记录不存在")
		}
		return nil, err
	}

	if reg.UserID != callerID {
		return nil, util.NewAuthorizationError("无权更新他人的报名记录")
	}

	reg.Progress = clampProgress(progress)
	reg.Completed = completed

	if completed && reg.CompletedAt == nil {
		now := time.Now()
		reg.CompletedAt = &now
	}

	if err := s.RegistrationRepo.Update(reg); err != nil {
		return nil, err
	}

	s.invalidateStatsCache(reg.CourseID)
	return s.getRegistrationByID(reg.ID)
}

// CompleteContent 标记单课时完成，按激活课时数重新推导总进度
func (s *EnrollmentService) CompleteContent(registrationID, contentID uint, callerID uint) (*RegistrationResponse, error) {
	reg, err := s.RegistrationRepo.FindByID(registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("报名记录不存在")
		}
		return nil, err
	}

	if reg.UserID != callerID {
		return nil, util.NewAuthorizationError("无权更新他人的报名记录")
	}

	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课时不存在")
		}
		return nil, err
	}
	if content.CourseID != reg.CourseID {
		return nil, util.NewValidationError("课时不属于该课程")
	}

	cp, err := s.RegistrationRepo.FindProgress(registrationID, contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cp = &model.ContentProgress{
			RegistrationID: registrationID,
			ContentID:      contentID,
		}
	} else if err != nil {
		return nil, err
	}

	if !cp.IsCompleted {
		now := time.Now()
		cp.IsCompleted = true
		cp.CompletedAt = &now
		if err := s.RegistrationRepo.SaveProgress(cp); err != nil {
			return nil, err
		}
	}

	completedCount, err := s.RegistrationRepo.CountCompletedContents(registrationID)
	if err != nil {
		return nil, err
	}
	totalActive, err := s.ContentRepo.CountActiveByCourse(reg.CourseID)
	if err != nil {
		return nil, err
	}

	if totalActive > 0 {
		reg.Progress = clampProgress(int(completedCount * 100 / totalActive))
	}
	if reg.Progress >= 100 {
		reg.Completed = true
		if reg.CompletedAt == nil {
			now := time.Now()
			reg.CompletedAt = &now
		}
	}

	if err := s.RegistrationRepo.Update(reg); err != nil {
		return nil, err
	}

	s.invalidateStatsCache(reg.CourseID)
	return s.getRegistrationByID(reg.ID)
}

func (s *EnrollmentService) GetRegistration(courseID, userID uint) (*RegistrationResponse, error) {
	reg, err := s.RegistrationRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("报名记录不存在")
		}
		return nil, err
	}
	return s.buildRegistrationResponse(reg)
}

// CourseRegistrations 课程维度的报名列表，条件过滤 + 分页
func (s *EnrollmentService) CourseRegistrations(courseID uint, filter repository.RegistrationFilter) ([]RegistrationListItem, int64, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, util.NewNotFoundError("课程不存在")
		}
		return nil, 0, err
	}

	regs, err := s.RegistrationRepo.FindByCourse(courseID)
	if err != nil {
		return nil, 0, err
	}

	return paginateRegistrations(applyRegistrationFilter(regs, filter), filter.Page, filter.Limit)
}

// UserRegistrations 用户维度的报名列表
func (s *EnrollmentService) UserRegistrations(userID uint, filter repository.RegistrationFilter) ([]RegistrationListItem, int64, error) {
	exists, err := s.UserRepo.Exists(userID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, util.NewValidationError("用户不存在")
	}

	regs, err := s.RegistrationRepo.FindByUser(userID)
	if err != nil {
		return nil, 0, err
	}

	return paginateRegistrations(applyRegistrationFilter(regs, filter), filter.Page, filter.Limit)
}

// EnrollmentStatsFor 课程报名统计，短暂缓存在 Redis
func (s *EnrollmentService) EnrollmentStatsFor(courseID uint) (*EnrollmentStats, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%d", enrollmentStatsKeyPrefix, courseID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(context.Background(), cacheKey).Result(); err == nil {
			var stats EnrollmentStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	regs, err := s.RegistrationRepo.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}

	total := len(regs)
	completed := 0
	progressSum := 0
	for _, reg := range regs {
		if reg.Completed {
			completed++
		}
		progressSum += reg.Progress
	}

	completionRate := 0.0
	averageProgress := 0.0
	if total > 0 {
		completionRate = round2(float64(completed) / float64(total) * 100)
		averageProgress = round2(float64(progressSum) / float64(total))
	}

	recent := regs
	if len(recent) > 10 {
		recent = recent[:10]
	}

	stats := &EnrollmentStats{
		CourseID:              courseID,
		CourseTitle:           course.Title,
		TotalEnrollments:      total,
		CompletedEnrollments:  completed,
		InProgressEnrollments: total - completed,
		CompletionRate:        completionRate,
		AverageProgress:       averageProgress,
		RecentEnrollments:     mapRegistrationList(recent),
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			s.Redis.Set(context.Background(), cacheKey, payload, enrollmentStatsTTL)
		}
	}

	return stats, nil
}

// UserDashboardFor 用户学习看板
func (s *EnrollmentService) UserDashboardFor(userID uint) (*UserDashboard, error) {
	exists, err := s.UserRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.NewValidationError("用户不存在")
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	regs, err := s.RegistrationRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	total := len(regs)
	completed := 0
	progressSum := 0
	var inProgress []model.CourseRegistration
	for _, reg := range regs {
		if reg.Completed {
			completed++
		} else {
			inProgress = append(inProgress, reg)
		}
		progressSum += reg.Progress
	}

	overall := 0.0
	if total > 0 {
		overall = round2(float64(progressSum) / float64(total))
	}

	recent := regs
	if len(recent) > 5 {
		recent = recent[:5]
	}
	if len(inProgress) > 5 {
		inProgress = inProgress[:5]
	}

	return &UserDashboard{
		UserID:              userID,
		UserName:            user.FullName,
		TotalRegistrations:  total,
		CompletedCourses:    completed,
		InProgressCount:     total - completed,
		OverallProgress:     overall,
		RecentRegistrations: mapRegistrationList(recent),
		InProgressCourses:   mapRegistrationList(inProgress),
	}, nil
}

// IsRegistered 纯读谓词，任何失败条件都返回 false 而非错误
func (s *EnrollmentService) IsRegistered(courseID, userID uint) bool {
	registered, err := s.RegistrationRepo.IsRegistered(userID, courseID)
	if err != nil {
		return false
	}
	return registered
}

// CanRegister 纯读谓词：用户存在、课程开放、未报名
func (s *EnrollmentService) CanRegister(courseID, userID uint) bool {
	exists, err := s.UserRepo.Exists(userID)
	if err != nil || !exists {
		return false
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil || !course.IsActive || !course.IsAccept {
		return false
	}

	registered, err := s.RegistrationRepo.IsRegistered(userID, courseID)
	if err != nil || registered {
		return false
	}

	return true
}

func (s *EnrollmentService) getRegistrationByID(id uint) (*RegistrationResponse, error) {
	reg, err := s.RegistrationRepo.FindDetailed(id)
	if err != nil {
		return nil, err
	}
	return s.buildRegistrationResponse(reg)
}

func (s *EnrollmentService) buildRegistrationResponse(reg *model.CourseRegistration) (*RegistrationResponse, error) {
	resp := &RegistrationResponse{
		RegistrationID:    reg.ID,
		UserID:            reg.UserID,
		CourseID:          reg.CourseID,
		RegisteredAt:      reg.RegisteredAt,
		Completed:         reg.Completed,
		CompletedAt:       reg.CompletedAt,
		Progress:          reg.Progress,
		CompletedContents: reg.CompletedContents(),
	}

	if reg.User != nil {
		resp.UserName = reg.User.FullName
		resp.UserEmail = reg.User.Email
	}
	if reg.Course != nil {
		resp.CourseTitle = reg.Course.Title
	}

	total, err := s.ContentRepo.CountActiveByCourse(reg.CourseID)
	if err != nil {
		return nil, err
	}
	resp.TotalContents = int(total)

	return resp, nil
}

func (s *EnrollmentService) invalidateStatsCache(courseID uint) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf("%s%d", enrollmentStatsKeyPrefix, courseID)
	if err := s.Redis.Del(context.Background(), key).Err(); err != nil {
		logger.Log.Warn("failed to invalidate enrollment stats cache",
			zap.Uint("courseId", courseID), zap.Error(err))
	}
}

func applyRegistrationFilter(regs []model.CourseRegistration, filter repository.RegistrationFilter) []model.CourseRegistration {
	filtered := make([]model.CourseRegistration, 0, len(regs))
	for _, reg := range regs {
		if filter.Completed != nil && reg.Completed != *filter.Completed {
			continue
		}
		if filter.TargetGroup != "" && (reg.Course == nil || reg.Course.TargetGroup != filter.TargetGroup) {
			continue
		}
		if filter.AgeGroup != "" && (reg.Course == nil || reg.Course.AgeGroup != filter.AgeGroup) {
			continue
		}
		if filter.FromDate != nil && reg.RegisteredAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && reg.RegisteredAt.After(*filter.ToDate) {
			continue
		}
		if filter.MinProgress != nil && reg.Progress < *filter.MinProgress {
			continue
		}
		if filter.MaxProgress != nil && reg.Progress > *filter.MaxProgress {
			continue
		}
		filtered = append(filtered, reg)
	}
	return filtered
}

func paginateRegistrations(regs []model.CourseRegistration, page, limit int) ([]RegistrationListItem, int64, error) {
	total := int64(len(regs))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	start := (page - 1) * limit
	if start >= len(regs) {
		return []RegistrationListItem{}, total, nil
	}
	end := start + limit
	if end > len(regs) {
		end = len(regs)
	}

	return mapRegistrationList(regs[start:end]), total, nil
}

func mapRegistrationList(regs []model.CourseRegistration) []RegistrationListItem {
	items := make([]RegistrationListItem, len(regs))
	for i, reg := range regs {
		item := RegistrationListItem{
			RegistrationID: reg.ID,
			UserID:         reg.UserID,
			CourseID:       reg.CourseID,
			RegisteredAt:   reg.RegisteredAt,
			Completed:      reg.Completed,
			Progress:       reg.Progress,
		}
		if reg.User != nil {
			item.UserName = reg.User.FullName
			item.UserEmail = reg.User.Email
		}
		if reg.Course != nil {
			item.CourseTitle = reg.Course.Title
			item.TargetGroup = reg.Course.TargetGroup
			item.AgeGroup = reg.Course.AgeGroup
		}
		items[i] = item
	}
	return items
}

func clampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
