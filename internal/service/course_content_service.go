package service

import (
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/util"
	"prevention_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CourseContentService 课时排序引擎：序号槽位、类型校验、批量重排
type CourseContentService struct {
	ContentRepo *repository.CourseContentRepository
	CourseRepo  *repository.CourseRepository
}

func NewCourseContentService(
	contentRepo *repository.CourseContentRepository,
	courseRepo *repository.CourseRepository,
) *CourseContentService {
	return &CourseContentService{
		ContentRepo: contentRepo,
		CourseRepo:  courseRepo,
	}
}

type CreateContentRequest struct {
	CourseID    uint              `json:"courseId" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	ContentType model.ContentType `json:"contentType" binding:"required,oneof=video text document quiz"`
	ContentData string            `json:"contentData"`
	OrderIndex  int               `json:"orderIndex"`
	IsActive    *bool             `json:"isActive"`
}

type UpdateContentRequest struct {
	ContentID   uint              `json:"contentId" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	ContentType model.ContentType `json:"contentType" binding:"required,oneof=video text document quiz"`
	ContentData string            `json:"contentData"`
	OrderIndex  int               `json:"orderIndex"`
	IsActive    bool              `json:"isActive"`
}

type ContentResponse struct {
	ContentID   uint              `json:"contentId"`
	CourseID    uint              `json:"courseId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ContentType model.ContentType `json:"contentType"`
	ContentData string            `json:"contentData"`
	FileURL     string            `json:"fileUrl"`
	FileName    string            `json:"fileName"`
	FileSize    int64             `json:"fileSize"`
	MimeType    string            `json:"mimeType"`
	OrderIndex  int               `json:"orderIndex"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	CourseName  string            `json:"courseName"`
}

// ReorderResult 批量重排中单条目的处理结果
type ReorderResult struct {
	ContentID  uint   `json:"contentId"`
	OrderIndex int    `json:"orderIndex"`
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason,omitempty"`
}

// NextOrderIndex 下一个可用序号，不做预留
func (s *CourseContentService) NextOrderIndex(courseID uint) (int, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.NewNotFoundError("课程不存在")
		}
		return 0, err
	}
	return s.ContentRepo.NextOrderIndex(courseID)
}

func (s *CourseContentService) Create(req CreateContentRequest) (*ContentResponse, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	occupied, err := s.ContentRepo.ExistsWithOrder(req.CourseID, req.OrderIndex, 0)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, util.NewConflictError("该序号在课程中已被占用")
	}

	if err := validateContentData(req.ContentType, req.ContentData); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	content := &model.CourseContent{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
		ContentData: req.ContentData,
		OrderIndex:  req.OrderIndex,
		IsActive:    isActive,
	}

	if err := s.ContentRepo.Create(content); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NewConflictError("该序号在课程中已被占用")
		}
		return nil, err
	}

	return s.GetByID(content.ID)
}

func (s *CourseContentService) Update(req UpdateContentRequest) (*ContentResponse, error) {
	content, err := s.ContentRepo.FindByID(req.ContentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课时不存在")
		}
		return nil, err
	}

	occupied, err := s.ContentRepo.ExistsWithOrder(content.CourseID, req.OrderIndex, content.ID)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, util.NewConflictError("该序号在课程中已被占用")
	}

	if err := validateContentData(req.ContentType, req.ContentData); err != nil {
		return nil, err
	}

	content.Title = req.Title
	content.Description = req.Description
	content.ContentType = req.ContentType
	content.ContentData = req.ContentData
	content.OrderIndex = req.OrderIndex
	content.IsActive = req.IsActive

	if err := s.ContentRepo.Update(content); err != nil {
		return nil, err
	}

	return s.GetByID(content.ID)
}

// Delete 软删除课时。已有学习记录的课时不允许删除；不回收序号，空洞是预期内的
func (s *CourseContentService) Delete(contentID uint) error {
	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("课时不存在")
		}
		return err
	}

	hasProgress, err := s.ContentRepo.HasProgressRecords(contentID)
	if err != nil {
		return err
	}
	if hasProgress {
		return util.NewConflictError("课时已有学习记录，无法删除")
	}

	content.IsActive = false
	return s.ContentRepo.Update(content)
}

// Reorder 批量调整序号。不属于该课程的条目跳过并在结果中标记，
// 接受的条目在单事务内全量生效；最终序号集合是否无冲突由调用方保证
func (s *CourseContentService) Reorder(courseID uint, mapping map[uint]int) ([]ReorderResult, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	contentIDs := make([]uint, 0, len(mapping))
	for id := range mapping {
		contentIDs = append(contentIDs, id)
	}
	sort.Slice(contentIDs, func(i, j int) bool { return contentIDs[i] < contentIDs[j] })

	results := make([]ReorderResult, 0, len(mapping))
	var accepted []repository.OrderUpdate

	for _, contentID := range contentIDs {
		newIndex := mapping[contentID]
		result := ReorderResult{ContentID: contentID, OrderIndex: newIndex}

		content, err := s.ContentRepo.FindByID(contentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.Reason = "课时不存在"
		case err != nil:
			return nil, err
		case content.CourseID != courseID:
			result.Reason = "课时不属于该课程"
		default:
			result.Applied = true
			accepted = append(accepted, repository.OrderUpdate{
				ContentID:  contentID,
				OrderIndex: newIndex,
			})
		}
		results = append(results, result)
	}

	if err := s.ContentRepo.ApplyOrderUpdates(accepted); err != nil {
		return nil, err
	}

	logger.Log.Info("course contents reordered",
		zap.Uint("courseId", courseID),
		zap.Int("applied", len(accepted)),
		zap.Int("skipped", len(results)-len(accepted)))

	return results, nil
}

// ListActive 激活课时，序号升序
func (s *CourseContentService) ListActive(courseID uint) ([]ContentResponse, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课程不存在")
		}
		return nil, err
	}

	contents, err := s.ContentRepo.FindActiveByCourse(courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]ContentResponse, len(contents))
	for i := range contents {
		responses[i] = *mapContentResponse(&contents[i])
	}
	return responses, nil
}

// ListByCourse 管理端分页视图，含停用课时
func (s *CourseContentService) ListByCourse(courseID uint, page, limit int) ([]ContentResponse, int64, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, util.NewNotFoundError("课程不存在")
		}
		return nil, 0, err
	}

	contents, total, err := s.ContentRepo.FindByCourse(courseID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ContentResponse, len(contents))
	for i := range contents {
		responses[i] = *mapContentResponse(&contents[i])
	}
	return responses, total, nil
}

func (s *CourseContentService) GetByID(contentID uint) (*ContentResponse, error) {
	content, err := s.ContentRepo.FindWithCourse(contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("课时不存在")
		}
		return nil, err
	}
	return mapContentResponse(content), nil
}

// validateContentData 按课时类型校验内容载荷
// video/document 必须是绝对 http(s) URL，text 限长，quiz 必须是合法 JSON
func validateContentData(contentType model.ContentType, contentData string) error {
	if contentType == "" || contentData == "" {
		return nil
	}

	switch contentType {
	case model.ContentVideo:
		if !isAbsoluteHTTPURL(contentData) {
			return util.NewValidationError("视频URL不合法")
		}
	case model.ContentDocument:
		if !isAbsoluteHTTPURL(contentData) {
			return util.NewValidationError("文档URL不合法")
		}
	case model.ContentText:
		if len([]rune(contentData)) > util.MaxTextContentLength {
			return util.NewValidationError("文本内容过长（最多 %d 字符）", util.MaxTextContentLength)
		}
	case model.ContentQuiz:
		if !json.Valid([]byte(contentData)) {
			return util.NewValidationError("测验内容必须是合法的JSON")
		}
	}
	return nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func mapContentResponse(content *model.CourseContent) *ContentResponse {
	courseName := ""
	if content.Course != nil {
		courseName = content.Course.Title
	}

	return &ContentResponse{
		ContentID:   content.ID,
		CourseID:    content.CourseID,
		Title:       content.Title,
		Description: content.Description,
		ContentType: content.ContentType,
		ContentData: content.ContentData,
		FileURL:     content.FileURL,
		FileName:    content.FileName,
		FileSize:    content.FileSize,
		MimeType:    content.MimeType,
		OrderIndex:  content.OrderIndex,
		IsActive:    content.IsActive,
		CreatedAt:   content.CreatedAt,
		CourseName:  courseName,
	}
}
