package controller

import (
	"strconv"
	"strings"
	"time"

	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService  *service.CourseService
	StorageService *service.StorageService
}

func NewCourseController(courseService *service.CourseService, storageService *service.StorageService) *CourseController {
	return &CourseController{
		CourseService:  courseService,
		StorageService: storageService,
	}
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 创建新课程，初始为待审核状态
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=service.CourseResponse} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "课程标题已存在"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	course, err := c.CourseService.Create(req, claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Description 更新课程基本信息，审核状态不在此接口范围内
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.UpdateCourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=service.CourseResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "课程标题已存在"
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.CourseID = util.MustParseUint(ctx.Param("id"))

	course, err := c.CourseService.Update(req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表
// @Description 条件过滤 + 分页的课程列表
// @Tags 课程
// @Produce  json
// @Param   keyword query string false "标题/描述关键字"
// @Param   targetGroup query string false "目标人群"
// @Param   ageGroup query string false "年龄段"
// @Param   skills query string false "技能标签，逗号分隔"
// @Param   isActive query bool false "是否激活"
// @Param   isAccept query bool false "是否已审核"
// @Param   createdBy query int false "创建者ID"
// @Param   fromDate query string false "起始日期 YYYY-MM-DD"
// @Param   toDate query string false "截止日期 YYYY-MM-DD"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	filter := repository.CourseFilter{
		Keyword:     ctx.Query("keyword"),
		TargetGroup: ctx.Query("targetGroup"),
		AgeGroup:    ctx.Query("ageGroup"),
		CreatedBy:   util.MustParseUint(ctx.Query("createdBy")),
	}

	if skills := ctx.Query("skills"); skills != "" {
		filter.Skills = strings.Split(skills, ",")
	}
	if v := ctx.Query("isActive"); v != "" {
		b, _ := strconv.ParseBool(v)
		filter.IsActive = &b
	}
	if v := ctx.Query("isAccept"); v != "" {
		b, _ := strconv.ParseBool(v)
		filter.IsAccept = &b
	}
	if v := ctx.Query("fromDate"); v != "" {
		if t, err := time.Parse(util.DateFormat, v); err == nil {
			filter.FromDate = &t
		}
	}
	if v := ctx.Query("toDate"); v != "" {
		if t, err := time.Parse(util.DateFormat, v); err == nil {
			filter.ToDate = &t
		}
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	courses, total, err := c.CourseService.List(filter)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

type ToggleStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// ToggleStatus godoc
// @Summary 启用/停用课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body ToggleStatusRequest true "目标状态"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/toggle-status [patch]
func (c *CourseController) ToggleStatus(ctx *gin.Context) {
	var req ToggleStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CourseService.SetActive(util.MustParseUint(ctx.Param("id")), req.IsActive); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

type ApproveRequest struct {
	IsAccept bool `json:"isAccept"`
}

// ApproveCourse godoc
// @Summary 课程审核
// @Description 审核通过或驳回课程，仅管理员可用
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body ApproveRequest true "审核结果"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/approve [patch]
func (c *CourseController) ApproveCourse(ctx *gin.Context) {
	var req ApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CourseService.Approve(util.MustParseUint(ctx.Param("id")), req.IsAccept); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 软删除课程及其全部课时；已有报名的课程不可删除
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "课程已有报名记录"
// @Router /api/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.Delete(util.MustParseUint(ctx.Param("id")), claims.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// UploadThumbnail godoc
// @Summary 上传课程封面
// @Tags 课程
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "封面图片"
// @Success 200 {object} util.Response{data=service.UploadedFile} "成功"
// @Failure 400 {object} util.Response "文件类型错误"
// @Router /api/courses/upload-thumbnail [post]
func (c *CourseController) UploadThumbnail(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	uploaded, err := c.StorageService.UploadThumbnail(ctx.Request.Context(), header)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, uploaded)
}
