package controller

import (
	"strconv"
	"time"

	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Register godoc
// @Summary 报名课程
// @Description 报名已审核且激活的课程，重复报名返回冲突
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=service.RegistrationResponse} "报名成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "课程不可报名或已报名"
// @Router /api/courses/{courseId}/register [post]
func (c *EnrollmentController) Register(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	reg, err := c.EnrollmentService.Register(util.MustParseUint(ctx.Param("id")), claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, reg)
}

// Unregister godoc
// @Summary 退课
// @Description 退出课程；进度超过50%后不允许退课
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "报名记录不存在"
// @Failure 409 {object} util.Response "进度超过50%"
// @Router /api/courses/{courseId}/unregister [delete]
func (c *EnrollmentController) Unregister(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.EnrollmentService.Unregister(util.MustParseUint(ctx.Param("id")), claims.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// GetRegistration godoc
// @Summary 我的报名详情
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.RegistrationResponse} "成功"
// @Failure 404 {object} util.Response "报名记录不存在"
// @Router /api/courses/{courseId}/registration [get]
func (c *EnrollmentController) GetRegistration(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	reg, err := c.EnrollmentService.GetRegistration(util.MustParseUint(ctx.Param("id")), claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, reg)
}

// IsRegistered godoc
// @Summary 是否已报名
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses/{courseId}/is-registered [get]
func (c *EnrollmentController) IsRegistered(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	registered := c.EnrollmentService.IsRegistered(util.MustParseUint(ctx.Param("id")), claims.UserID)
	util.Success(ctx, gin.H{"isRegistered": registered})
}

// CanRegister godoc
// @Summary 是否可报名
// @Description 检查课程是否开放且用户未报名
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses/{courseId}/can-register [get]
func (c *EnrollmentController) CanRegister(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	canRegister := c.EnrollmentService.CanRegister(util.MustParseUint(ctx.Param("id")), claims.UserID)
	util.Success(ctx, gin.H{"canRegister": canRegister})
}

// CourseRegistrations godoc
// @Summary 课程报名列表
// @Description 课程维度的报名列表，条件过滤 + 分页，管理端使用
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Param   completed query bool false "是否已完成"
// @Param   targetGroup query string false "目标人群"
// @Param   ageGroup query string false "年龄段"
// @Param   fromDate query string false "起始日期 YYYY-MM-DD"
// @Param   toDate query string false "截止日期 YYYY-MM-DD"
// @Param   minProgress query int false "最小进度"
// @Param   maxProgress query int false "最大进度"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/registrations [get]
func (c *EnrollmentController) CourseRegistrations(ctx *gin.Context) {
	filter := parseRegistrationFilter(ctx)

	regs, total, err := c.EnrollmentService.CourseRegistrations(util.MustParseUint(ctx.Param("id")), filter)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  regs,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// EnrollmentStats godoc
// @Summary 课程报名统计
// @Description 课程的报名总量、完成率、平均进度与最近报名
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.EnrollmentStats} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/enrollment-stats [get]
func (c *EnrollmentController) EnrollmentStats(ctx *gin.Context) {
	stats, err := c.EnrollmentService.EnrollmentStatsFor(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

type UpdateProgressRequest struct {
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// UpdateProgress godoc
// @Summary 更新学习进度
// @Description 更新自己某次报名的进度，进度收敛到0-100
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   registrationId path int true "报名ID"
// @Param   body body UpdateProgressRequest true "进度信息"
// @Success 200 {object} util.Response{data=service.RegistrationResponse} "成功"
// @Failure 403 {object} util.Response "无权更新他人记录"
// @Failure 404 {object} util.Response "报名记录不存在"
// @Router /api/registrations/{registrationId}/progress [patch]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	reg, err := c.EnrollmentService.UpdateProgress(
		util.MustParseUint(ctx.Param("registrationId")),
		req.Progress, req.Completed, claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, reg)
}

// CompleteContent godoc
// @Summary 标记课时完成
// @Description 标记单课时已完成并按激活课时数重算总进度
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   registrationId path int true "报名ID"
// @Param   contentId path int true "课时ID"
// @Success 200 {object} util.Response{data=service.RegistrationResponse} "成功"
// @Failure 400 {object} util.Response "课时不属于该课程"
// @Failure 403 {object} util.Response "无权更新他人记录"
// @Failure 404 {object} util.Response "报名记录或课时不存在"
// @Router /api/registrations/{registrationId}/contents/{contentId}/complete [post]
func (c *EnrollmentController) CompleteContent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	reg, err := c.EnrollmentService.CompleteContent(
		util.MustParseUint(ctx.Param("registrationId")),
		util.MustParseUint(ctx.Param("contentId")),
		claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, reg)
}

func parseRegistrationFilter(ctx *gin.Context) repository.RegistrationFilter {
	filter := repository.RegistrationFilter{
		TargetGroup: ctx.Query("targetGroup"),
		AgeGroup:    ctx.Query("ageGroup"),
	}

	if v := ctx.Query("completed"); v != "" {
		b, _ := strconv.ParseBool(v)
		filter.Completed = &b
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
	if v := ctx.Query("minProgress"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			filter.MinProgress = &p
		}
	}
	if v := ctx.Query("maxProgress"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			filter.MaxProgress = &p
		}
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	return filter
}
