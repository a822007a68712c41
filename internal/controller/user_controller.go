package controller

import (
	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	EnrollmentService *service.EnrollmentService
}

func NewUserController(enrollmentService *service.EnrollmentService) *UserController {
	return &UserController{EnrollmentService: enrollmentService}
}

// Dashboard godoc
// @Summary 我的学习看板
// @Description 当前用户的报名总量、完成数、整体进度与最近课程
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserDashboard} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users/me/dashboard [get]
func (c *UserController) Dashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.EnrollmentService.UserDashboardFor(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, dashboard)
}

// MyRegistrations godoc
// @Summary 我的报名列表
// @Description 当前用户的全部报名，条件过滤 + 分页
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   completed query bool false "是否已完成"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users/me/registrations [get]
func (c *UserController) MyRegistrations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := parseRegistrationFilter(ctx)

	regs, total, err := c.EnrollmentService.UserRegistrations(claims.UserID, filter)
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
