package controller

import (
	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SkillTagController struct {
	SkillTagService *service.SkillTagService
}

func NewSkillTagController(skillTagService *service.SkillTagService) *SkillTagController {
	return &SkillTagController{SkillTagService: skillTagService}
}

// ListTags godoc
// @Summary 可用技能标签
// @Description 课程可引用的技能标签词表
// @Tags 技能标签
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.SkillTag} "成功"
// @Router /api/skill-tags [get]
func (c *SkillTagController) ListTags(ctx *gin.Context) {
	tags, err := c.SkillTagService.ListTags()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, tags)
}

// ListAllTags godoc
// @Summary 全部技能标签
// @Description 含停用标签的完整词表，管理端使用
// @Tags 技能标签
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.SkillTag} "成功"
// @Router /api/admin/skill-tags [get]
func (c *SkillTagController) ListAllTags(ctx *gin.Context) {
	tags, err := c.SkillTagService.ListAllTags()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, tags)
}
