package controller

import (
	"strconv"

	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseContentController struct {
	ContentService *service.CourseContentService
	StorageService *service.StorageService
}

func NewCourseContentController(contentService *service.CourseContentService, storageService *service.StorageService) *CourseContentController {
	return &CourseContentController{
		ContentService: contentService,
		StorageService: storageService,
	}
}

// CreateContent godoc
// @Summary 创建课时
// @Description 在课程下创建课时，序号在激活课时中必须唯一
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Param   body body service.CreateContentRequest true "课时信息"
// @Success 201 {object} util.Response{data=service.ContentResponse} "创建成功"
// @Failure 400 {object} util.Response "内容校验失败"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "序号已被占用"
// @Router /api/courses/{courseId}/contents [post]
func (c *CourseContentController) CreateContent(ctx *gin.Context) {
	var req service.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.CourseID = util.MustParseUint(ctx.Param("id"))

	content, err := c.ContentService.Create(req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, content)
}

// UpdateContent godoc
// @Summary 更新课时
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Param   body body service.UpdateContentRequest true "课时信息"
// @Success 200 {object} util.Response{data=service.ContentResponse} "成功"
// @Failure 400 {object} util.Response "内容校验失败"
// @Failure 404 {object} util.Response "课时不存在"
// @Failure 409 {object} util.Response "序号已被占用"
// @Router /api/contents/{id} [put]
func (c *CourseContentController) UpdateContent(ctx *gin.Context) {
	var req service.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.ContentID = util.MustParseUint(ctx.Param("id"))

	content, err := c.ContentService.Update(req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, content)
}

// GetContent godoc
// @Summary 课时详情
// @Tags 课时
// @Produce  json
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=service.ContentResponse} "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/contents/{id} [get]
func (c *CourseContentController) GetContent(ctx *gin.Context) {
	content, err := c.ContentService.GetByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, content)
}

// DeleteContent godoc
// @Summary 删除课时
// @Description 软删除课时；已有学习记录的课时不可删除，序号空洞不回收
// @Tags 课时
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Failure 409 {object} util.Response "课时已有学习记录"
// @Router /api/contents/{id} [delete]
func (c *CourseContentController) DeleteContent(ctx *gin.Context) {
	if err := c.ContentService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// ListActiveContents godoc
// @Summary 课程的激活课时
// @Description 按序号升序返回课程的全部激活课时
// @Tags 课时
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.ContentResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/contents/active [get]
func (c *CourseContentController) ListActiveContents(ctx *gin.Context) {
	contents, err := c.ContentService.ListActive(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, contents)
}

// ListContents godoc
// @Summary 课程的全部课时（分页）
// @Tags 课时
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/contents [get]
func (c *CourseContentController) ListContents(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	contents, total, err := c.ContentService.ListByCourse(util.MustParseUint(ctx.Param("id")), page, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  contents,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// NextOrderIndex godoc
// @Summary 下一个可用序号
// @Description 查询课程内下一个可用的课时序号，不做预留
// @Tags 课时
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/contents/next-order [get]
func (c *CourseContentController) NextOrderIndex(ctx *gin.Context) {
	next, err := c.ContentService.NextOrderIndex(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"nextOrderIndex": next})
}

type ReorderRequest struct {
	Orders map[uint]int `json:"orders" binding:"required"`
}

// ReorderContents godoc
// @Summary 批量重排课时
// @Description 批量调整课时序号，外部课时条目被跳过并返回原因
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Param   body body ReorderRequest true "课时ID到序号的映射"
// @Success 200 {object} util.Response{data=[]service.ReorderResult} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/contents/reorder [post]
func (c *CourseContentController) ReorderContents(ctx *gin.Context) {
	var req ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	results, err := c.ContentService.Reorder(util.MustParseUint(ctx.Param("id")), req.Orders)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, results)
}

// UploadContentFile godoc
// @Summary 上传课时附件
// @Description 上传视频或文档，视频会探测时长、分辨率等元数据
// @Tags 课时
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "课时附件"
// @Success 200 {object} util.Response{data=service.UploadedFile} "成功"
// @Failure 400 {object} util.Response "文件类型错误"
// @Router /api/contents/upload-file [post]
func (c *CourseContentController) UploadContentFile(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	uploaded, err := c.StorageService.UploadContentFile(ctx.Request.Context(), header)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, uploaded)
}
