package service

import (
	"testing"

	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseCreateStartsUnapproved(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")

	course, err := env.courses.Create(CreateCourseRequest{
		Title:       "拒绝技巧入门",
		Description: "基础课程",
		Skills:      []string{"refusal", "awareness"},
	}, staff.ID)
	require.NoError(t, err)

	assert.False(t, course.IsAccept)
	assert.True(t, course.IsActive)
	assert.Equal(t, staff.ID, course.CreatedBy)
	assert.Equal(t, []string{"refusal", "awareness"}, course.Skills)
}

func TestCourseCreateUnknownCreator(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.courses.Create(CreateCourseRequest{Title: "课程"}, 999)
	assert.True(t, util.IsValidation(err))
}

func TestCourseCreateDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	env.createCourse(t, staff.ID, "重复标题", false)

	_, err := env.courses.Create(CreateCourseRequest{Title: "重复标题"}, staff.ID)
	assert.True(t, util.IsConflict(err))
}

func TestCourseCreateInvalidSkills(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")

	_, err := env.courses.Create(CreateCourseRequest{
		Title:  "课程",
		Skills: []string{"refusal", "no_such_skill"},
	}, staff.ID)
	require.Error(t, err)
	assert.True(t, util.IsValidation(err))
	assert.Contains(t, err.Error(), "no_such_skill")
}

func TestCourseUpdateKeepsApprovalState(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	created := env.createCourse(t, staff.ID, "原标题", false)

	require.NoError(t, env.courses.Approve(created.ID, true))

	updated, err := env.courses.Update(UpdateCourseRequest{
		CourseID: created.ID,
		Title:    "新标题",
		IsActive: true,
	})
	require.NoError(t, err)

	// 更新接口不触碰审核状态
	assert.True(t, updated.IsAccept)
	assert.Equal(t, "新标题", updated.Title)
}

func TestCourseUpdateTitleConflict(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	env.createCourse(t, staff.ID, "已占用", false)
	course := env.createCourse(t, staff.ID, "待改名", false)

	_, err := env.courses.Update(UpdateCourseRequest{
		CourseID: course.ID,
		Title:    "已占用",
		IsActive: true,
	})
	assert.True(t, util.IsConflict(err))

	// 改回自己的标题不算冲突
	_, err = env.courses.Update(UpdateCourseRequest{
		CourseID: course.ID,
		Title:    "待改名",
		IsActive: true,
	})
	assert.NoError(t, err)
}

func TestCourseApproveToggle(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "待审核课程", false)

	require.NoError(t, env.courses.Approve(course.ID, true))
	got, err := env.courses.GetByID(course.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAccept)

	require.NoError(t, env.courses.Approve(course.ID, false))
	got, err = env.courses.GetByID(course.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAccept)
}

func TestCourseDeleteCascadesToContents(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "即将删除", false)
	content := env.createContent(t, course.ID, 0)

	require.NoError(t, env.courses.Delete(course.ID, staff.ID))

	got, err := env.courseRepo.FindByID(course.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	gotContent, err := env.contentRepo.FindByID(content.ID)
	require.NoError(t, err)
	assert.False(t, gotContent.IsActive)
}

func TestCourseDeleteBlockedByRegistrations(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "有报名的课程", true)

	_, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	err = env.courses.Delete(course.ID, staff.ID)
	assert.True(t, util.IsConflict(err))
}

func TestCourseListFilters(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	approved := env.createCourse(t, staff.ID, "已审核课程", true)
	env.createCourse(t, staff.ID, "待审核课程", false)

	acceptOnly := true
	list, total, err := env.courses.List(repository.CourseFilter{
		IsAccept: &acceptOnly,
		Page:     1,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].CourseID)

	list, total, err = env.courses.List(repository.CourseFilter{
		Keyword: "待审核",
		Page:    1,
		Limit:   10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "待审核课程", list[0].Title)
}
