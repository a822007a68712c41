package service

import (
	"testing"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegisterRequiresOpenCourse(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")

	pending := env.createCourse(t, staff.ID, "待审核", false)
	_, err := env.enrollment.Register(pending.ID, member.ID)
	assert.True(t, util.IsConflict(err))

	inactive := env.createCourse(t, staff.ID, "已停用", true)
	require.NoError(t, env.courses.SetActive(inactive.ID, false))
	_, err = env.enrollment.Register(inactive.ID, member.ID)
	assert.True(t, util.IsConflict(err))

	open := env.createCourse(t, staff.ID, "开放课程", true)
	reg, err := env.enrollment.Register(open.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, reg.UserID)
	assert.Equal(t, 0, reg.Progress)
	assert.False(t, reg.Completed)
}

func TestRegisterUnknownUserAndCourse(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", true)

	_, err := env.enrollment.Register(course.ID, 999)
	assert.True(t, util.IsValidation(err))

	member := env.createUser(t, "member@test.local", "member")
	_, err = env.enrollment.Register(999, member.ID)
	assert.True(t, util.IsNotFound(err))
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	_, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.Register(course.ID, member.ID)
	assert.True(t, util.IsConflict(err))
}

func TestRegistrationUniqueIndex(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	require.NoError(t, env.regRepo.Create(&model.CourseRegistration{
		UserID:   member.ID,
		CourseID: course.ID,
	}))

	// 绕过服务层的并发重复写入由唯一索引拦截
	err := env.regRepo.Create(&model.CourseRegistration{
		UserID:   member.ID,
		CourseID: course.ID,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUnregisterBlockedOverHalfProgress(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.UpdateProgress(reg.RegistrationID, 51, false, member.ID)
	require.NoError(t, err)

	err = env.enrollment.Unregister(course.ID, member.ID)
	assert.True(t, util.IsConflict(err))
	// 百分号必须原样出现在提示文案里
	assert.EqualError(t, err, "课程进度已超过50%，无法退课")

	_, err = env.enrollment.UpdateProgress(reg.RegistrationID, 50, false, member.ID)
	require.NoError(t, err)

	require.NoError(t, env.enrollment.Unregister(course.ID, member.ID))

	// 物理删除后可以重新报名
	_, err = env.enrollment.Register(course.ID, member.ID)
	assert.NoError(t, err)
}

func TestUpdateProgressClamping(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	got, err := env.enrollment.UpdateProgress(reg.RegistrationID, 150, false, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)

	got, err = env.enrollment.UpdateProgress(reg.RegistrationID, -10, false, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Progress)

	// 进度允许回退
	got, err = env.enrollment.UpdateProgress(reg.RegistrationID, 30, false, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Progress)
}

func TestCompletedAtStampedOnce(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	first, err := env.enrollment.UpdateProgress(reg.RegistrationID, 100, true, member.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := env.enrollment.UpdateProgress(reg.RegistrationID, 100, true, member.ID)
	require.NoError(t, err)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestUpdateProgressOwnership(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	intruder := env.createUser(t, "intruder@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.UpdateProgress(reg.RegistrationID, 10, false, intruder.ID)
	assert.True(t, util.IsAuthorization(err))
}

func TestCompleteContentRecomputesProgress(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)
	c1 := env.createContent(t, course.ID, 0)
	c2 := env.createContent(t, course.ID, 1)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	got, err := env.enrollment.CompleteContent(reg.RegistrationID, c1.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, 1, got.CompletedContents)
	assert.False(t, got.Completed)

	// 重复完成同一课时不改变进度
	got, err = env.enrollment.CompleteContent(reg.RegistrationID, c1.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)

	got, err = env.enrollment.CompleteContent(reg.RegistrationID, c2.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)
}

func TestCompleteContentForeignContent(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)
	other := env.createCourse(t, staff.ID, "其他课程", true)
	foreign := env.createContent(t, other.ID, 0)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.CompleteContent(reg.RegistrationID, foreign.ID, member.ID)
	assert.True(t, util.IsValidation(err))
}

func TestEnrollmentStats(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", true)

	u1 := env.createUser(t, "u1@test.local", "member")
	u2 := env.createUser(t, "u2@test.local", "member")
	u3 := env.createUser(t, "u3@test.local", "member")

	r1, err := env.enrollment.Register(course.ID, u1.ID)
	require.NoError(t, err)
	r2, err := env.enrollment.Register(course.ID, u2.ID)
	require.NoError(t, err)
	_, err = env.enrollment.Register(course.ID, u3.ID)
	require.NoError(t, err)

	_, err = env.enrollment.UpdateProgress(r1.RegistrationID, 100, true, u1.ID)
	require.NoError(t, err)
	_, err = env.enrollment.UpdateProgress(r2.RegistrationID, 50, false, u2.ID)
	require.NoError(t, err)

	stats, err := env.enrollment.EnrollmentStatsFor(course.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalEnrollments)
	assert.Equal(t, 1, stats.CompletedEnrollments)
	assert.Equal(t, 2, stats.InProgressEnrollments)
	assert.InDelta(t, 33.33, stats.CompletionRate, 0.001)
	assert.InDelta(t, 50.0, stats.AverageProgress, 0.001)
	assert.Len(t, stats.RecentEnrollments, 3)
}

func TestUserDashboard(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")

	done := env.createCourse(t, staff.ID, "完成的课程", true)
	ongoing := env.createCourse(t, staff.ID, "进行中的课程", true)

	r1, err := env.enrollment.Register(done.ID, member.ID)
	require.NoError(t, err)
	r2, err := env.enrollment.Register(ongoing.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.UpdateProgress(r1.RegistrationID, 100, true, member.ID)
	require.NoError(t, err)
	_, err = env.enrollment.UpdateProgress(r2.RegistrationID, 40, false, member.ID)
	require.NoError(t, err)

	dash, err := env.enrollment.UserDashboardFor(member.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, dash.TotalRegistrations)
	assert.Equal(t, 1, dash.CompletedCourses)
	assert.Equal(t, 1, dash.InProgressCount)
	assert.InDelta(t, 70.0, dash.OverallProgress, 0.001)
	require.Len(t, dash.InProgressCourses, 1)
	assert.Equal(t, "进行中的课程", dash.InProgressCourses[0].CourseTitle)
}

func TestCanRegisterPredicates(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")

	pending := env.createCourse(t, staff.ID, "待审核", false)
	open := env.createCourse(t, staff.ID, "开放课程", true)

	assert.False(t, env.enrollment.CanRegister(pending.ID, member.ID))
	assert.False(t, env.enrollment.CanRegister(open.ID, 999))
	assert.True(t, env.enrollment.CanRegister(open.ID, member.ID))
	assert.False(t, env.enrollment.IsRegistered(open.ID, member.ID))

	_, err := env.enrollment.Register(open.ID, member.ID)
	require.NoError(t, err)

	assert.False(t, env.enrollment.CanRegister(open.ID, member.ID))
	assert.True(t, env.enrollment.IsRegistered(open.ID, member.ID))
}

func TestCourseRegistrationsFilterAndPaging(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", true)

	u1 := env.createUser(t, "u1@test.local", "member")
	u2 := env.createUser(t, "u2@test.local", "member")

	r1, err := env.enrollment.Register(course.ID, u1.ID)
	require.NoError(t, err)
	_, err = env.enrollment.Register(course.ID, u2.ID)
	require.NoError(t, err)

	_, err = env.enrollment.UpdateProgress(r1.RegistrationID, 100, true, u1.ID)
	require.NoError(t, err)

	completed := true
	list, total, err := env.enrollment.CourseRegistrations(course.ID, repository.RegistrationFilter{
		Completed: &completed,
		Page:      1,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, u1.ID, list[0].UserID)

	list, total, err = env.enrollment.CourseRegistrations(course.ID, repository.RegistrationFilter{
		Page:  2,
		Limit: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 1)
}
