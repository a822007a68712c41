package service

import (
	"testing"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/pkg/database"
	"prevention_edu_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	userRepo    *repository.UserRepository
	courseRepo  *repository.CourseRepository
	contentRepo *repository.CourseContentRepository
	regRepo     *repository.CourseRegistrationRepository
	tagRepo     *repository.SkillTagRepository

	tags       *SkillTagService
	courses    *CourseService
	contents   *CourseContentService
	enrollment *EnrollmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库必须收敛到单连接，否则每个连接各自一个空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		courseRepo:  repository.NewCourseRepository(db),
		contentRepo: repository.NewCourseContentRepository(db),
		regRepo:     repository.NewCourseRegistrationRepository(db),
		tagRepo:     repository.NewSkillTagRepository(db),
	}

	env.tags = NewSkillTagService(env.tagRepo)
	env.courses = NewCourseService(env.courseRepo, env.contentRepo, env.userRepo, env.regRepo, env.tags)
	env.contents = NewCourseContentService(env.contentRepo, env.courseRepo)
	env.enrollment = NewEnrollmentService(env.regRepo, env.courseRepo, env.contentRepo, env.userRepo, nil)

	return env
}

func (e *testEnv) createUser(t *testing.T, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		FullName: "测试用户",
		Email:    email,
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createCourse(t *testing.T, creatorID uint, title string, accept bool) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:     title,
		CreatedBy: creatorID,
		IsActive:  true,
		IsAccept:  accept,
	}
	require.NoError(t, e.courseRepo.Create(course))
	return course
}

func (e *testEnv) createContent(t *testing.T, courseID uint, order int) *model.CourseContent {
	t.Helper()
	content := &model.CourseContent{
		CourseID:    courseID,
		Title:       "课时",
		ContentType: model.ContentText,
		ContentData: "内容",
		OrderIndex:  order,
		IsActive:    true,
	}
	require.NoError(t, e.contentRepo.Create(content))
	return content
}
