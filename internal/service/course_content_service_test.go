package service

import (
	"strings"
	"testing"

	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOrderIndex(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", false)

	next, err := env.contents.NextOrderIndex(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	env.createContent(t, course.ID, 0)
	env.createContent(t, course.ID, 4)

	next, err = env.contents.NextOrderIndex(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	_, err = env.contents.NextOrderIndex(999)
	assert.True(t, util.IsNotFound(err))
}

func TestCreateContentOrderSlotConflict(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", false)

	first, err := env.contents.Create(CreateContentRequest{
		CourseID:    course.ID,
		Title:       "第一课",
		ContentType: model.ContentText,
		ContentData: "正文",
		OrderIndex:  1,
	})
	require.NoError(t, err)

	_, err = env.contents.Create(CreateContentRequest{
		CourseID:    course.ID,
		Title:       "冲突课时",
		ContentType: model.ContentText,
		OrderIndex:  1,
	})
	assert.True(t, util.IsConflict(err))

	// 槽位唯一性只对激活课时生效，停用后序号可复用
	require.NoError(t, env.contents.Delete(first.ContentID))

	_, err = env.contents.Create(CreateContentRequest{
		CourseID:    course.ID,
		Title:       "复用序号",
		ContentType: model.ContentText,
		OrderIndex:  1,
	})
	assert.NoError(t, err)
}

func TestContentPayloadValidation(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", false)

	tests := []struct {
		name        string
		contentType model.ContentType
		contentData string
		wantErr     bool
	}{
		{name: "video absolute url", contentType: model.ContentVideo, contentData: "https://cdn.test/v.mp4"},
		{name: "video relative url", contentType: model.ContentVideo, contentData: "/videos/v.mp4", wantErr: true},
		{name: "video wrong scheme", contentType: model.ContentVideo, contentData: "ftp://cdn.test/v.mp4", wantErr: true},
		{name: "document absolute url", contentType: model.ContentDocument, contentData: "http://cdn.test/d.pdf"},
		{name: "document garbage", contentType: model.ContentDocument, contentData: "not a url", wantErr: true},
		{name: "text within limit", contentType: model.ContentText, contentData: strings.Repeat("字", util.MaxTextContentLength)},
		{name: "text too long", contentType: model.ContentText, contentData: strings.Repeat("字", util.MaxTextContentLength+1), wantErr: true},
		{name: "quiz valid json", contentType: model.ContentQuiz, contentData: `{"questions":[]}`},
		{name: "quiz invalid json", contentType: model.ContentQuiz, contentData: `{"questions":`, wantErr: true},
		{name: "empty payload skipped", contentType: model.ContentVideo, contentData: ""},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.contents.Create(CreateContentRequest{
				CourseID:    course.ID,
				Title:       tt.name,
				ContentType: tt.contentType,
				ContentData: tt.contentData,
				OrderIndex:  i + 10,
			})
			if tt.wantErr {
				assert.True(t, util.IsValidation(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeleteContentBlockedByProgress(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	member := env.createUser(t, "member@test.local", "member")
	course := env.createCourse(t, staff.ID, "课程", true)
	content := env.createContent(t, course.ID, 0)

	reg, err := env.enrollment.Register(course.ID, member.ID)
	require.NoError(t, err)

	_, err = env.enrollment.CompleteContent(reg.RegistrationID, content.ID, member.ID)
	require.NoError(t, err)

	err = env.contents.Delete(content.ID)
	assert.True(t, util.IsConflict(err))
}

func TestReorderSkipsForeignEntries(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "本课程", false)
	other := env.createCourse(t, staff.ID, "其他课程", false)

	c1 := env.createContent(t, course.ID, 0)
	c2 := env.createContent(t, course.ID, 1)
	foreign := env.createContent(t, other.ID, 0)

	results, err := env.contents.Reorder(course.ID, map[uint]int{
		c1.ID:      5,
		c2.ID:      6,
		foreign.ID: 7,
		999:        8,
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := make(map[uint]ReorderResult, len(results))
	for _, r := range results {
		byID[r.ContentID] = r
	}

	assert.True(t, byID[c1.ID].Applied)
	assert.True(t, byID[c2.ID].Applied)
	assert.False(t, byID[foreign.ID].Applied)
	assert.NotEmpty(t, byID[foreign.ID].Reason)
	assert.False(t, byID[999].Applied)
	assert.NotEmpty(t, byID[999].Reason)

	got1, err := env.contentRepo.FindByID(c1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got1.OrderIndex)

	gotForeign, err := env.contentRepo.FindByID(foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotForeign.OrderIndex)
}

func TestListActiveOrdered(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "staff@test.local", "staff")
	course := env.createCourse(t, staff.ID, "课程", false)

	env.createContent(t, course.ID, 3)
	env.createContent(t, course.ID, 1)
	hidden := env.createContent(t, course.ID, 2)

	require.NoError(t, env.contents.Delete(hidden.ID))

	list, err := env.contents.ListActive(course.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].OrderIndex)
	assert.Equal(t, 3, list[1].OrderIndex)
}
