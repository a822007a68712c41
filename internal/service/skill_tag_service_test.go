package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillTagVocabulary(t *testing.T) {
	env := newTestEnv(t)

	tags, err := env.tags.ListTags()
	require.NoError(t, err)
	require.Len(t, tags, 8)

	// 按 order 字段升序返回
	for i := 1; i < len(tags); i++ {
		assert.LessOrEqual(t, tags[i-1].Order, tags[i].Order)
	}
	assert.Equal(t, "awareness", tags[0].Code)
}

func TestSkillTagValidate(t *testing.T) {
	env := newTestEnv(t)

	invalid, err := env.tags.Validate([]string{"awareness", "refusal"})
	require.NoError(t, err)
	assert.Empty(t, invalid)

	invalid, err = env.tags.Validate([]string{"awareness", "kung_fu", "astrology"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kung_fu", "astrology"}, invalid)

	invalid, err = env.tags.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, invalid)
}

func TestSkillTagDisabledExcluded(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Table("skill_tags").
		Where("code = ?", "awareness").Update("enabled", false).Error)

	tags, err := env.tags.ListTags()
	require.NoError(t, err)
	assert.Len(t, tags, 7)

	all, err := env.tags.ListAllTags()
	require.NoError(t, err)
	assert.Len(t, all, 8)

	invalid, err := env.tags.Validate([]string{"awareness"})
	require.NoError(t, err)
	assert.Equal(t, []string{"awareness"}, invalid)
}
