package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReply struct {
	Reply string `json:"reply"`
	IDs   []int  `json:"suggested_course_ids"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	result, err := ExtractJSON[testReply](`{"reply":"hi","suggested_course_ids":[1,2]}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Reply)
	assert.Equal(t, []int{1, 2}, result.IDs)
}

func TestExtractJSON_FencedJSON(t *testing.T) {
	raw := "```json\n{\"reply\":\"fenced\",\"suggested_course_ids\":[]}\n```"
	result, err := ExtractJSON[testReply](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "fenced", result.Reply)
}

func TestExtractJSON_SurroundingText(t *testing.T) {
	raw := "Sure! {\"reply\":\"a {brace} inside\",\"suggested_course_ids\":[3]} Hope that helps."
	result, err := ExtractJSON[testReply](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "a {brace} inside", result.Reply)
	assert.Equal(t, []int{3}, result.IDs)
}

func TestExtractJSON_RepairsTrailingComma(t *testing.T) {
	raw := `{"reply":"fixed","suggested_course_ids":[4,5,],}`
	result, err := ExtractJSON[testReply](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", result.Reply)
	assert.Equal(t, []int{4, 5}, result.IDs)
}

func TestExtractJSON_RepairsUnterminatedObject(t *testing.T) {
	raw := `{"reply":"cut off","suggested_course_ids":[7]`
	result, err := ExtractJSON[testReply](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "cut off", result.Reply)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[testReply]("I don't know what you mean.", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_Empty(t *testing.T) {
	_, err := ExtractJSON[testReply]("  \n", nil)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestExtractJSON_WrongShape(t *testing.T) {
	_, err := ExtractJSON[testReply](`{"reply": 42}`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorFailure(t *testing.T) {
	validator := func(r testReply) error {
		if r.Reply == "" {
			return errors.New("reply is required")
		}
		return nil
	}
	_, err := ExtractJSON[testReply](`{"reply":"","suggested_course_ids":[]}`, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "reply is required")
}

func TestLooksLikeJSONObject(t *testing.T) {
	assert.True(t, LooksLikeJSONObject(`  {"reply":"x"}`))
	assert.True(t, LooksLikeJSONObject("```json\n{}\n```"))
	assert.False(t, LooksLikeJSONObject("Hello there"))
}
