package quizgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validFragmentJSON = `{
  "name": "",
  "description": "",
  "questions": [
    {
      "questionText": "Go的并发原语是什么?",
      "answers": [
        {"answerText": "goroutine", "isCorrect": true},
        {"answerText": "thread", "isCorrect": false}
      ]
    }
  ]
}`

func TestStripCodeFence(t *testing.T) {
	t.Run("NoFence", func(t *testing.T) {
		assert.Equal(t, `{"questions":[]}`, StripCodeFence(`{"questions":[]}`))
	})

	t.Run("PlainFence", func(t *testing.T) {
		input := "```\n{\"questions\":[]}\n```"
		assert.Equal(t, `{"questions":[]}`, StripCodeFence(input))
	})

	t.Run("FenceWithLanguageTag", func(t *testing.T) {
		input := "```json\n{\"questions\":[]}\n```"
		assert.Equal(t, `{"questions":[]}`, StripCodeFence(input))
	})

	t.Run("SurroundingWhitespace", func(t *testing.T) {
		input := "\n\n```json\n{\"questions\":[]}\n```\n\n"
		assert.Equal(t, `{"questions":[]}`, StripCodeFence(input))
	})
}

func TestParseFragment(t *testing.T) {
	t.Run("ValidJSON", func(t *testing.T) {
		fragment, err := ParseFragment(validFragmentJSON)
		require.NoError(t, err)
		require.Len(t, fragment.Questions, 1)

		question := fragment.Questions[0]
		assert.Equal(t, "Go的并发原语是什么?", question.Text)
		require.Len(t, question.Answers, 2)
		assert.Equal(t, "goroutine", question.Answers[0].Text)
		assert.True(t, question.Answers[0].IsCorrect)
		assert.False(t, question.Answers[1].IsCorrect)
	})

	t.Run("FencedJSON", func(t *testing.T) {
		fragment, err := ParseFragment("```json\n" + validFragmentJSON + "\n```")
		require.NoError(t, err)
		assert.Len(t, fragment.Questions, 1)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := ParseFragment("I could not generate a quiz for this text.")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFragmentParse))
	})

	t.Run("EmptyReply", func(t *testing.T) {
		_, err := ParseFragment("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFragmentParse))
	})

	t.Run("NoQuestionsField", func(t *testing.T) {
		fragment, err := ParseFragment(`{"name":"","description":""}`)
		require.NoError(t, err)
		assert.Nil(t, fragment.Questions)
	})
}
