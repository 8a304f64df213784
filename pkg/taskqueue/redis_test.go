package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestQueue(t *testing.T) (Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	queue, err := NewRedisQueue(&Config{
		RedisAddr:  mr.Addr(),
		RetryLimit: 2,
	}, nil)
	require.NoError(t, err, "Failed to create redis queue")
	t.Cleanup(func() { _ = queue.Close() })

	return queue, mr
}

func TestRedisQueue_Enqueue(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	payload := &QuizGeneratePayload{
		QuizID:   "quiz-1",
		FileID:   "file-1",
		FileName: "doc.pdf",
	}

	taskID, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-1", payload)
	require.NoError(t, err, "Enqueue should succeed")
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, TaskQuizGenerate, task.Type)
	assert.Equal(t, "quiz-1", task.QuizID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, 2, task.MaxRetries)

	var decoded QuizGeneratePayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, "file-1", decoded.FileID)
	assert.Equal(t, "doc.pdf", decoded.FileName)
}

func TestRedisQueue_GetTaskNotFound(t *testing.T) {
	queue, _ := setupTestQueue(t)

	_, err := queue.GetTask(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRedisQueue_GetTasksByQuiz(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-1", nil)
		require.NoError(t, err)
	}
	_, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-2", nil)
	require.NoError(t, err)

	tasks, err := queue.GetTasksByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	tasks, err = queue.GetTasksByQuiz(ctx, "quiz-2")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	tasks, err = queue.GetTasksByQuiz(ctx, "quiz-none")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-1", nil)
	require.NoError(t, err)

	t.Run("Processing", func(t *testing.T) {
		require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, ""))

		task, err := queue.GetTask(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, task.Status)
		assert.NotNil(t, task.StartedAt)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("Failed", func(t *testing.T) {
		require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusFailed, "generation error"))

		task, err := queue.GetTask(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, task.Status)
		assert.Equal(t, "generation error", task.Error)
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := queue.UpdateTaskStatus(ctx, "nonexistent", StatusCompleted, "")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestRedisQueue_DeleteTask(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-1", nil)
	require.NoError(t, err)

	require.NoError(t, queue.DeleteTask(ctx, taskID))

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := queue.GetTasksByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRedisQueue_TaskExpiry(t *testing.T) {
	queue, mr := setupTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskQuizGenerate, "quiz-1", nil)
	require.NoError(t, err)

	// 任务数据超过过期时间后不可见
	mr.FastForward(defaultTaskExpiry + time.Hour)

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMarshalPayload(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		data, err := MarshalPayload(nil)
		require.NoError(t, err)
		assert.JSONEq(t, "{}", string(data))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		data, err := MarshalPayload(&QuizGeneratePayload{QuizID: "q1"})
		require.NoError(t, err)

		var decoded QuizGeneratePayload
		require.NoError(t, UnmarshalPayload(data, &decoded))
		assert.Equal(t, "q1", decoded.QuizID)
	})

	t.Run("EmptyData", func(t *testing.T) {
		var decoded QuizGeneratePayload
		require.NoError(t, UnmarshalPayload(nil, &decoded))
		assert.Empty(t, decoded.QuizID)
	})
}
