package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/doc-quiz-system/api/handler"
	"github.com/fyerfyer/doc-quiz-system/api/middleware"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(quizHandler *handler.QuizHandler) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())

	api := router.Group("/api")
	{
		// 测验API
		quizGroup := api.Group("/quizzes")
		{
			// 上传文档并生成测验 - POST /api/quizzes
			quizGroup.POST("", quizHandler.CreateQuiz)

			// 获取测验详情 - GET /api/quizzes/:id
			quizGroup.GET("/:id", quizHandler.GetQuiz)

			// 获取测验列表 - GET /api/quizzes
			quizGroup.GET("", quizHandler.ListQuizzes)

			// 删除测验 - DELETE /api/quizzes/:id
			quizGroup.DELETE("/:id", quizHandler.DeleteQuiz)
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}
