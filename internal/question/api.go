// Exposes all of the REST APIs related to questions in Quorum.

package question

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package question onto the gin server.
func APIHandlers(router *gin.Engine, service Service, authWithAcc gin.HandlerFunc, validateAdmin gin.HandlerFunc, logger log.Logger) {
	questionGroup := router.Group("/api/questions")
	{
		questionGroup.GET("", listQuestions(service, logger))
		questionGroup.POST("", submitQuestion(service, logger))
		questionGroup.POST("/:questionId/like", authWithAcc, reactToQuestion(service, logger))
	}
	adminGroup := router.Group("/api/admin", authWithAcc, validateAdmin)
	{
		adminGroup.GET("/stats", adminStats(service, logger))
		adminGroup.DELETE("/questions/:questionId", deleteQuestion(service, logger))
		adminGroup.PATCH("/questions/:questionId/verify", setQuestionVerified(service, true, logger))
		adminGroup.PATCH("/questions/:questionId/unverify", setQuestionVerified(service, false, logger))
	}
}

// submitQuestion returns a handler which takes care of question submission in Quorum.
// Anonymous submissions are allowed, no auth needed here.
func submitQuestion(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var question entity.Question

		// Serialize received data into Question struct
		if binderr := gctx.ShouldBindJSON(&question); binderr != nil {
			// Error occured during serialization
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with Question struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		created, err := service.create(gctx, question)
		if err != nil {
			// Error occured, might be validation or server error
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				// Type assertion error
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{
			"success":  true,
			"question": created,
		})
	}
}

// listQuestions returns a handler which serves filtered and paginated active questions.
func listQuestions(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var query entity.QuestionSearch
		if binderr := gctx.ShouldBindQuery(&query); binderr != nil {
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with QuestionSearch struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		questions, pagination, err := service.list(gctx, query)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{
			"questions":  questions,
			"pagination": pagination,
		})
	}
}

// reactToQuestion returns a handler which applies an user's like / dislike / remove
// reaction on a question. Requires auth to access.
func reactToQuestion(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		username, ok := gctx.Value("Username").(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in reactToQuestion")
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}

		var reaction entity.Reaction
		if binderr := gctx.ShouldBindJSON(&reaction); binderr != nil {
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with Reaction struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		question, err := service.react(gctx, gctx.Param("questionId"), username, reaction.Action)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{
			"success":  true,
			"question": question,
		})
	}
}

// deleteQuestion returns a handler which soft-deletes a question.
// Reachable through the admin group only.
func deleteQuestion(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		adminUsername, ok := gctx.Value("Username").(string)
		if !ok {
			logger.WithCtx(gctx).Error().Msg("Type assertion error in deleteQuestion")
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}

		err := service.remove(gctx, gctx.Param("questionId"), adminUsername)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// setQuestionVerified returns a handler which flips a question's verification flag.
// Reachable through the admin group only.
func setQuestionVerified(service Service, verified bool, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		err := service.setverified(gctx, gctx.Param("questionId"), verified)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// adminStats returns a handler which serves aggregated platform statistics.
func adminStats(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		stats, err := service.stats(gctx)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}
