// Exposes all of the REST APIs related to User Model in Quorum.

package user

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package user onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, validateAdmin gin.HandlerFunc, logger log.Logger) {
	usergroup := router.Group("/api/user")
	{
		usergroup.GET("/get", AuthWithAcc, getUser(service, logger))
		usergroup.PATCH("/update_profile", AuthWithAcc, updateProfile(service, logger))
	}
	admingroup := router.Group("/api/admin/users", AuthWithAcc, validateAdmin)
	{
		admingroup.GET("", listUsers(service, logger))
		admingroup.PATCH("/:username", moderateUser(service, logger))
	}
}

// getUser returns a handler which takes care of getting user details in Quorum.
// requires auth to access.
func getUser(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		// Apply the service logic for Get User in Quorum
		user, err := service.getuser(gctx)
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
			"user": user,
		})
	}
}

// updateProfile returns a handler which lets an user change their own profile fields.
// requires auth to access.
func updateProfile(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var update entity.UserProfileUpdate

		// Serialize received data into UserProfileUpdate struct
		if binderr := gctx.ShouldBindJSON(&update); binderr != nil {
			// Error occured during serialization
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with UserProfileUpdate struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		user, err := service.updateprofile(gctx, update)
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
			"user": user,
		})
	}
}

// listUsers returns a handler which serves every registered user.
// Reachable through the admin group only.
func listUsers(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		users, err := service.listusers(gctx)
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
			"users": users,
		})
	}
}

// moderateUser returns a handler which applies role and verification changes on an user.
// Reachable through the admin group only.
func moderateUser(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var moderation entity.UserModeration
		if binderr := gctx.ShouldBindJSON(&moderation); binderr != nil {
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with UserModeration struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		user, err := service.moderate(gctx, gctx.Param("username"), moderation)
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
			"user": user,
		})
	}
}
