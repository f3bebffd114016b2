// Exposes all of the REST APIs related to avatar upload in Quorum.

package storage

import (
	"Quorum/pkg/log"

	"github.com/gin-gonic/gin"
	tusd "github.com/tus/tusd/pkg/handler"
)

func APIHandlers(router *gin.Engine, storage_handler *tusd.UnroutedHandler, authWithAcc, avatarStorage gin.HandlerFunc, logger log.Logger) {
	router.POST("/api/upload_avatar", authWithAcc, avatarStorage, gin.WrapF(storage_handler.PostFile))
	router.GET("/api/upload_avatar/:id", gin.WrapF(storage_handler.GetFile))
	router.HEAD("/api/upload_avatar/:id", authWithAcc, avatarStorage, gin.WrapF(storage_handler.HeadFile))
	router.PATCH("/api/upload_avatar/:id", authWithAcc, avatarStorage, gin.WrapF(storage_handler.PatchFile))
	router.DELETE("/api/upload_avatar/:id", authWithAcc, avatarStorage, gin.WrapF(storage_handler.DelFile))
}
