// Exposes all of the REST APIs related to video interactions in Reelo.

package video

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/pkg/log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package video onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	videoGroup := router.Group("/api/videos")
	{
		videoGroup.POST("/:videoId/like", AuthWithAcc, toggleLike(service, logger))
		videoGroup.GET("/:videoId/comments", getComments(service, logger))
		videoGroup.POST("/:videoId/comments", AuthWithAcc, createComment(service, logger))
		videoGroup.POST("/:videoId/view", addView(service, logger))
		videoGroup.GET("/:videoId/stats", getStats(service, logger))
	}
}

// Helper to parse the videoId path param shared by every handler below.
func videoIDParam(gctx *gin.Context) (int64, bool) {
	videoID, prserr := strconv.ParseInt(gctx.Param("videoId"), 10, 64)
	if prserr != nil || videoID <= 0 {
		gctx.JSON(http.StatusBadRequest, errors.BadRequest("Invalid video id"))
		return 0, false
	}
	return videoID, true
}

// toggleLike returns a handler which flips the caller's like on a video.
func toggleLike(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		videoID, ok := videoIDParam(gctx)
		if !ok {
			return
		}
		username, ok := gctx.Value("Username").(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in toggle_like")
			gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		liked, err := service.togglelike(gctx, entity.Topic{VideoID: videoID}, username)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				// Type assertion error
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"liked": liked})
	}
}

// createComment returns a handler which persists a comment and broadcasts it on success.
func createComment(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		videoID, ok := videoIDParam(gctx)
		if !ok {
			return
		}
		var comment entity.Comment

		// Serialize received data into Comment struct
		if binderr := gctx.BindJSON(&comment); binderr != nil {
			// Error occured during serialization
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with Comment struct.")
			gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		comment.VideoID = videoID
		comment.UserID, ok = gctx.Value("Username").(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in create_comment")
			gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}

		err := service.addcomment(gctx, &comment)
		if err != nil {
			// Error occured, might be validation or server error
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				// Type assertion error
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, comment)
	}
}

// getComments returns a handler which lists the comments of a video.
func getComments(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		videoID, ok := videoIDParam(gctx)
		if !ok {
			return
		}
		comments, err := service.getcomments(gctx, videoID)
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"comments": comments})
	}
}

// addView returns a handler which bumps the view counter of a video.
func addView(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		videoID, ok := videoIDParam(gctx)
		if !ok {
			return
		}
		err := service.addview(gctx, entity.Topic{VideoID: videoID})
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// getStats returns a handler exposing the aggregate counters of a video.
// Clients re-read this path after a like or comment invalidation signal.
func getStats(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		videoID, ok := videoIDParam(gctx)
		if !ok {
			return
		}
		stats, err := service.getstats(gctx, entity.Topic{VideoID: videoID})
		if err != nil {
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		gctx.JSON(http.StatusOK, stats)
	}
}
