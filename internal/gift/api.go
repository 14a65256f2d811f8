// Exposes all of the REST APIs related to gift submission in Reelo.

package gift

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/pkg/log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package gift onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	router.POST("/api/videos/:videoId/gift", AuthWithAcc, sendGift(service, logger, false))
	router.POST("/api/streams/:streamId/gift", AuthWithAcc, sendGift(service, logger, true))
}

// sendGift returns a handler which persists a gift and broadcasts it on success.
// This is the synchronous HTTP path, distinct from the hub relay path.
func sendGift(service Service, logger log.Logger, stream bool) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		param := "videoId"
		if stream {
			param = "streamId"
		}
		topicID, prserr := strconv.ParseInt(gctx.Param(param), 10, 64)
		if prserr != nil || topicID <= 0 {
			gctx.JSON(http.StatusBadRequest, errors.BadRequest("Invalid content id"))
			return
		}

		var gift entity.Gift

		// Serialize received data into Gift struct
		if binderr := gctx.BindJSON(&gift); binderr != nil {
			// Error occured during serialization
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with Gift struct.")
			gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		if stream {
			gift.LiveStreamID = topicID
			gift.VideoID = 0
		} else {
			gift.VideoID = topicID
			gift.LiveStreamID = 0
		}

		// Fetch username from context which will be used as the gift sender
		var ok bool = true
		gift.SenderID, ok = gctx.Value("Username").(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in send_gift")
			gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}

		// Apply the service logic for gift submission in Reelo
		err := service.sendgift(gctx, &gift)
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
		gctx.JSON(http.StatusOK, gift)
	}
}
