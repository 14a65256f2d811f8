// video repository encapsulates the data access logic (interactions with the DB) related to video interactions in Reelo.
// Videos themselves live in the content collaborator's store, this repository only
// owns the aggregate counters, likes and comments the real-time layer persists.

package video

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/pkg/db"
	"Reelo/pkg/log"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// IncrStat adjusts one aggregate counter of a content item, clamped at zero.
	IncrStat(ctx context.Context, logger log.Logger, topic entity.Topic, field string, delta int64) error
	// GetStats returns the aggregate counters of a content item.
	GetStats(ctx context.Context, logger log.Logger, topic entity.Topic) (entity.VideoStats, error)
	// ToggleLike flips the user's like on a video and returns the resulting state.
	ToggleLike(ctx context.Context, logger log.Logger, topic entity.Topic, username string) (bool, error)
	// AddComment appends a persisted comment to a video's comment list.
	AddComment(ctx context.Context, logger log.Logger, comment entity.Comment) error
	// GetComments returns every comment on a video in insertion order.
	GetComments(ctx context.Context, logger log.Logger, videoID int64) ([]entity.Comment, error)
}

// repository struct of video Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of video repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func statsKey(topic entity.Topic) string {
	return "stats:" + topic.Key()
}

func likesKey(topic entity.Topic) string {
	return "likes:" + topic.Key()
}

func commentsKey(videoID int64) string {
	return "comments:" + entity.Topic{VideoID: videoID}.Key()
}

func (r repository) IncrStat(ctx context.Context, logger log.Logger, topic entity.Topic, field string, delta int64) error {
	key := statsKey(topic)
	txferr := func(key string) error {
		txf := func(tx *redis.Tx) error {
			current, dberr := tx.HGet(ctx, key, field).Int64()
			if dberr != nil && dberr != redis.Nil {
				return dberr
			}
			updated := current + delta
			if updated < 0 {
				// Counters never go below zero
				updated = 0
			}
			// Operation is commited only if the watched keys remain unchanged
			_, dberr = tx.TxPipelined(ctx, func(client redis.Pipeliner) error {
				client.HSet(ctx, key, field, updated)
				return nil
			})
			return dberr
		}
		for i := 0; i < r.db.GetMaxRetries(); i++ {
			dberr := r.db.Client().Watch(ctx, txf, key)
			if dberr == nil {
				return nil
			} else if dberr == redis.TxFailedErr {
				// Optimistic lock lost. Retry.
				continue
			}
			// Return any other error.
			return dberr
		}
		return errors.New("increment reached maximum number of retries")
	}(key)
	if txferr != nil {
		logger.WithCtx(ctx).Error().Err(txferr).Msg("Error occured in IncrStat transaction")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetStats(ctx context.Context, logger log.Logger, topic entity.Topic) (entity.VideoStats, error) {
	var stats entity.VideoStats
	if dberr := r.db.Client().HGetAll(ctx, statsKey(topic)).Scan(&stats); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in video.GetStats")
		return entity.VideoStats{}, errors.InternalServerError("")
	}
	return stats, nil
}

func (r repository) ToggleLike(ctx context.Context, logger log.Logger, topic entity.Topic, username string) (bool, error) {
	key := likesKey(topic)
	liked, dberr := r.db.Client().SIsMember(ctx, key, username).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SIsMember in video.ToggleLike")
		return false, errors.InternalServerError("")
	}
	if liked {
		if dberr = r.db.Client().SRem(ctx, key, username).Err(); dberr != nil {
			logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SRem in video.ToggleLike")
			return false, errors.InternalServerError("")
		}
		return false, r.IncrStat(ctx, logger, topic, "likes_count", -1)
	}
	if dberr = r.db.Client().SAdd(ctx, key, username).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SAdd in video.ToggleLike")
		return false, errors.InternalServerError("")
	}
	return true, r.IncrStat(ctx, logger, topic, "likes_count", 1)
}

func (r repository) AddComment(ctx context.Context, logger log.Logger, comment entity.Comment) error {
	data, merr := json.Marshal(comment)
	if merr != nil {
		logger.WithCtx(ctx).Error().Err(merr).Msg("Error occured during marshalling comment in video.AddComment")
		return errors.InternalServerError("")
	}
	if dberr := r.db.Client().RPush(ctx, commentsKey(comment.VideoID), data).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of RPush in video.AddComment")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetComments(ctx context.Context, logger log.Logger, videoID int64) ([]entity.Comment, error) {
	rows, dberr := r.db.Client().LRange(ctx, commentsKey(videoID), 0, -1).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of LRange in video.GetComments")
		return nil, errors.InternalServerError("")
	}
	comments := []entity.Comment{}
	for _, row := range rows {
		var comment entity.Comment
		if jerr := json.Unmarshal([]byte(row), &comment); jerr != nil {
			// Skip unreadable rows instead of failing the whole read
			logger.WithCtx(ctx).Error().Err(jerr).Msg("Skipping unreadable comment row in video.GetComments")
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}
