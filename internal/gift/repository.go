// gift repository encapsulates the data access logic (interactions with the DB) related to gift records in Reelo.

package gift

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/pkg/db"
	"Reelo/pkg/log"
	"context"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// SetGift durably stores a gift record, must complete before any broadcast.
	SetGift(ctx context.Context, logger log.Logger, gift entity.Gift) error
	// GetGift fetches a stored gift record by id.
	GetGift(ctx context.Context, logger log.Logger, id string) (entity.Gift, error)
}

// repository struct of gift Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of gift repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func giftKey(id string) string {
	return "gift:" + id
}

func (r repository) SetGift(ctx context.Context, logger log.Logger, gift entity.Gift) error {
	_, dberr := r.db.Client().TxPipelined(ctx, func(client redis.Pipeliner) error {
		key := giftKey(gift.ID)
		client.HSet(ctx, key, "id", gift.ID)
		client.HSet(ctx, key, "sender_id", gift.SenderID)
		client.HSet(ctx, key, "receiver_id", gift.ReceiverID)
		client.HSet(ctx, key, "video_id", gift.VideoID)
		client.HSet(ctx, key, "live_stream_id", gift.LiveStreamID)
		client.HSet(ctx, key, "gift_type", gift.GiftType)
		client.HSet(ctx, key, "amount", gift.Amount)
		client.HSet(ctx, key, "rarity", string(gift.Rarity))
		client.HSet(ctx, key, "emoji", gift.Emoji)
		client.HSet(ctx, key, "name", gift.Name)
		client.HSet(ctx, key, "created", gift.Created)
		// Per-topic index of received gifts, newest last
		client.RPush(ctx, "gifts:"+gift.Topic().Key(), gift.ID)
		// Lifetime coin totals per sender and receiver
		client.IncrBy(ctx, "gifted:"+gift.SenderID, int64(gift.Amount))
		client.IncrBy(ctx, "received:"+gift.ReceiverID, int64(gift.Amount))
		return nil
	})
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of TxPipelined in gift.SetGift")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetGift(ctx context.Context, logger log.Logger, id string) (entity.Gift, error) {
	available, dberr := r.db.Client().Exists(ctx, giftKey(id)).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Exists() in gift.GetGift")
		return entity.Gift{}, errors.InternalServerError("")
	} else if available == 0 {
		return entity.Gift{}, errors.NotFound("Gift not found")
	}
	var gift entity.Gift
	if dberr = r.db.Client().HGetAll(ctx, giftKey(id)).Scan(&gift); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in gift.GetGift")
		return entity.Gift{}, errors.InternalServerError("")
	}
	return gift, nil
}
