// presence repository encapsulates the data access logic (interactions with the DB) related to viewer presence in Reelo.
// Helpful to keep counts correct if the server has to reload or a new instance has to be created.

package presence

import (
	"Reelo/internal/errors"
	"Reelo/pkg/db"
	"Reelo/pkg/log"
	"context"
)

type Repository interface {
	// Join adds a viewing client to a topic's viewer set.
	Join(ctx context.Context, logger log.Logger, topicKey, clientID string) error
	// Leave removes a disconnected client from a topic's viewer set.
	Leave(ctx context.Context, logger log.Logger, topicKey, clientID string) error
	// Count returns the number of clients currently viewing a topic.
	Count(ctx context.Context, logger log.Logger, topicKey string) (int64, error)
}

// repository struct of presence Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of presence repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func viewersKey(topicKey string) string {
	return "viewers:" + topicKey
}

// Returns nil if client with clientID got successfully added into the topic's viewer set.
func (r repository) Join(ctx context.Context, logger log.Logger, topicKey, clientID string) error {
	dberr := r.db.Client().SAdd(ctx, viewersKey(topicKey), clientID).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SAdd in presence.Join")
		return errors.InternalServerError("")
	}
	return dberr
}

// Returns nil if client with clientID got successfully removed from the topic's viewer set.
func (r repository) Leave(ctx context.Context, logger log.Logger, topicKey, clientID string) error {
	dberr := r.db.Client().SRem(ctx, viewersKey(topicKey), clientID).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SRem in presence.Leave")
		return errors.InternalServerError("")
	}
	return dberr
}

func (r repository) Count(ctx context.Context, logger log.Logger, topicKey string) (int64, error) {
	count, dberr := r.db.Client().SCard(ctx, viewersKey(topicKey)).Result()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SCard in presence.Count")
		return 0, errors.InternalServerError("")
	}
	return count, nil
}
