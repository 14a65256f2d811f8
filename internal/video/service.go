// Service layer of the internal package video.

package video

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/pkg/log"
	"context"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/rs/xid"
)

// Broadcaster fans an envelope out to every connected hub client.
// Satisfied by the event hub, kept as an interface for service tests.
type Broadcaster interface {
	Broadcast(env entity.Envelope) error
}

// Service layer of internal package video which encapsulates like, comment and view logic of Reelo.
// Every mutation follows persist-then-broadcast: the envelope goes out only
// after the record is durably stored, never on failure.
type Service interface {
	// Toggles the user's like on a content item.
	togglelike(ctx context.Context, topic entity.Topic, username string) (bool, error)
	// Persists a comment on a video.
	addcomment(ctx context.Context, comment *entity.Comment) error
	// Lists the comments of a video.
	getcomments(ctx context.Context, videoID int64) ([]entity.Comment, error)
	// Increments the view counter of a content item.
	addview(ctx context.Context, topic entity.Topic) error
	// Returns the aggregate counters of a content item.
	getstats(ctx context.Context, topic entity.Topic) (entity.VideoStats, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	videoRepo Repository
	relay     Broadcaster
	logger    log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(videoRepo Repository, relay Broadcaster, logger log.Logger) Service {
	return service{videoRepo, relay, logger}
}

func (s service) togglelike(ctx context.Context, topic entity.Topic, username string) (bool, error) {
	liked, dberr := s.videoRepo.ToggleLike(ctx, s.logger, topic, username)
	if dberr != nil {
		// Error occured in ToggleLike(), no broadcast is attempted
		return false, dberr
	}
	// Invalidation signal for remote clients, counts are re-read from the REST paths
	s.broadcast(ctx, entity.EventLike, topic, nil)
	return liked, nil
}

func (s service) addcomment(ctx context.Context, comment *entity.Comment) error {
	valerr := s.validateCommentData(ctx, comment)
	if valerr != nil {
		// Error occured during validation
		return valerr
	}
	comment.ID = xid.New().String()
	comment.Created = time.Now().Unix()

	dberr := s.videoRepo.AddComment(ctx, s.logger, *comment)
	if dberr != nil {
		// Error occured in AddComment(), no broadcast is attempted
		return dberr
	}
	dberr = s.videoRepo.IncrStat(ctx, s.logger, entity.Topic{VideoID: comment.VideoID}, "comments_count", 1)
	if dberr != nil {
		return dberr
	}
	// Broadcast the persisted form of the comment
	s.broadcast(ctx, entity.EventComment, entity.Topic{VideoID: comment.VideoID}, comment)
	return nil
}

func (s service) getcomments(ctx context.Context, videoID int64) ([]entity.Comment, error) {
	return s.videoRepo.GetComments(ctx, s.logger, videoID)
}

func (s service) addview(ctx context.Context, topic entity.Topic) error {
	dberr := s.videoRepo.IncrStat(ctx, s.logger, topic, "views", 1)
	if dberr != nil {
		return dberr
	}
	// view envelopes carry no payload and may be ignored by clients
	s.broadcast(ctx, entity.EventView, topic, nil)
	return nil
}

func (s service) getstats(ctx context.Context, topic entity.Topic) (entity.VideoStats, error) {
	return s.videoRepo.GetStats(ctx, s.logger, topic)
}

// broadcast sends a post-persistence envelope through the hub.
// Broadcast-layer errors are never surfaced to the initiating user,
// the relational store remains the source of truth for read paths.
func (s service) broadcast(ctx context.Context, etype entity.EventType, topic entity.Topic, payload interface{}) {
	env, enverr := entity.NewEnvelope(etype, topic, payload)
	if enverr != nil {
		s.logger.WithCtx(ctx).Error().Err(enverr).Msgf("Couldn't construct %s envelope", etype)
		return
	}
	if berr := s.relay.Broadcast(env); berr != nil {
		s.logger.WithCtx(ctx).Error().Err(berr).Msgf("Couldn't broadcast %s envelope", etype)
	}
}

// Helper to validate the comment data against validation-tags mentioned in its entity.
func (s service) validateCommentData(ctx context.Context, comment *entity.Comment) error {
	_, valerr := govalidator.ValidateStruct(comment)
	if valerr != nil {
		valerr := valerr.(govalidator.Errors).Errors()
		return errors.GenerateValidationErrorResponse(valerr)
	}
	return nil
}
