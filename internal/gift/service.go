// Service layer of the internal package gift.

package gift

import (
	"Reelo/internal/entity"
	"Reelo/internal/errors"
	"Reelo/internal/video"
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

// Service layer of internal package gift which encapsulates the gift submission logic of Reelo.
// A gift envelope is broadcast only after the gift record has been durably
// persisted. The inverse (durable but unbroadcast) is tolerable, the REST
// read paths remain the source of truth.
type Service interface {
	// Persists a gift and broadcasts it to every connected client on success.
	sendgift(ctx context.Context, gift *entity.Gift) error
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	giftRepo  Repository
	videoRepo video.Repository
	relay     Broadcaster
	logger    log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(giftRepo Repository, videoRepo video.Repository, relay Broadcaster, logger log.Logger) Service {
	return service{giftRepo, videoRepo, relay, logger}
}

func (s service) sendgift(ctx context.Context, gift *entity.Gift) error {
	// Absent presentation fields fall back to defaults, never a failure
	gift.Rarity = entity.NormalizeRarity(gift.Rarity)
	if gift.Emoji == "" {
		gift.Emoji = "🎁"
	}
	if gift.Name == "" {
		gift.Name = "Gift"
	}

	valerr := s.validateGiftData(ctx, gift)
	if valerr != nil {
		// Error occured during validation
		return valerr
	}

	gift.ID = xid.New().String()
	gift.Created = time.Now().Unix()

	// Persist the gift record and bump the topic's aggregate counter first
	dberr := s.giftRepo.SetGift(ctx, s.logger, *gift)
	if dberr != nil {
		// Persistence failure is surfaced to the sender, no broadcast is attempted
		return dberr
	}
	dberr = s.videoRepo.IncrStat(ctx, s.logger, gift.Topic(), "gifts_count", 1)
	if dberr != nil {
		return dberr
	}

	// Only now construct and broadcast the gift envelope
	payload := entity.GiftPayload{
		Gift: entity.GiftInfo{
			ID:     gift.GiftType,
			Emoji:  gift.Emoji,
			Name:   gift.Name,
			Amount: gift.Amount,
			Rarity: gift.Rarity,
		},
		Sender: entity.SenderInfo{
			Username: gift.SenderID,
		},
	}
	env, enverr := entity.NewEnvelope(entity.EventGift, gift.Topic(), payload)
	if enverr != nil {
		s.logger.WithCtx(ctx).Error().Err(enverr).Msg("Couldn't construct gift envelope")
		return nil
	}
	if berr := s.relay.Broadcast(env); berr != nil {
		// Broadcast-layer errors are never surfaced, the record is already durable
		s.logger.WithCtx(ctx).Error().Err(berr).Msg("Couldn't broadcast gift envelope")
	}
	return nil
}

// Helper to validate the gift data against validation-tags mentioned in its entity.
func (s service) validateGiftData(ctx context.Context, gift *entity.Gift) error {
	_, valerr := govalidator.ValidateStruct(gift)
	if valerr != nil {
		valerr := valerr.(govalidator.Errors).Errors()
		return errors.GenerateValidationErrorResponse(valerr)
	}
	if gift.VideoID == 0 && gift.LiveStreamID == 0 {
		valerr := errors.New("topic:Gift must target a video or a live stream")
		return errors.GenerateValidationErrorResponse([]error{valerr})
	}
	return nil
}
