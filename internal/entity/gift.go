// Structure of Gift Model in Reelo.

package entity

// Rarity tier of a gift, controls visual escalation on receiving clients.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is one of the four known tiers.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// NormalizeRarity falls back to common on a missing or malformed tier.
// Receiving pipelines must never crash on absent rarity data.
func NormalizeRarity(r Rarity) Rarity {
	if !r.Valid() {
		return RarityCommon
	}
	return r
}

// Gift represents a persisted virtual-gift record.
// A gift envelope is only ever broadcast after this record has been durably stored.
type Gift struct {
	ID           string `json:"id" redis:"id"`
	SenderID     string `json:"sender_id" redis:"sender_id"`
	ReceiverID   string `json:"receiver_id" redis:"receiver_id" valid:"required~receiver_id:Receiver is required"`
	VideoID      int64  `json:"video_id,omitempty" redis:"video_id"`
	LiveStreamID int64  `json:"live_stream_id,omitempty" redis:"live_stream_id"`
	GiftType     string `json:"gift_type" redis:"gift_type" valid:"required~gift_type:Gift type is required,printableascii~gift_type:Invalid gift type"`
	Amount       int    `json:"amount" redis:"amount" valid:"required~amount:Amount in coins is required,range(1|1000000)~amount:Amount must be positive"`
	Rarity       Rarity `json:"rarity" redis:"rarity" valid:"rarity~rarity:Unknown rarity tier"`
	Emoji        string `json:"emoji" redis:"emoji" valid:"-"`
	Name         string `json:"name" redis:"name" valid:"-"`
	Created      int64  `json:"created" redis:"created" valid:"-"`
}

// Topic returns the content item this gift was sent on.
func (g Gift) Topic() Topic {
	return Topic{VideoID: g.VideoID, LiveStreamID: g.LiveStreamID}
}
