// Structure of the real-time Event Envelope relayed between Reelo clients.

package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType discriminates the payload carried inside an Envelope.
type EventType string

const (
	EventGift        EventType = "gift"
	EventLike        EventType = "like"
	EventComment     EventType = "comment"
	EventView        EventType = "view"
	EventSyncReact   EventType = "sync_reaction"
	EventViewerCount EventType = "viewer_count"
)

// ErrUnknownEventType marks an envelope whose type tag isn't recognized.
// Consumers treat these as a drop, never as a failure.
var ErrUnknownEventType = errors.New("unknown event type")

// Envelope is the unit of real-time communication in Reelo.
// Envelopes are transient, the hub never stores them.
type Envelope struct {
	Type         EventType       `json:"type"`
	VideoID      int64           `json:"videoId,omitempty"`
	LiveStreamID int64           `json:"liveStreamId,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

// Topic identifies the content item an envelope concerns, video or live stream.
type Topic struct {
	VideoID      int64
	LiveStreamID int64
}

// Matches reports whether an envelope concerns this topic.
func (t Topic) Matches(e Envelope) bool {
	if t.VideoID != 0 {
		return e.VideoID == t.VideoID
	}
	if t.LiveStreamID != 0 {
		return e.LiveStreamID == t.LiveStreamID
	}
	return false
}

// Key returns the string form of the topic, used as a redis key suffix.
func (t Topic) Key() string {
	if t.LiveStreamID != 0 {
		return fmt.Sprintf("stream:%d", t.LiveStreamID)
	}
	return fmt.Sprintf("video:%d", t.VideoID)
}

// Topic extracts the topic of an envelope.
func (e Envelope) Topic() Topic {
	return Topic{VideoID: e.VideoID, LiveStreamID: e.LiveStreamID}
}

// NewEnvelope builds an envelope of the given type for a topic, marshalling the payload into Data.
func NewEnvelope(etype EventType, topic Topic, payload interface{}) (Envelope, error) {
	env := Envelope{
		Type:         etype,
		VideoID:      topic.VideoID,
		LiveStreamID: topic.LiveStreamID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		data, merr := json.Marshal(payload)
		if merr != nil {
			return Envelope{}, merr
		}
		env.Data = data
	}
	return env, nil
}

// DecodeEnvelope parses raw bytes received over the wire into an Envelope.
// Malformed JSON or an unrecognized type tag returns an error, the caller
// drops the message with a log per fire-and-forget semantics.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if jerr := json.Unmarshal(raw, &env); jerr != nil {
		return Envelope{}, jerr
	}
	switch env.Type {
	case EventGift, EventLike, EventComment, EventView, EventSyncReact, EventViewerCount:
		return env, nil
	}
	return Envelope{}, ErrUnknownEventType
}

// GiftPayload is the Data shape of a gift envelope.
type GiftPayload struct {
	Gift   GiftInfo   `json:"gift"`
	Sender SenderInfo `json:"sender"`
}

// GiftInfo describes the gift being animated on receiving clients.
type GiftInfo struct {
	ID     string `json:"id"`
	Emoji  string `json:"emoji"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Rarity Rarity `json:"rarity"`
}

// SenderInfo carries the sender's display info inside a gift envelope.
type SenderInfo struct {
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// SyncReactionPayload is the Data shape of a sync_reaction envelope.
// Participants is aggregated by the server before broadcast, clients treat it as opaque.
type SyncReactionPayload struct {
	Type         string `json:"type"`
	Emoji        string `json:"emoji"`
	Color        string `json:"color"`
	Participants int    `json:"participants"`
}

// ViewerCountPayload is the Data shape of a viewer_count envelope.
type ViewerCountPayload struct {
	Count int64 `json:"count"`
}
