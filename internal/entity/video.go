// Structure of Video interaction Models in Reelo.
// Videos themselves are owned by the content collaborator, this module only
// keeps the aggregate counters and interaction records the real-time layer
// persists before broadcasting.

package entity

// VideoStats keeps the aggregate counters of a content item.
type VideoStats struct {
	LikesCount    int64 `json:"likes_count" redis:"likes_count"`
	CommentsCount int64 `json:"comments_count" redis:"comments_count"`
	GiftsCount    int64 `json:"gifts_count" redis:"gifts_count"`
	Views         int64 `json:"views" redis:"views"`
}

// Comment represents a persisted comment on a video.
type Comment struct {
	ID      string `json:"id"`
	VideoID int64  `json:"video_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content" valid:"required~content:Comment content is required,stringlength(1|500)~content:Comment must be 1 to 500 characters"`
	Created int64  `json:"created"`
}
