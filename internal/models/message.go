package models

import "time"

// MediaKind classifies the media attached to a channel message.
type MediaKind string

// MediaKind values.
const (
	MediaNone     MediaKind = "none"
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaOther    MediaKind = "other"
)

// ChannelMessage is a single text-bearing channel post as persisted to disk.
type ChannelMessage struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Text         string    `json:"text"`
	ViewCount    int       `json:"view_count"`
	ForwardCount int       `json:"forward_count"`
	ReplyCount   int       `json:"reply_count"`
	HasMedia     bool      `json:"has_media"`
	MediaKind    MediaKind `json:"media_kind"`
}
