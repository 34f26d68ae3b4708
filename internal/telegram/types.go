package telegram

import (
	"time"

	"github.com/blockedby/infocompass/internal/models"
)

// Message represents a parsed telegram message
type Message struct {
	ID        int              // message id (unique within channel)
	ChannelID int64            // channel id
	Text      string           // message text content, empty for service messages
	Date      time.Time        // message creation timestamp (UTC)
	Views     int              // view count
	Forwards  int              // forward count
	Replies   int              // reply/comment count
	Media     models.MediaKind // attached media kind
}

// Channel represents a telegram channel info
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // channel username (without @)
	Title      string // channel title
}
