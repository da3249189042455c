package models

// Playlist describes one ingestion event (an uploaded file or a remote sync).
// Media items keep no reference back to the playlist that produced them.
type Playlist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	ChannelsCount int    `json:"channelsCount"`
	Type          string `json:"type"`
	CreatedAt     string `json:"createdAt"`
}
