package publication

import "github.com/google/uuid"

// PublishResult is returned by Publish and Sync.
type PublishResult struct {
	Success           bool      `json:"success"`
	PublicHomeID      uuid.UUID `json:"publicHomeId"`
	PublicCommunityID uuid.UUID `json:"publicCommunityId"`
}

// UnpublishResult is returned by Unpublish.
type UnpublishResult struct {
	Success bool `json:"success"`
}

// CommunityPublishResult is returned by PublishCommunity.
type CommunityPublishResult struct {
	Success           bool      `json:"success"`
	PublicCommunityID uuid.UUID `json:"publicCommunityId"`
}
