package models

// Follow is the free relationship. One row per pair, toggled between active and inactive.
type Follow struct {
	BaseModel
	SubscriberID string       `gorm:"type:varchar(36);not null;uniqueIndex:uq_follows_pair" json:"subscriber_id"`
	CreatorID    string       `gorm:"type:varchar(36);not null;uniqueIndex:uq_follows_pair;index" json:"creator_id"`
	Status       FollowStatus `gorm:"type:varchar(20);not null;index" json:"status"`
}
