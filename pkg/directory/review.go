package directory

import (
	"github.com/agentstation/utc"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

// Review statuses.
const (
	ReviewApproved ReviewStatus = "approved"
	ReviewPending  ReviewStatus = "pending"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a visitor review attached to a record. Ownership is mutable:
// reviews are reassigned wholesale to the primary during a merge.
type Review struct {
	ID        int64        `json:"id" yaml:"id"`
	RecordID  int64        `json:"record_id" yaml:"record_id"`
	Rating    int          `json:"rating" yaml:"rating"`
	Content   string       `json:"content,omitempty" yaml:"content,omitempty"`
	Status    ReviewStatus `json:"status" yaml:"status"`
	CreatedAt utc.Time     `json:"created_at" yaml:"created_at"`
}

// ReviewStats is the aggregate over a record's approved reviews.
type ReviewStats struct {
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}
