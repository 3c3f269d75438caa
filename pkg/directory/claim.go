package directory

import (
	"github.com/agentstation/utc"
)

// Claim is an ownership assertion linking a record to a user account.
type Claim struct {
	OwnerID   int64    `json:"owner_id" yaml:"owner_id"`
	ClaimedAt utc.Time `json:"claimed_at" yaml:"claimed_at"`
}
