package domain

import "time"

// Approver is a privileged account authorized to approve or reject pending
// withdrawal and refund requests.
type Approver struct {
	AccountID int64     `json:"account_id"`
	AddedBy   int64     `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
}
