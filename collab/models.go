// Package collab defines owner-granted delegation on tournaments and the
// capability sets derived from it.
package collab

import (
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/types"
)

// Status is the acceptance state of a collaboration grant.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Collaboration grants delegated capability on a tournament. Only the
// tournament owner may create or revoke one; revocation hard-deletes the
// record (the transaction log, not this record, is the audit trail).
type Collaboration struct {
	types.Entity
	ID           id.CollaborationID `json:"id"`
	TournamentID id.TournamentID    `json:"tournament_id"`
	AccountID    id.AccountID       `json:"account_id"`
	GrantedBy    id.AccountID       `json:"granted_by"`
	Status       Status             `json:"status"`
}

// CapabilitySet is the resolved capability of an actor over a tournament.
// It is always complete: resolution either succeeds with every field set or
// fails outright.
type CapabilitySet struct {
	IsOwner        bool `json:"is_owner"`
	IsCollaborator bool `json:"is_collaborator"`
	CanManage      bool `json:"can_manage"`
	CanDelete      bool `json:"can_delete"`
	CanInvite      bool `json:"can_invite"`
}

// Resolve derives the capability set from ownership and an accepted
// collaboration. Day-to-day management is shared; destroying the tournament
// and altering its delegation list stay owner-exclusive.
func Resolve(isOwner, isCollaborator bool) CapabilitySet {
	return CapabilitySet{
		IsOwner:        isOwner,
		IsCollaborator: isCollaborator,
		CanManage:      isOwner || isCollaborator,
		CanDelete:      isOwner,
		CanInvite:      isOwner,
	}
}
