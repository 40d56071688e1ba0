package models

// Role is the access level granted by an allow-list entry.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleRequester  Role = "requester"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleRequester, RoleAccountant, RoleAdmin:
		return true
	}
	return false
}

// CanCreateQueue reports whether the role may submit queue requests.
func (r Role) CanCreateQueue() bool {
	return r == RoleRequester || r.CanEdit()
}

// CanEdit reports whether the role may approve, edit and attach invoices.
func (r Role) CanEdit() bool {
	return r == RoleAccountant || r == RoleAdmin
}

// CanManageAllowlist reports whether the role may edit the allow-list.
func (r Role) CanManageAllowlist() bool {
	return r == RoleAdmin
}

// RequestState is the workflow state of an approved request.
// Any transition between states is allowed; there is no enforced ordering.
type RequestState string

const (
	StateNew                RequestState = "NEW"
	StatePaid               RequestState = "PAID"
	StateHasInvoices        RequestState = "HAS_INVOICES"
	StateHandedToAccountant RequestState = "HANDED_TO_ACCOUNTANT"
)

// RequestStates lists the states in display order.
var RequestStates = []RequestState{StateNew, StatePaid, StateHasInvoices, StateHandedToAccountant}

// Valid reports whether s is one of the known states.
func (s RequestState) Valid() bool {
	for _, known := range RequestStates {
		if s == known {
			return true
		}
	}
	return false
}

// QueueStatus is the review status of a queue request.
type QueueStatus string

const (
	QueueQueued   QueueStatus = "QUEUED"
	QueueApproved QueueStatus = "APPROVED"
	QueueRejected QueueStatus = "REJECTED"
)

// Terminal reports whether the queue request has already been reviewed.
func (s QueueStatus) Terminal() bool {
	return s == QueueApproved || s == QueueRejected
}
