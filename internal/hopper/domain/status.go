// Package domain provides core business rules for the lead hopper bounded context.
package domain

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusNew        Status = "new"
	StatusAssigned   Status = "assigned"
	StatusContacted  Status = "contacted"
	StatusQualified  Status = "qualified"
	StatusProtected  Status = "protected"
	StatusClosedWon  Status = "closed_won"
	StatusClosedLost Status = "closed_lost"
)

// activeStatuses are statuses where an agent is actively working the lead.
// These define active_count and are the only statuses the sweeper may reclaim.
var activeStatuses = map[Status]bool{
	StatusAssigned:  true,
	StatusContacted: true,
	StatusQualified: true,
}

// terminalStatuses are statuses where no further transitions occur.
var terminalStatuses = map[Status]bool{
	StatusClosedWon:  true,
	StatusClosedLost: true,
}

// validTransitions enumerates the allowed status graph. Reclaiming
// (active -> new) and claiming (new -> assigned) are included so the
// engines and the CRUD layer share one rule set.
var validTransitions = map[Status][]Status{
	StatusNew:       {StatusAssigned},
	StatusAssigned:  {StatusContacted, StatusQualified, StatusProtected, StatusClosedWon, StatusClosedLost, StatusNew},
	StatusContacted: {StatusQualified, StatusProtected, StatusClosedWon, StatusClosedLost, StatusNew},
	StatusQualified: {StatusProtected, StatusClosedWon, StatusClosedLost, StatusNew},
	StatusProtected: {StatusClosedWon, StatusClosedLost},
}

// IsValid reports whether s is a known lead status.
func IsValid(s Status) bool {
	switch s {
	case StatusNew, StatusAssigned, StatusContacted, StatusQualified,
		StatusProtected, StatusClosedWon, StatusClosedLost:
		return true
	}
	return false
}

// IsActive reports whether the status counts toward an agent's active_count.
func IsActive(s Status) bool {
	return activeStatuses[s]
}

// IsRecyclable reports whether the sweeper may reclaim a lead in this status.
// Protected and closed leads never expire via the recycling path.
func IsRecyclable(s Status) bool {
	return activeStatuses[s]
}

// IsTerminal reports whether the status is final.
func IsTerminal(s Status) bool {
	return terminalStatuses[s]
}

// ConsumesQuota reports whether a lead in this status occupies a slot of the
// holding agent's quota. Protected leads keep their slot even though they are
// exempt from recycling.
func ConsumesQuota(s Status) bool {
	return activeStatuses[s] || s == StatusProtected
}

// RequiresAgent reports whether a lead in this status must have an assigned agent.
func RequiresAgent(s Status) bool {
	return activeStatuses[s] || s == StatusProtected
}

// ClearsAssignment reports whether entering this status releases the lead's
// assignment fields. Holds exactly where RequiresAgent does not: back in the
// pool and in the terminal statuses, assigned_agent_id and assigned_at are null.
func ClearsAssignment(s Status) bool {
	return s == StatusNew || terminalStatuses[s]
}

// CanTransition reports whether a lead may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Role is the account role of an actor in the CRM.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAgent
}

// IsAssignable reports whether accounts with this role carry a quota and can
// receive leads. Admins and managers act on the hopper but never hold leads.
func (r Role) IsAssignable() bool {
	return r == RoleAgent
}
