// Package authz holds the role/field policy for report updates. Staff and
// creators mutate disjoint field sets, so the decision is a table lookup
// rather than branching in the handler.
package authz

// Role of the caller relative to a report.
type Role int

const (
	RoleNone Role = iota // neither staff nor the report's creator
	RoleCreator
	RoleStaff
)

// StatusField is the one field reserved for staff.
const StatusField = "report_status"

// ContentFields are the fields a creator may change through the update
// endpoint. Media replacement goes through a fresh submission, not update.
var ContentFields = map[string]bool{
	"report_title":       true,
	"report_type":        true,
	"report_description": true,
}

// Decision is the outcome of evaluating an update request.
type Decision struct {
	Allow  bool
	Reason string
}

// EvaluateUpdate decides whether the caller's role may apply a payload
// touching the given field names. The whole request is rejected on the first
// field outside the role's partition; nothing is partially applied.
func EvaluateUpdate(role Role, fields []string) Decision {
	switch role {
	case RoleStaff:
		for _, f := range fields {
			if f != StatusField {
				return Decision{Allow: false, Reason: "Admins can only update the report status."}
			}
		}
		if len(fields) == 0 {
			return Decision{Allow: false, Reason: "Admins can only update the report status."}
		}
		return Decision{Allow: true}
	case RoleCreator:
		// the status key is rejected even when its value equals the stored
		// status; unrecognized keys are ignored at apply time
		for _, f := range fields {
			if f == StatusField {
				return Decision{Allow: false, Reason: "You are not authorized to update the report status."}
			}
		}
		return Decision{Allow: true}
	default:
		return Decision{Allow: false, Reason: "You are not authorized to update this report."}
	}
}

// CanDelete reports whether the role may delete a report.
func CanDelete(role Role) bool {
	return role == RoleCreator || role == RoleStaff
}

// RoleFor classifies a caller against a report owner.
func RoleFor(callerID uint, callerIsStaff bool, ownerID uint) Role {
	if callerIsStaff {
		return RoleStaff
	}
	if callerID == ownerID {
		return RoleCreator
	}
	return RoleNone
}
