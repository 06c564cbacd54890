package workflows

// transitions is the single source of truth for status legality. The pipeline
// is forward-only with no skips; CANCELLED is reachable from every non-terminal
// state. Same-state updates are not transitions and are rejected.
var transitions = map[Status][]Status{
	StatusSubmitted:            {StatusDocumentVerification, StatusCancelled},
	StatusDocumentVerification: {StatusCreditCheck, StatusCancelled},
	StatusCreditCheck:          {StatusUnderwriting, StatusCancelled},
	StatusUnderwriting:         {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:             {},
	StatusRejected:             {},
	StatusCancelled:            {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no legal successors.
func IsTerminal(s Status) bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidStatus reports whether s is a member of the status enumeration.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}
