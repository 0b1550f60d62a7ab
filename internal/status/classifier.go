// Package status derives contract and document health from remaining days.
package status

// Day thresholds. A remaining count strictly below a threshold falls into the warning band.
const (
	ContractEndingSoonDays = 60
	DocumentUrgentDays     = 30
	DocumentExpiringDays   = 60
)

// ContractStatus is the derived state of an employment contract.
type ContractStatus string

const (
	ContractActive     ContractStatus = "ACTIVE"
	ContractEndingSoon ContractStatus = "ENDING_SOON"
	ContractExpired    ContractStatus = "EXPIRED"
	ContractSuspended  ContractStatus = "SUSPENDED"
)

// Valid reports whether s is a known contract status.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractActive, ContractEndingSoon, ContractExpired, ContractSuspended:
		return true
	}
	return false
}

// DocumentStatus is the derived state of a credential document with an expiry date.
type DocumentStatus string

const (
	DocumentValid        DocumentStatus = "VALID"
	DocumentExpiringSoon DocumentStatus = "EXPIRING_SOON"
	DocumentUrgent       DocumentStatus = "URGENT"
	DocumentExpired      DocumentStatus = "EXPIRED"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentValid, DocumentExpiringSoon, DocumentUrgent, DocumentExpired:
		return true
	}
	return false
}

// Contract classifies a contract. Suspension overrides the date.
func Contract(remaining int, suspended bool) ContractStatus {
	switch {
	case suspended:
		return ContractSuspended
	case remaining <= 0:
		return ContractExpired
	case remaining < ContractEndingSoonDays:
		return ContractEndingSoon
	default:
		return ContractActive
	}
}

// Document classifies a document. A nil remaining count means the document has no
// expiry date and yields a nil status.
func Document(remaining *int) *DocumentStatus {
	if remaining == nil {
		return nil
	}
	var s DocumentStatus
	switch rem := *remaining; {
	case rem <= 0:
		s = DocumentExpired
	case rem < DocumentUrgentDays:
		s = DocumentUrgent
	case rem < DocumentExpiringDays:
		s = DocumentExpiringSoon
	default:
		s = DocumentValid
	}
	return &s
}
