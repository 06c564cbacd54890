package documents

import "time"

// Type enumerates the kinds of evidentiary documents a loan product can require.
type Type string

const (
	TypeIDProof         Type = "ID_PROOF"
	TypeIncomeProof     Type = "INCOME_PROOF"
	TypeBankStatement   Type = "BANK_STATEMENT"
	TypeAddressProof    Type = "ADDRESS_PROOF"
	TypeEmploymentProof Type = "EMPLOYMENT_PROOF"
)

// Status describes the verification state of a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Document represents one uploaded evidentiary artifact tied to a loan application.
// Once Status reaches verified or rejected it is never mutated again; a replacement
// document must be attached instead.
type Document struct {
	ID              string     `json:"id"`
	Type            Type       `json:"type"`
	FileName        string     `json:"fileName"`
	URL             string     `json:"url"`
	MimeType        string     `json:"mimeType"`
	SizeBytes       int64      `json:"sizeBytes"`
	Status          Status     `json:"status"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	VerifiedBy      string     `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// Terminal reports whether the document has reached a final verification state.
func (d Document) Terminal() bool {
	return d.Status == StatusVerified || d.Status == StatusRejected
}
