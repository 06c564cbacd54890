package documents

import (
	"context"
	"io"
	"time"

	"loanflow-backend/internal/shared/storage/object"
	"loanflow-backend/internal/shared/util"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

// Gate is the sole mutator of documents attached to a loan application. It
// uploads files to the object store and owns verification bookkeeping; the
// applications service persists the resulting document list as part of the
// application aggregate.
type Gate struct {
	Store object.ObjectStore
}

// Upload stores the file contents and returns a new pending document. The MIME
// type is sniffed during upload; unsupported types are refused before a
// document is attached anywhere.
func (g *Gate) Upload(ctx context.Context, applicationID string, docType Type, fileName string, r io.Reader) (Document, error) {
	if applicationID == "" || fileName == "" || docType == "" {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := g.Store.Save(ctx, applicationID, fileName, r)
	if err != nil {
		return Document{}, err
	}
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return Document{}, ErrUnsupportedType
	}

	return Document{
		ID:         util.NewID("DOC"),
		Type:       docType,
		FileName:   fileName,
		URL:        storageKey,
		MimeType:   mimeType,
		SizeBytes:  size,
		Status:     StatusPending,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Verify finalizes exactly one document in place. Re-verification of an
// already finalized document is refused; callers must attach a replacement.
func (g *Gate) Verify(docs []Document, documentID string, isVerified bool, verifiedBy, reason string) error {
	for i := range docs {
		if docs[i].ID != documentID {
			continue
		}
		if docs[i].Terminal() {
			return ErrAlreadyFinalized
		}
		now := time.Now().UTC()
		docs[i].VerifiedBy = verifiedBy
		docs[i].VerifiedAt = &now
		if isVerified {
			docs[i].Status = StatusVerified
		} else {
			docs[i].Status = StatusRejected
			docs[i].RejectionReason = reason
		}
		return nil
	}
	return ErrNotFound
}

// IsComplete reports whether every required type is covered by at least one
// document that has not been rejected. Verification itself happens after
// submission, so pending documents count.
func (g *Gate) IsComplete(docs []Document, required []Type) bool {
	for _, t := range required {
		if !hasUsable(docs, t) {
			return false
		}
	}
	return true
}

// AllVerified reports whether the application has at least one document and
// every attached document is verified.
func (g *Gate) AllVerified(docs []Document) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if d.Status != StatusVerified {
			return false
		}
	}
	return true
}

func hasUsable(docs []Document, t Type) bool {
	for _, d := range docs {
		if d.Type == t && d.Status != StatusRejected {
			return true
		}
	}
	return false
}
