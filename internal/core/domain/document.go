package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusParsing  DocumentStatus = "parsing"
	StatusParsed   DocumentStatus = "parsed"
	StatusFailed   DocumentStatus = "failed"
)

type DocumentKind string

const (
	KindInvoice      DocumentKind = "invoice"
	KindDeliveryNote DocumentKind = "delivery_note"
	KindCreditNote   DocumentKind = "credit_note"
	KindOther        DocumentKind = "other"
)

// ParseDocumentKind maps a user-supplied kind to a known DocumentKind,
// defaulting to KindOther for anything unrecognized.
func ParseDocumentKind(raw string) DocumentKind {
	switch DocumentKind(raw) {
	case KindInvoice, KindDeliveryNote, KindCreditNote:
		return DocumentKind(raw)
	default:
		return KindOther
	}
}

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Kind        DocumentKind   `json:"kind"`
	Status      DocumentStatus `json:"status"`
	ItemCount   int            `json:"item_count"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentGroup ties a primary document (the invoice treated as ground
// truth) to the related documents validated against it.
type DocumentGroup struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PrimaryID  string    `json:"primary_document_id"`
	RelatedIDs []string  `json:"related_document_ids"`
	CreatedAt  time.Time `json:"created_at"`
}
