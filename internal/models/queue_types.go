package models

import (
	"encoding/json"
	"time"
)

// Body kinds for a queued operation. The tag removes the type ambiguity
// the replay side would otherwise face when rebuilding the request.
const (
	BodyJSON      = "json"
	BodyMultipart = "multipart"
)

// FilePart is one binary attachment of a multipart body. Data is stored
// verbatim in the local store (base64 under JSON encoding) so the part
// can be rebuilt byte-for-byte at replay time.
type FilePart struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// OperationBody is a tagged variant: either a raw JSON document or a
// set of multipart form fields plus optional file attachments.
type OperationBody struct {
	Kind   string            `json:"kind"`
	JSON   json.RawMessage   `json:"json,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Files  []FilePart        `json:"files,omitempty"`
}

// JSONBody wraps an already-encoded JSON document. A nil payload is a
// bodyless operation (DELETE).
func JSONBody(raw json.RawMessage) OperationBody {
	return OperationBody{Kind: BodyJSON, JSON: raw}
}

// MultipartBody wraps form fields and file attachments.
func MultipartBody(fields map[string]string, files []FilePart) OperationBody {
	return OperationBody{Kind: BodyMultipart, Fields: fields, Files: files}
}

// IsMultipart reports whether the body must be rebuilt as a multipart
// form at replay time.
func (b OperationBody) IsMultipart() bool { return b.Kind == BodyMultipart }

// QueuedOperation is a captured HTTP mutation awaiting later delivery.
// Headers hold everything the request needs at replay time, including
// the Authorization header captured at enqueue time: the token may not
// be retrievable identically later.
type QueuedOperation struct {
	ID         uint64            `json:"id"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	Body       OperationBody     `json:"body"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
}
