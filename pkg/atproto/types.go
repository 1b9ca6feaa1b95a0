package atproto

import (
	"encoding/json"
	"time"
)

// Collections used by skyavatar.
const (
	ProfileCollection = "app.bsky.actor.profile"
	ProfileRKey       = "self"
)

// Link is a CID link in its JSON form.
type Link struct {
	Link string `json:"$link"`
}

// Blob is a reference to an uploaded blob as it appears inside records.
type Blob struct {
	Type     string `json:"$type"`
	Ref      Link   `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Profile is the subset of app.bsky.actor.getProfile used here.
type Profile struct {
	DID         string     `json:"did"`
	Handle      string     `json:"handle"`
	DisplayName string     `json:"displayName,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	IndexedAt   *time.Time `json:"indexedAt,omitempty"`
}

// Record is a repository record with its raw value.
type Record struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

// RecordRef identifies a written record.
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ListRecordsOutput is one page of com.atproto.repo.listRecords.
type ListRecordsOutput struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor,omitempty"`
}

// PutRecordInput is the body of com.atproto.repo.putRecord.
type PutRecordInput struct {
	Repo       string  `json:"repo"`
	Collection string  `json:"collection"`
	RKey       string  `json:"rkey"`
	Record     any     `json:"record"`
	SwapRecord *string `json:"swapRecord,omitempty"`
}

type createRecordInput struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type createSessionInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionOutput struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

type uploadBlobOutput struct {
	Blob Blob `json:"blob"`
}
