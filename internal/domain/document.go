package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type DocumentMetadata struct {
	Chapter       *string  `json:"chapter"`
	Part          *string  `json:"part"`
	Schedule      *string  `json:"schedule"`
	ScheduleTitle *string  `json:"schedule_title"`
	Type          *string  `json:"type"`
	SideNotes     []string `json:"side_notes"`
	References    []string `json:"references"`
}

// Document is one paginated legal-text record. BusinessID is the stable,
// user-visible identifier; InternalID is tracking identity only. Fields the
// model does not know about survive an import/export round trip via Extra.
type Document struct {
	BusinessID   string            `json:"id"`
	Text         string            `json:"text"`
	PageNum      *int              `json:"page_num"`
	Metadata     *DocumentMetadata `json:"metadata"`
	Approved     bool              `json:"approved"`
	DateApproved string            `json:"date_approved,omitempty"`
	ApprovedBy   string            `json:"approved_by,omitempty"`
	InternalID   string            `json:"internal_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var documentKnownFields = []string{
	"id", "text", "page_num", "metadata",
	"approved", "date_approved", "approved_by", "internal_id",
}

// documentAlias avoids recursing into the custom (un)marshalers.
type documentAlias Document

func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range documentKnownFields {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}
	alias.Extra = raw
	*d = Document(alias)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(documentAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return payload, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(payload, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func (d *Document) Kind() Kind { return KindDocument }

func (d *Document) TrackingID() string { return d.InternalID }

func (d *Document) SetTrackingID(id string) { d.InternalID = id }

func (d *Document) BusinessKey() string { return d.BusinessID }

func (d *Document) IsApproved() bool { return d.Approved }

func (d *Document) Approve(by string, at time.Time) {
	d.Approved = true
	d.DateApproved = at.UTC().Format(time.RFC3339)
	d.ApprovedBy = by
}

func (d *Document) ClearApproval() {
	d.Approved = false
	d.DateApproved = ""
	d.ApprovedBy = ""
}

func (d *Document) Validate() error {
	if strings.TrimSpace(d.BusinessID) == "" {
		return requiredErr("id", "document id")
	}
	if strings.TrimSpace(d.Text) == "" {
		return requiredErr("text", "document text")
	}
	if d.PageNum == nil {
		return requiredErr("page_num", "page number")
	}
	if d.Metadata == nil {
		return requiredErr("metadata", "metadata")
	}
	return nil
}

func (d *Document) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	if containsFold(d.BusinessID, term) || containsFold(d.Text, term) {
		return true
	}
	if d.Metadata == nil {
		return false
	}
	for _, f := range []*string{d.Metadata.Chapter, d.Metadata.Part, d.Metadata.Schedule} {
		if f != nil && containsFold(*f, term) {
			return true
		}
	}
	return false
}
