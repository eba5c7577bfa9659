package domain

import (
	"strings"
	"time"
)

// Entry is one question/ground-truth pair. The internal id is tracking
// identity only and is stripped from every export format.
type Entry struct {
	Question           string `json:"question"`
	GroundTruthChunkID string `json:"ground_truth_chunk_id"`
	GroundTruthText    string `json:"ground_truth_text"`
	Approved           bool   `json:"approved"`
	DateApproved       string `json:"date_approved,omitempty"`
	ApprovedBy         string `json:"approved_by,omitempty"`
	ID                 string `json:"id,omitempty"`
}

func (e *Entry) Kind() Kind { return KindEntry }

func (e *Entry) TrackingID() string { return e.ID }

func (e *Entry) SetTrackingID(id string) { e.ID = id }

func (e *Entry) BusinessKey() string { return e.GroundTruthChunkID }

func (e *Entry) IsApproved() bool { return e.Approved }

// Approve stamps the full approval triple. Re-approving an already approved
// entry overwrites the date and approver; there is no guard against it.
func (e *Entry) Approve(by string, at time.Time) {
	e.Approved = true
	e.DateApproved = at.UTC().Format(time.RFC3339)
	e.ApprovedBy = by
}

func (e *Entry) ClearApproval() {
	e.Approved = false
	e.DateApproved = ""
	e.ApprovedBy = ""
}

func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Question) == "" {
		return requiredErr("question", "question")
	}
	if strings.TrimSpace(e.GroundTruthChunkID) == "" {
		return requiredErr("ground_truth_chunk_id", "ground truth chunk id")
	}
	if strings.TrimSpace(e.GroundTruthText) == "" {
		return requiredErr("ground_truth_text", "ground truth text")
	}
	return nil
}

func (e *Entry) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	return containsFold(e.Question, term) ||
		containsFold(e.GroundTruthChunkID, term) ||
		containsFold(e.GroundTruthText, term)
}
