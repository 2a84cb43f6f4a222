package hypothesis

import (
	"encoding/json"

	"adinsight/domain/core"
)

// Batch is an accepted, immutable generation result. It is created once per
// summary and never modified; accessors hand out copies.
type Batch struct {
	id                core.BatchID
	summaryID         core.SummaryID
	vocabularyVersion string
	createdAt         core.Timestamp
	hypotheses        []Hypothesis
}

// NewBatch copies hs into a new batch with a fresh time-ordered ID.
func NewBatch(summaryID core.SummaryID, vocabularyVersion string, hs []Hypothesis) *Batch {
	return &Batch{
		id:                core.NewBatchID(),
		summaryID:         summaryID,
		vocabularyVersion: vocabularyVersion,
		createdAt:         core.Now(),
		hypotheses:        cloneAll(hs),
	}
}

func (b *Batch) ID() core.BatchID { return b.id }
func (b *Batch) SummaryID() core.SummaryID { return b.summaryID }
func (b *Batch) VocabularyVersion() string { return b.vocabularyVersion }
func (b *Batch) CreatedAt() core.Timestamp { return b.createdAt }
func (b *Batch) Len() int { return len(b.hypotheses) }
func (b *Batch) IsEmpty() bool { return len(b.hypotheses) == 0 }
func (b *Batch) Hypotheses() []Hypothesis { return cloneAll(b.hypotheses) }
func (b *Batch) At(i int) Hypothesis { return b.hypotheses[i].Clone() }

// MarshalJSON emits the wire document: the bare array, "[]" when empty.
func (b *Batch) MarshalJSON() ([]byte, error) {
	if len(b.hypotheses) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(b.hypotheses)
}

// Hash is the content hash of the wire document.
func (b *Batch) Hash() (core.Hash, error) {
	raw, err := b.MarshalJSON()
	if err != nil {
		return "", err
	}
	return core.NewHash(raw), nil
}
