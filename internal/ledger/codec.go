package ledger

import (
	"encoding/json"
	"fmt"

	"provledger/internal/model"
)

// Encode renders records as the canonical ledger document. Struct field order
// is fixed and timestamps keep their RFC 3339 form, so decoding and
// re-encoding a document produced here yields identical bytes.
func Encode(records []model.ProvenanceRecord) ([]byte, error) {
	if records == nil {
		records = []model.ProvenanceRecord{}
	}
	return json.Marshal(model.LedgerDocument{
		Version: model.LedgerDocumentVersion,
		Records: records,
	})
}

// Decode parses a ledger document.
func Decode(b []byte) ([]model.ProvenanceRecord, error) {
	var doc model.LedgerDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Version != model.LedgerDocumentVersion {
		return nil, fmt.Errorf("unsupported ledger document version %d", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Records))
	for i, r := range doc.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("record %d reuses id %s", i, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return doc.Records, nil
}
