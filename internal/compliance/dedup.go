package compliance

import (
	"strings"

	"github.com/sells-group/edd-cli/internal/model"
)

// DuplicateIndex is a set of already-imported result keys. Keys compare
// case-insensitively.
type DuplicateIndex struct {
	keys map[string]struct{}
}

// NewDuplicateIndex builds the set from existing results.
func NewDuplicateIndex(existing []model.ResultKey) *DuplicateIndex {
	d := &DuplicateIndex{keys: make(map[string]struct{}, len(existing))}
	for _, k := range existing {
		d.keys[DuplicateKey(k)] = struct{}{}
	}
	return d
}

// DuplicateKey renders the composite permit|outfall|date|time|parameter key.
func DuplicateKey(k model.ResultKey) string {
	parts := []string{k.PermitNumber, k.OutfallID, k.SampleDate, k.SampleTime, k.Parameter}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// Contains reports whether the key was already imported.
func (d *DuplicateIndex) Contains(k model.ResultKey) bool {
	if d == nil || len(d.keys) == 0 {
		return false
	}
	_, ok := d.keys[DuplicateKey(k)]
	return ok
}

// Len returns the number of distinct keys.
func (d *DuplicateIndex) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// RecordKey derives the duplicate key of a parsed record. Records without a
// resolved outfall or sample date cannot match history and return false.
func RecordKey(r *model.ParsedRecord) (model.ResultKey, bool) {
	if r.OutfallDisplayID == nil || r.SampleDate == nil {
		return model.ResultKey{}, false
	}
	k := model.ResultKey{
		PermitNumber: r.PermitNumber,
		OutfallID:    *r.OutfallDisplayID,
		SampleDate:   *r.SampleDate,
		Parameter:    r.ParameterName,
	}
	if r.SampleTime != nil {
		k.SampleTime = *r.SampleTime
	}
	return k, true
}
