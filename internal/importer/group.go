package importer

import "github.com/sells-group/edd-cli/internal/model"

// Plan is the import-effective content of an extraction.
type Plan struct {
	Groups                  []model.EventGroup
	Eligible                int
	SkippedMissingParameter int
	SkippedUnresolved       int
	SkippedDuplicate        int
}

// Results returns the number of lab results the plan offers to storage.
func (p Plan) Results() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Results)
	}
	return n
}

// BuildPlan groups the importable records by (outfall, date, time) in
// first-seen order. Duplicates, records without an outfall or sample date,
// and records without a parameter identity are counted and left out.
func BuildPlan(records []model.ParsedRecord) Plan {
	var p Plan
	index := make(map[model.EventKey]int)

	for i := range records {
		r := &records[i]
		switch {
		case r.IsDuplicate:
			p.SkippedDuplicate++
			continue
		case !r.Importable():
			p.SkippedUnresolved++
			continue
		}
		p.Eligible++
		if r.ParameterID == nil {
			p.SkippedMissingParameter++
			continue
		}

		key := model.EventKey{OutfallID: *r.OutfallID, SampleDate: *r.SampleDate}
		if r.SampleTime != nil {
			key.SampleTime = *r.SampleTime
		}
		gi, ok := index[key]
		if !ok {
			gi = len(p.Groups)
			index[key] = gi
			p.Groups = append(p.Groups, model.EventGroup{Key: key})
		}
		p.Groups[gi].Results = append(p.Groups[gi].Results, model.LabResult{
			ParameterID:       *r.ParameterID,
			Value:             r.Value,
			BelowDetection:    r.BelowDetection,
			Qualifier:         r.Qualifier,
			Unit:              r.Unit,
			AnalysisDate:      r.AnalysisDate,
			HoldTimeDays:      r.HoldTimeDays,
			HoldTimeCompliant: r.HoldTimeCompliant,
			RowNumber:         r.RowNumber,
		})
	}
	return p
}
