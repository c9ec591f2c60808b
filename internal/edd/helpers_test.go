package edd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/edd/resolve"
	"github.com/sells-group/edd-cli/internal/model"
)

func templateHeader() []string {
	return []string{
		"Permittee", "Permit #", "Facility/Site", "Site Address", "City", "State",
		"County", "Outfall", "Latitude", "Longitude", "Receiving Water", "Sample Date",
		"Sample Time", "Sample Type", "Sample ID", "Lab Name", "Lab ID", "Analysis Date",
		"Analysis Time", "Method", "Parameter", "Value", "Unit", "Qualifier",
		"Detection Limit", "Comments",
	}
}

// dataRow returns a complete 26-cell row with the given cells overridden.
func dataRow(overrides map[int]string) []string {
	row := make([]string, TemplateColumns)
	row[ColPermittee] = "Acme Utility District"
	row[ColPermitNumber] = "TX0001234"
	row[ColSite] = "North Plant"
	row[ColState] = "TX"
	row[ColOutfall] = "1"
	row[ColSampleDate] = "3/1/2024"
	row[ColSampleTime] = "08:30"
	row[ColLabName] = "Gulf Coast Labs"
	row[ColAnalysisDate] = "3/3/2024"
	row[ColParameter] = "TSS"
	row[ColValue] = "12.5"
	row[ColUnit] = "mg/L"
	for i, v := range overrides {
		row[i] = v
	}
	return row
}

func testResolver(t *testing.T) *resolve.Cache {
	t.Helper()
	static, err := resolve.DefaultStaticTable()
	require.NoError(t, err)
	return resolve.NewCache(resolve.Inputs{
		OrgID: "org-1",
		ParameterAliases: []model.ParameterAlias{
			{Alias: "Total Suspended Solids", ParameterID: "p-tss", CanonicalName: "Total Suspended Solids"},
			{Alias: "tss", ParameterID: "p-tss", CanonicalName: "Total Suspended Solids"},
			{Alias: "ph", ParameterID: "p-ph", CanonicalName: "pH"},
		},
		Outfalls: []model.Outfall{
			{ID: "o-1", PermitID: "pm-1", PermitNumber: "TX0001234", DisplayID: "001"},
			{ID: "o-2", PermitID: "pm-1", PermitNumber: "TX0001234", DisplayID: "002"},
		},
		Static: static,
	})
}

func testHoldTimes(t *testing.T) *compliance.HoldTimes {
	t.Helper()
	h, err := compliance.DefaultHoldTimes()
	require.NoError(t, err)
	return h
}
