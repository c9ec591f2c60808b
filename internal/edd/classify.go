// Package edd turns lab EDD spreadsheets into bounded extraction reports:
// header validation, cell canonicalization and the per-row parse loop.
package edd

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Column positions of the canonical EDD template.
const (
	ColPermittee = iota
	ColPermitNumber
	ColSite
	ColAddress
	ColCity
	ColState
	ColCounty
	ColOutfall
	ColLatitude
	ColLongitude
	ColReceivingWater
	ColSampleDate
	ColSampleTime
	ColSampleType
	ColSampleID
	ColLabName
	ColLabID
	ColAnalysisDate
	ColAnalysisTime
	ColMethod
	ColParameter
	ColValue
	ColUnit
	ColQualifier
	ColDetectionLimit
	ColComments
	ColReportingLimit
)

const (
	// TemplateColumns is the width of the standard EDD template.
	TemplateColumns = 26
	// ExtendedColumns is the width of the variant with a reporting-limit column.
	ExtendedColumns = 27

	minHeaderCells      = 20
	maxHeaderMismatches = 6
)

// templateColumn describes one canonical column. A header cell matches when
// it contains every substring of any one group.
type templateColumn struct {
	name   string
	groups [][]string
}

var template = [ExtendedColumns]templateColumn{
	{"permittee", [][]string{{"permittee"}, {"facility name"}}},
	{"permit#", [][]string{{"permit#"}, {"permit", "no"}, {"permit", "number"}}},
	{"facility/site", [][]string{{"site"}, {"facility"}}},
	{"site address", [][]string{{"address"}}},
	{"city", [][]string{{"city"}}},
	{"state", [][]string{{"state"}}},
	{"county", [][]string{{"county"}}},
	{"outfall", [][]string{{"outfall"}}},
	{"latitude", [][]string{{"lat"}}},
	{"longitude", [][]string{{"lon"}}},
	{"receiving water", [][]string{{"receiving"}, {"water body"}, {"stream"}}},
	{"sample date", [][]string{{"sampl", "date"}, {"collect", "date"}}},
	{"sample time", [][]string{{"sampl", "time"}, {"collect", "time"}}},
	{"sample type", [][]string{{"type"}}},
	{"sample id", [][]string{{"sampl", "id"}}},
	{"lab name", [][]string{{"lab", "name"}, {"laboratory"}}},
	{"lab id", [][]string{{"lab", "id"}}},
	{"analysis date", [][]string{{"analy", "date"}}},
	{"analysis time", [][]string{{"analy", "time"}}},
	{"method", [][]string{{"method"}}},
	{"parameter", [][]string{{"parameter"}, {"analyte"}}},
	{"value", [][]string{{"value"}, {"result"}}},
	{"unit", [][]string{{"unit"}}},
	{"qualifier", [][]string{{"qualifier"}, {"flag"}}},
	{"detection limit", [][]string{{"detection"}, {"mdl"}}},
	{"comments", [][]string{{"comment"}, {"note"}, {"remark"}}},
	{"reporting limit", [][]string{{"reporting"}, {"rl"}}},
}

// headerFixes are known misspellings emitted by lab export tools.
var headerFixes = strings.NewReplacer(
	"permitee", "permittee",
	"permit #", "permit#",
)

// descriptorTokens are the cell values of type-descriptor rows that some
// export tools insert right after the header.
var descriptorTokens = map[string]bool{
	"txt": true, "text": true,
	"num": true, "number": true, "numeric": true,
	"date": true, "time": true, "datetime": true,
	"char": true, "string": true,
	"int": true, "integer": true,
	"float": true, "decimal": true,
}

// Row is one data row with its 1-based spreadsheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed cell at position i, or "" when the row is short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// Classified is a validated grid: normalized header plus data rows.
type Classified struct {
	Header         []string
	ColumnCount    int
	Warnings       []string
	DescriptorRows int
	Rows           []Row
}

// NormalizeHeader lowercases, trims and single-spaces a header cell and
// corrects known misspellings.
func NormalizeHeader(cell string) string {
	s := strings.ToLower(strings.Join(strings.FieldsFunc(cell, unicode.IsSpace), " "))
	return headerFixes.Replace(s)
}

// Classify validates the header row, detects the 26/27-column variant and
// separates data rows from blank and type-descriptor rows. The first
// non-blank row is the header.
func Classify(grid [][]string) (*Classified, error) {
	log := zap.L().With(zap.String("component", "edd.classify"))

	headerIdx := -1
	for i, row := range grid {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &FormatError{Kind: KindNoData, Detail: "file contains no rows"}
	}

	header := make([]string, len(grid[headerIdx]))
	for i, c := range grid[headerIdx] {
		header[i] = NormalizeHeader(c)
	}
	header = trimTrailingEmpty(header)

	if len(header) < minHeaderCells {
		return nil, &FormatError{
			Kind:   KindInvalidHeader,
			Detail: fmt.Sprintf("header has %d columns, expected at least %d", len(header), minHeaderCells),
		}
	}
	if missing := missingRequired(header); len(missing) > 0 {
		return nil, &FormatError{
			Kind:   KindInvalidHeader,
			Detail: "header is missing required columns: " + strings.Join(missing, ", "),
		}
	}

	c := &Classified{Header: header, ColumnCount: TemplateColumns}
	if len(header) > ColReportingLimit && header[ColReportingLimit] != "" {
		c.ColumnCount = ExtendedColumns
	}

	var mismatches []string
	for i := 0; i < c.ColumnCount && i < len(header); i++ {
		if !template[i].matches(header[i]) {
			mismatches = append(mismatches, fmt.Sprintf("column %d %q (expected %s)", i+1, header[i], template[i].name))
		}
	}
	if len(mismatches) > 0 {
		log.Debug("edd: header positions differ from template",
			zap.Int("mismatches", len(mismatches)),
			zap.Strings("columns", mismatches),
		)
	}
	if len(mismatches) > maxHeaderMismatches {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"Header differs from the EDD template in %d columns; values may be read from the wrong columns.",
			len(mismatches)))
	}

	rest := grid[headerIdx+1:]
	i := 0
	for ; i < len(rest); i++ {
		if blankRow(rest[i]) {
			continue
		}
		if !descriptorRow(rest[i]) {
			break
		}
		c.DescriptorRows++
	}

	for ; i < len(rest); i++ {
		if blankRow(rest[i]) {
			continue
		}
		c.Rows = append(c.Rows, Row{Number: headerIdx + i + 2, Cells: rest[i]})
	}

	if c.DescriptorRows > 0 {
		log.Debug("edd: stripped type-descriptor rows", zap.Int("rows", c.DescriptorRows))
	}
	if len(c.Rows) == 0 {
		return nil, &FormatError{Kind: KindNoData, Detail: "no data rows after the header"}
	}
	return c, nil
}

func (t templateColumn) matches(h string) bool {
	for _, g := range t.groups {
		ok := true
		for _, sub := range g {
			if !strings.Contains(h, sub) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// missingRequired returns the required column roles absent from the header.
func missingRequired(header []string) []string {
	var permit, parameter, value bool
	for _, h := range header {
		switch {
		case strings.Contains(h, "permit") && !strings.HasPrefix(h, "permittee"):
			permit = true
		case strings.Contains(h, "parameter") || strings.Contains(h, "analyte"):
			parameter = true
		case strings.Contains(h, "value") || strings.Contains(h, "result"):
			value = true
		}
	}
	var missing []string
	if !permit {
		missing = append(missing, "permit")
	}
	if !parameter {
		missing = append(missing, "parameter")
	}
	if !value {
		missing = append(missing, "value")
	}
	return missing
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func descriptorRow(row []string) bool {
	seen := false
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !descriptorTokens[c] {
			return false
		}
		seen = true
	}
	return seen
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
