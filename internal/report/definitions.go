package report

// Columns returns the column specs for a report type. Width ratios per
// report sum to 1.0; the layout engine falls back to an equal split when
// a malformed set is supplied.
func Columns(t ReportType) []ColumnSpec {
	switch t {
	case TypeIncidents:
		return []ColumnSpec{
			{Header: "Reference", WidthRatio: 0.10},
			{Header: "Title", WidthRatio: 0.24},
			{Header: "Site", WidthRatio: 0.16},
			{Header: "Severity", WidthRatio: 0.10},
			{Header: "Status", WidthRatio: 0.10},
			{Header: "Reported By", WidthRatio: 0.16},
			{Header: "Occurred On", WidthRatio: 0.14, DateOnly: true},
		}
	case TypeInspections:
		return []ColumnSpec{
			{Header: "Reference", WidthRatio: 0.10},
			{Header: "Template", WidthRatio: 0.24},
			{Header: "Site", WidthRatio: 0.18},
			{Header: "Inspector", WidthRatio: 0.18},
			{Header: "Result", WidthRatio: 0.10},
			{Header: "Score", WidthRatio: 0.08},
			{Header: "Completed On", WidthRatio: 0.12, DateOnly: true},
		}
	case TypeActions:
		return []ColumnSpec{
			{Header: "Reference", WidthRatio: 0.10},
			{Header: "Description", WidthRatio: 0.28},
			{Header: "Site", WidthRatio: 0.16},
			{Header: "Assignee", WidthRatio: 0.16},
			{Header: "Status", WidthRatio: 0.10},
			{Header: "Due Date", WidthRatio: 0.10, DateOnly: true},
			{Header: "Created On", WidthRatio: 0.10, DateOnly: true},
		}
	}
	return nil
}

// Title returns the display title used in PDF header bands and email
// subjects for a report type.
func Title(t ReportType) string {
	switch t {
	case TypeIncidents:
		return "Incidents Report"
	case TypeInspections:
		return "Inspections Report"
	case TypeActions:
		return "Corrective Actions Report"
	}
	return "Report"
}
