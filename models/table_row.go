package models

// TableRow is one flattened record keyed by column name.
type TableRow map[string]Value

// CSVRow aligns the row to columns. Absent cells are empty strings.
func (r TableRow) CSVRow(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		if v, ok := r[c]; ok {
			row[i] = v.String()
		}
	}
	return row
}

// JSONObject returns the row as a plain map; absent cells are omitted.
func (r TableRow) JSONObject() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Any()
	}
	return out
}
