package audit

import (
	"strconv"
	"strings"
)

// csvHeader is the fixed export column set.
const csvHeader = "id,timestamp,result,rule,reason,score,hash"

// ExportCSV renders the in-memory entries as CSV. The reason column is
// always double-quoted with embedded quotes doubled, so commas inside
// reasons survive; the remaining columns are identifiers and numbers that
// need no quoting. Rule is the matched rule's name, empty when no rule
// matched.
func (l *Log) ExportCSV() string {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteByte('\n')

	for _, entry := range l.Entries() {
		var result, reason string
		score := 0
		if entry.Output != nil {
			result = string(entry.Output.Result)
			reason = entry.Output.Reason
			score = entry.Output.Score
		}

		ruleName := ""
		if entry.Rule != nil {
			ruleName = entry.Rule.Name
		}

		sb.WriteString(entry.ID)
		sb.WriteByte(',')
		sb.WriteString(entry.Timestamp)
		sb.WriteByte(',')
		sb.WriteString(result)
		sb.WriteByte(',')
		sb.WriteString(csvField(ruleName))
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(reason))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(score))
		sb.WriteByte(',')
		sb.WriteString(entry.Hash)
		sb.WriteByte('\n')
	}

	return sb.String()
}

// quoteCSV always quotes, doubling embedded quotes.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvField quotes only when the value would break the row.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return quoteCSV(s)
	}
	return s
}
