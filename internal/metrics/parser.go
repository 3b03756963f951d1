package metrics

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	timestampColumn = "Timestamp"
	notAvailable    = "N/A"
	desktopPrefix   = "Desktop "
	mobilePrefix    = "Mobile "
)

// urlColumns are checked in order for the monitored URL.
var urlColumns = []string{"URL", "Website"}

type metricColumn struct {
	header string
	timed  bool
	set    func(*MetricValues, float64)
}

var metricColumns = []metricColumn{
	{"Performance", false, func(m *MetricValues, v float64) { m.Performance = v }},
	{"Accessibility", false, func(m *MetricValues, v float64) { m.Accessibility = v }},
	{"Best Practices", false, func(m *MetricValues, v float64) { m.BestPractices = v }},
	{"SEO", false, func(m *MetricValues, v float64) { m.SEO = v }},
	{"First Contentful Paint", true, func(m *MetricValues, v float64) { m.FCP = v }},
	{"Largest Contentful Paint", true, func(m *MetricValues, v float64) { m.LCP = v }},
	{"Cumulative Layout Shift", false, func(m *MetricValues, v float64) { m.CLS = v }},
	{"Speed Index", true, func(m *MetricValues, v float64) { m.SpeedIndex = v }},
	{"Total Blocking Time", true, func(m *MetricValues, v float64) { m.TBT = v }},
}

// Sheets writes times like "12/25/2024, 14.30". An optional seconds group is
// accepted as well.
var dottedTime = regexp.MustCompile(`\b(\d{1,2})\.(\d{2})(\.(\d{2}))?\b`)

var thousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

var timestampLayouts = []string{
	"1/2/2006, 15:04:05",
	"1/2/2006, 15:04",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Parser turns raw spreadsheet rows into chart points. Timestamps without a
// zone are read in Location.
type Parser struct {
	Location *time.Location
	Now      func() time.Time
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		Location: loc,
		Now:      time.Now,
	}
}

// DefaultParser reads timestamps in UTC.
var DefaultParser = NewParser(time.UTC)

// ParseRow parses a row with DefaultParser.
func ParseRow(row RawRow) *ChartDataPoint {
	return DefaultParser.ParseRow(row)
}

// ParseRow validates a row against the combined or desktop/mobile schema and
// returns its normalized point, or nil when the row is malformed. Field-level
// problems never reject a row: bad numbers become 0 and bad timestamps become
// the current time.
func (p *Parser) ParseRow(row RawRow) *ChartDataPoint {
	if row == nil {
		return nil
	}

	ts, ok := row[timestampColumn]
	if ok {
		if _, isString := ts.(string); !isString {
			log.Debug().Str("column", timestampColumn).Msg("Rejecting row with non-string timestamp")
			return nil
		}
	}

	point := &ChartDataPoint{}
	if isSplitSchema(row) {
		desktop, ok := p.readValues(row, desktopPrefix)
		if !ok {
			return nil
		}
		mobile, ok := p.readValues(row, mobilePrefix)
		if !ok {
			return nil
		}
		point.MetricValues = *desktop
		point.Desktop = desktop
		point.Mobile = mobile
	} else {
		values, ok := p.readValues(row, "")
		if !ok {
			return nil
		}
		point.MetricValues = *values
	}

	point.Date = p.timestampOf(row).Format(time.DateOnly)
	return point
}

func isSplitSchema(row RawRow) bool {
	_, ok := row[desktopPrefix+metricColumns[0].header]
	return ok
}

func (p *Parser) readValues(row RawRow, prefix string) (*MetricValues, bool) {
	values := &MetricValues{}
	for _, col := range metricColumns {
		header := prefix + col.header
		raw, ok := row[header]
		if !ok {
			log.Debug().Str("column", header).Msg("Rejecting row with missing column")
			return nil, false
		}
		if !isScalar(raw) {
			log.Debug().Str("column", header).Msgf("Rejecting row with %T value", raw)
			return nil, false
		}
		col.set(values, toNumber(raw, col.timed, header))
	}
	return values, true
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

// toNumber coerces a string or number cell. Empty, "N/A" and unparseable
// strings become 0; so do non-finite numbers.
func toNumber(v interface{}, timed bool, column string) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		f = parseNumericString(n, timed, column)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumericString(s string, timed bool, column string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, notAvailable) {
		return 0
	}

	multiplier := 1.0
	if timed {
		lower := strings.ToLower(s)
		switch {
		case strings.HasSuffix(lower, "ms"):
			s = strings.TrimSpace(s[:len(s)-2])
		case strings.HasSuffix(lower, "s"):
			s = strings.TrimSpace(s[:len(s)-1])
			multiplier = 1000
		}
	} else {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	if thousands.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Warn().Str("column", column).Str("value", s).Msg("Unparseable number, using 0")
		return 0
	}
	return f * multiplier
}

// ParseTimestamp parses a sheet timestamp, rewriting the last "HH.MM" to
// "HH:MM" first.
func (p *Parser) ParseTimestamp(raw string) (time.Time, bool) {
	normalized := normalizeTimeSeparator(strings.TrimSpace(raw))
	if normalized == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, normalized, p.Location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeTimeSeparator(s string) string {
	matches := dottedTime.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	m := matches[len(matches)-1]
	replacement := s[m[2]:m[3]] + ":" + s[m[4]:m[5]]
	if m[8] >= 0 {
		replacement += ":" + s[m[8]:m[9]]
	}
	return s[:m[0]] + replacement + s[m[1]:]
}

// timestampOf returns the row's timestamp, falling back to the current time.
func (p *Parser) timestampOf(row RawRow) time.Time {
	raw, _ := row[timestampColumn].(string)
	if t, ok := p.ParseTimestamp(raw); ok {
		return t
	}
	log.Warn().Str("timestamp", raw).Msg("Could not parse timestamp, using current time")
	return p.Now().In(p.Location)
}

func urlOf(row RawRow) string {
	for _, col := range urlColumns {
		if s, ok := row[col].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
