package service

import (
	"strconv"
	"strings"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// Mode is the radio access technology reported on a serving line.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeGSM
	ModeWCDMA
	ModeLTE
	ModeTDSCDMA
)

var modeNames = map[string]Mode{
	"GSM":     ModeGSM,
	"WCDMA":   ModeWCDMA,
	"LTE":     ModeLTE,
	"TDSCDMA": ModeTDSCDMA,
}

// Positional layouts of the serving line per mode. Position 0 is the state token that
// follows the label, position 1 the mode itself.
var (
	gsmLayout = []models.FieldName{
		"state", "mode", models.FieldMCC, models.FieldMNC, "lac", models.FieldCellID, "bsic", "arfcn",
		"band", "rxlev", "txp", "rla", "drx", "c1", "c2", "gprs", "tch", "ts", "ta", "maio", "hsn",
		"rxlevsub", "rxlevfull", "rxqualsub", "rxqualfull", "voicecodec",
	}
	wcdmaLayout = []models.FieldName{
		"state", "mode", models.FieldMCC, models.FieldMNC, "lac", models.FieldCellID, "uarfcn", "psc",
		"rac", models.FieldRSCP, models.FieldECIO, "phych", "sf", "slot", "speech_code", "comMod",
	}
	lteLayout = []models.FieldName{
		"state", "mode", "is_tdd", models.FieldMCC, models.FieldMNC, models.FieldCellID, "pcid",
		"earfcn", models.FieldFreqBandInd, "ul_bandwidth", "dll_bandwidth", "tac", models.FieldRSRP,
		models.FieldRSRQ, "rssi", models.FieldSINR, "srxlev",
	}
	tdscdmaLayout = []models.FieldName{
		"state", "mode", models.FieldMCC, models.FieldMNC, "lac", models.FieldCellID, "pfreq", "rssi",
		models.FieldRSCP, models.FieldECIO,
	}
)

// ParseMode maps a mode token to a Mode; anything unrecognised is ModeUnknown.
func ParseMode(token string) Mode {
	return modeNames[token]
}

// Layout returns the ordered serving fields of m, nil for ModeUnknown.
func (m Mode) Layout() []models.FieldName {
	switch m {
	case ModeGSM:
		return gsmLayout
	case ModeWCDMA:
		return wcdmaLayout
	case ModeLTE:
		return lteLayout
	case ModeTDSCDMA:
		return tdscdmaLayout
	default:
		return nil
	}
}

// String returns the mode as reported by the device.
func (m Mode) String() string {
	switch m {
	case ModeGSM:
		return "GSM"
	case ModeWCDMA:
		return "WCDMA"
	case ModeLTE:
		return "LTE"
	case ModeTDSCDMA:
		return "TDSCDMA"
	default:
		return "Unknown"
	}
}

// ServingRecord is the decoded serving line, already reduced to catalog fields.
type ServingRecord struct {
	Mode   Mode
	Fields map[models.FieldName]*string
}

// ParseServing decodes one `serving: <state>, <state>, <mode>, ...` line.
//
// Unknown or missing serving information is normal and yields an empty ModeUnknown record.
// The only error is a cellid that is not hexadecimal.
func ParseServing(line string) (ServingRecord, error) {
	empty := ServingRecord{Mode: ModeUnknown, Fields: map[models.FieldName]*string{}}

	_, rest, found := strings.Cut(line, ":")
	if !found || strings.TrimSpace(rest) == "" {
		return empty, nil
	}

	tokens := splitTokens(rest)
	if len(tokens) < 3 || tokens[2] == nil {
		return empty, nil
	}

	mode := ParseMode(*tokens[2])
	layout := mode.Layout()
	if layout == nil {
		return empty, nil
	}

	fields := make(map[models.FieldName]*string, len(layout))
	for i, name := range layout {
		if i+1 >= len(tokens) {
			break
		}
		fields[name] = tokens[i+1]
	}

	if cell, ok := fields[models.FieldCellID]; ok && cell != nil {
		id, err := parseHex(*cell)
		if err != nil {
			return ServingRecord{}, &ParseError{Field: models.FieldCellID, Value: *cell, Err: err}
		}
		dec := strconv.FormatInt(id, 10)
		fields[models.FieldCellID] = &dec
	}

	for name := range fields {
		if !models.InCatalog(name) {
			delete(fields, name)
		}
	}

	return ServingRecord{Mode: mode, Fields: fields}, nil
}

// parseHex parses a base 16 integer with an optional sign and 0x prefix.
func parseHex(s string) (int64, error) {
	digits := s
	sign := ""
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		sign, digits = digits[:1], digits[1:]
	}
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	return strconv.ParseInt(sign+digits, 16, 64)
}

// splitTokens splits on commas, trims whitespace then quotes, and maps null sentinels to nil.
func splitTokens(s string) []*string {
	parts := strings.Split(s, ",")
	out := make([]*string, len(parts))
	for i, p := range parts {
		v := strings.Trim(strings.TrimSpace(p), `"`)
		if models.IsNullSentinel(v) {
			continue
		}
		out[i] = &v
	}
	return out
}
