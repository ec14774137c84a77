package models

import "strings"

// FieldName identifies one telemetry attribute and its table column.
type FieldName string

// Kind is the storage type of a field.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindBigInt
	KindFloat
)

// Field describes one catalog entry.
type Field struct {
	Name    FieldName
	Kind    Kind
	SQLType string
}

// Flag returns the gsmctl flag that reads this field.
func (f Field) Flag() string {
	return "--" + string(f.Name)
}

const (
	FieldConnState     FieldName = "connstate"
	FieldNetState      FieldName = "netstate"
	FieldIMEI          FieldName = "imei"
	FieldICCID         FieldName = "iccid"
	FieldModel         FieldName = "model"
	FieldManuf         FieldName = "manuf"
	FieldSerial        FieldName = "serial"
	FieldRevision      FieldName = "revision"
	FieldIMSI          FieldName = "imsi"
	FieldSimState      FieldName = "simstate"
	FieldPinState      FieldName = "pinstate"
	FieldSignal        FieldName = "signal"
	FieldRSCP          FieldName = "rscp"
	FieldECIO          FieldName = "ecio"
	FieldRSRP          FieldName = "rsrp"
	FieldSINR          FieldName = "sinr"
	FieldRSRQ          FieldName = "rsrq"
	FieldCellID        FieldName = "cellid"
	FieldOperator      FieldName = "operator"
	FieldOperNum       FieldName = "opernum"
	FieldConnType      FieldName = "conntype"
	FieldTemp          FieldName = "temp"
	FieldNetwork       FieldName = "network"
	FieldServing       FieldName = "serving"
	FieldWiredTxBytes  FieldName = "wired_tx_bytes"
	FieldWiredRxBytes  FieldName = "wired_rx_bytes"
	FieldMobileTxBytes FieldName = "mobile_tx_bytes"
	FieldMobileRxBytes FieldName = "mobile_rx_bytes"
	FieldMCC           FieldName = "mcc"
	FieldMNC           FieldName = "mnc"
	FieldFreqBandInd   FieldName = "freq_band_ind"
)

// DiagnosticFields are read by the primary gsmctl command, in request order.
var DiagnosticFields = []Field{
	{FieldConnState, KindText, "VARCHAR(100)"},
	{FieldNetState, KindText, "VARCHAR(100)"},
	{FieldIMEI, KindText, "VARCHAR(30)"},
	{FieldICCID, KindText, "VARCHAR(30)"},
	{FieldModel, KindText, "VARCHAR(100)"},
	{FieldManuf, KindText, "VARCHAR(100)"},
	{FieldSerial, KindText, "VARCHAR(20)"},
	{FieldRevision, KindText, "VARCHAR(20)"},
	{FieldIMSI, KindText, "VARCHAR(20)"},
	{FieldSimState, KindText, "VARCHAR(20)"},
	{FieldPinState, KindText, "VARCHAR(20)"},
	{FieldSignal, KindInt, "INTEGER"},
	{FieldRSCP, KindText, "VARCHAR(100)"},
	{FieldECIO, KindText, "VARCHAR(100)"},
	{FieldRSRP, KindInt, "INTEGER"},
	{FieldSINR, KindFloat, "FLOAT"},
	{FieldRSRQ, KindFloat, "FLOAT"},
	{FieldCellID, KindInt, "INTEGER"},
	{FieldOperator, KindText, "VARCHAR(100)"},
	{FieldOperNum, KindInt, "INTEGER"},
	{FieldConnType, KindText, "VARCHAR(20)"},
	{FieldTemp, KindInt, "INTEGER"},
	{FieldNetwork, KindText, "VARCHAR(200)"},
	{FieldServing, KindText, "VARCHAR(200)"},
}

// CounterFields are the byte counters, one sent/received pair per monitored interface in
// interface order (wired WAN first, then mobile).
var CounterFields = []Field{
	{FieldWiredTxBytes, KindBigInt, "BIGINT"},
	{FieldWiredRxBytes, KindBigInt, "BIGINT"},
	{FieldMobileTxBytes, KindBigInt, "BIGINT"},
	{FieldMobileRxBytes, KindBigInt, "BIGINT"},
}

// ServingFields are only ever populated from the parsed serving line.
var ServingFields = []Field{
	{FieldMCC, KindInt, "INTEGER"},
	{FieldMNC, KindInt, "INTEGER"},
	{FieldFreqBandInd, KindInt, "INTEGER"},
}

// Catalog is the full ordered field list. Its order is the positional order of a raw sample
// and the column order of the table.
var Catalog = concat(DiagnosticFields, CounterFields, ServingFields)

var catalogIndex = func() map[FieldName]int {
	idx := make(map[FieldName]int, len(Catalog))
	for i, f := range Catalog {
		idx[f.Name] = i
	}
	return idx
}()

// Lookup returns the catalog entry for name.
func Lookup(name FieldName) (Field, bool) {
	i, ok := catalogIndex[name]
	if !ok {
		return Field{}, false
	}
	return Catalog[i], true
}

// InCatalog reports whether name is a persisted field.
func InCatalog(name FieldName) bool {
	_, ok := catalogIndex[name]
	return ok
}

// IsNullSentinel reports whether a device value stands for "no value".
func IsNullSentinel(v string) bool {
	return v == "-" || v == "N/A"
}

// TelemetryRow is one poll cycle's decoded values. A nil value is SQL NULL.
// Rows are built once and not modified afterwards.
type TelemetryRow struct {
	values map[FieldName]*string
}

// NewTelemetryRow copies values into a new row, keeping only catalog fields.
func NewTelemetryRow(values map[FieldName]*string) *TelemetryRow {
	row := &TelemetryRow{values: make(map[FieldName]*string, len(values))}
	for name, v := range values {
		if !InCatalog(name) {
			continue
		}
		if v != nil {
			s := *v
			v = &s
		}
		row.values[name] = v
	}
	return row
}

// Get returns the value of name; ok is false for NULL or absent fields.
func (r *TelemetryRow) Get(name FieldName) (string, bool) {
	v := r.values[name]
	if v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether name was set at all, NULL included.
func (r *TelemetryRow) Has(name FieldName) bool {
	_, ok := r.values[name]
	return ok
}

// Values returns the row in catalog order; absent fields are nil.
func (r *TelemetryRow) Values() []*string {
	out := make([]*string, len(Catalog))
	for i, f := range Catalog {
		if v := r.values[f.Name]; v != nil {
			s := *v
			out[i] = &s
		}
	}
	return out
}

// Map returns a copy of the populated fields keyed by column name, NULLs as nil.
func (r *TelemetryRow) Map() map[string]*string {
	out := make(map[string]*string, len(r.values))
	for name, v := range r.values {
		if v != nil {
			s := *v
			v = &s
		}
		out[string(name)] = v
	}
	return out
}

// String renders the row for debug logs.
func (r *TelemetryRow) String() string {
	var b strings.Builder
	for i, f := range Catalog {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(f.Name))
		b.WriteByte('=')
		if v := r.values[f.Name]; v != nil {
			b.WriteString(*v)
		} else {
			b.WriteString("null")
		}
	}
	return b.String()
}

func concat(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
