package service

import (
	"errors"
	"testing"

	"cellmon/backend/services/cellular-poller/internal/models"
)

func assertFields(t *testing.T, got map[models.FieldName]*string, want map[models.FieldName]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d: %v", len(want), len(got), keys(got))
	}
	for name, v := range want {
		g, ok := got[name]
		if !ok {
			t.Fatalf("missing field %s", name)
		}
		if g == nil {
			t.Fatalf("field %s: expected %q, got null", name, v)
		}
		if *g != v {
			t.Fatalf("field %s: expected %q, got %q", name, v, *g)
		}
	}
}

func keys(m map[models.FieldName]*string) []models.FieldName {
	out := make([]models.FieldName, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestParseServingKnownModes(t *testing.T) {
	cases := []struct {
		name string
		line string
		mode Mode
		want map[models.FieldName]string
	}{
		{
			name: "lte",
			line: lteServingLine,
			mode: ModeLTE,
			want: map[models.FieldName]string{
				models.FieldMCC:         "310",
				models.FieldMNC:         "260",
				models.FieldCellID:      "6699",
				models.FieldFreqBandInd: "7",
				models.FieldRSRP:        "-10.0",
				models.FieldRSRQ:        "-60.5",
				models.FieldSINR:        "5.0",
			},
		},
		{
			name: "gsm",
			line: `+QENG: "servingcell","NOCONN","GSM",246,03,"1F4","ABC",21,85,0,-65,0,-66,0,40,40,1,-,-,-,-,-,-,-,-,-,-`,
			mode: ModeGSM,
			want: map[models.FieldName]string{
				models.FieldMCC:    "246",
				models.FieldMNC:    "03",
				models.FieldCellID: "2748",
			},
		},
		{
			name: "wcdma",
			line: `+QENG: "servingcell","CONNECT","WCDMA",310,410,1A,2B3C,10737,102,1,-85,-7,-,-,-,-,-`,
			mode: ModeWCDMA,
			want: map[models.FieldName]string{
				models.FieldMCC:    "310",
				models.FieldMNC:    "410",
				models.FieldCellID: "11068",
				models.FieldRSCP:   "-85",
				models.FieldECIO:   "-7",
			},
		},
		{
			name: "tdscdma",
			line: `serving: "servingcell" , "NOCONN" , "TDSCDMA" , 460 , 00 , 2A , FF , 10055 , -70 , -80 , -5`,
			mode: ModeTDSCDMA,
			want: map[models.FieldName]string{
				models.FieldMCC:    "460",
				models.FieldMNC:    "00",
				models.FieldCellID: "255",
				models.FieldRSCP:   "-80",
				models.FieldECIO:   "-5",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := ParseServing(tc.line)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if rec.Mode != tc.mode {
				t.Fatalf("expected mode %s, got %s", tc.mode, rec.Mode)
			}
			assertFields(t, rec.Fields, tc.want)
		})
	}
}

func TestParseServingUnknownOrMissing(t *testing.T) {
	lines := []string{
		"",
		"serving:",
		"serving:   ",
		"no label here",
		"serving: up, conn",
		`serving: "servingcell","SEARCH","NR5G-SA","FDD",310,260,"1A2B"`,
		`serving: "servingcell","SEARCH",-`,
		`serving: "servingcell","LIMSRV","lte",0,310`,
	}
	for _, line := range lines {
		rec, err := ParseServing(line)
		if err != nil {
			t.Fatalf("%q: expected no error, got %v", line, err)
		}
		if rec.Mode != ModeUnknown {
			t.Fatalf("%q: expected unknown mode, got %s", line, rec.Mode)
		}
		if len(rec.Fields) != 0 {
			t.Fatalf("%q: expected empty mapping, got %v", line, keys(rec.Fields))
		}
	}
}

func TestParseServingNullSentinels(t *testing.T) {
	line := `serving: "servingcell","NOCONN","LTE","FDD",N/A,"-",-,99,1800,3,5,5,ABCD,-100,"N/A",-70,N/A,-`
	rec, err := ParseServing(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, name := range []models.FieldName{models.FieldMCC, models.FieldMNC, models.FieldCellID, models.FieldRSRQ, models.FieldSINR} {
		v, ok := rec.Fields[name]
		if !ok {
			t.Fatalf("expected %s to be present", name)
		}
		if v != nil {
			t.Fatalf("expected %s to be null, got %q", name, *v)
		}
	}
	if v := rec.Fields[models.FieldRSRP]; v == nil || *v != "-100" {
		t.Fatalf("rsrp should survive next to sentinels")
	}
}

func TestParseServingShortLineZipsWhatIsThere(t *testing.T) {
	rec, err := ParseServing(`serving: "servingcell","NOCONN","LTE","FDD",310,260`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assertFields(t, rec.Fields, map[models.FieldName]string{
		models.FieldMCC: "310",
		models.FieldMNC: "260",
	})
}

func TestParseServingRejectsNonHexCellID(t *testing.T) {
	_, err := ParseServing(`serving: "servingcell","NOCONN","LTE","FDD",310,260,"XYZ",99`)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Field != models.FieldCellID || parseErr.Value != "XYZ" {
		t.Fatalf("unexpected parse error details: %+v", parseErr)
	}
}

func TestParseServingAcceptsHexPrefix(t *testing.T) {
	for _, cell := range []string{"0x1A2B", "0X1a2b", "1A2B"} {
		rec, err := ParseServing(`serving: "servingcell","NOCONN","LTE","FDD",310,260,"` + cell + `",99`)
		if err != nil {
			t.Fatalf("cellid %q: %v", cell, err)
		}
		if got := rec.Fields[models.FieldCellID]; got == nil || *got != "6699" {
			t.Fatalf("cellid %q: expected 6699, got %v", cell, got)
		}
	}
	for _, cell := range []string{"0x", "0xZZ", "x1A"} {
		if _, err := ParseServing(`serving: "servingcell","NOCONN","LTE","FDD",310,260,"` + cell + `",99`); err == nil {
			t.Fatalf("cellid %q: expected parse error", cell)
		}
	}
}

func TestModeLayouts(t *testing.T) {
	for _, m := range []Mode{ModeGSM, ModeWCDMA, ModeLTE, ModeTDSCDMA} {
		layout := m.Layout()
		if len(layout) < 2 || layout[0] != "state" || layout[1] != "mode" {
			t.Fatalf("%s layout must start with state, mode", m)
		}
		if ParseMode(m.String()) != m {
			t.Fatalf("%s does not round trip through ParseMode", m)
		}
	}
	if ModeUnknown.Layout() != nil {
		t.Fatalf("unknown mode has no layout")
	}
}
