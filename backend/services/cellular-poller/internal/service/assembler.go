package service

import (
	"strings"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// Assemble zips raw against catalog and merges the parsed serving line on top.
//
// raw must already be flattened in catalog order: the primary diagnostic output first, then
// the counter output of each monitored interface in interface order. Values past the end of
// the catalog are ignored, missing ones are simply absent from the row.
func Assemble(raw []string, catalog []models.Field) (*models.TelemetryRow, error) {
	values := make([]*string, len(raw))
	for i := range raw {
		values[i] = &raw[i]
	}
	return AssembleValues(values, catalog)
}

// AssembleValues is Assemble for output with gaps: a nil entry is a line the device never
// printed and is stored as NULL.
func AssembleValues(raw []*string, catalog []models.Field) (*models.TelemetryRow, error) {
	values := make(map[models.FieldName]*string, len(catalog))
	for i, v := range raw {
		if i >= len(catalog) {
			break
		}
		if v == nil {
			values[catalog[i].Name] = nil
			continue
		}
		values[catalog[i].Name] = decodeValue(*v)
	}

	if serving := values[models.FieldServing]; serving != nil {
		record, err := ParseServing(*serving)
		if err != nil {
			return nil, err
		}
		for name, v := range record.Fields {
			values[name] = v
		}
	}

	return models.NewTelemetryRow(values), nil
}

func decodeValue(v string) *string {
	v = strings.TrimSpace(v)
	if models.IsNullSentinel(v) {
		return nil
	}
	return &v
}
