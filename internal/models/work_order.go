package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Date-times without a zone are wall-clock local time; bare dates are UTC
// midnight.
var timestampLayouts = []struct {
	layout string
	loc    *time.Location
}{
	{time.RFC3339Nano, time.UTC},
	{"2006-01-02T15:04:05", time.Local},
	{"2006-01-02", time.UTC},
}

// Timestamp accepts the shapes the work-order feed produces: RFC 3339
// strings, bare dates and epoch milliseconds. A value that cannot be parsed
// decodes without error and stays invalid.
type Timestamp struct {
	Time time.Time
	// Set reports a non-empty, non-zero value in the payload.
	Set   bool
	Valid bool
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		t.Set = s != ""
		for _, l := range timestampLayouts {
			if parsed, err := time.ParseInLocation(l.layout, s, l.loc); err == nil {
				t.Time, t.Valid = parsed, true
				break
			}
		}
		return nil
	}

	ms, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	t.Set = ms != 0
	t.Time, t.Valid = time.UnixMilli(int64(ms)), true
	return nil
}

// WorkOrder is a maintenance event; fields the insights do not use are dropped.
type WorkOrder struct {
	MachineID string    `json:"machineId"`
	CreatedAt Timestamp `json:"createdAt"`
	Time      Timestamp `json:"_time"`
}

// EffectiveTime prefers createdAt and falls back to _time when createdAt is
// absent or empty.
func (w WorkOrder) EffectiveTime() (time.Time, bool) {
	ts := w.Time
	if w.CreatedAt.Set {
		ts = w.CreatedAt
	}
	return ts.Time, ts.Valid
}
