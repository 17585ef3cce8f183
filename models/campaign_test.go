package models

import "testing"

func TestDecodeFilters(t *testing.T) {
	c := Campaign{FiltersJSON: `{"chat_start_time":"2026-01-01","chat_start_time_cmp":"after","sleep_time":5,"limit":100,"include_categories":["vip"]}`}

	f, err := c.DecodeFilters()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.ChatStartTime != "2026-01-01" || f.ChatStartTimeCmp != "after" {
		t.Fatalf("time bound mismatch: %+v", f)
	}
	if f.SleepTime != 5 || f.Limit != 100 {
		t.Fatalf("numeric mismatch: %+v", f)
	}
	if len(f.IncludeCategories) != 1 || f.IncludeCategories[0] != "vip" {
		t.Fatalf("category mismatch: %+v", f)
	}
}

func TestDecodeFiltersEmptyBlob(t *testing.T) {
	c := Campaign{}
	f, err := c.DecodeFilters()
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if f.Limit != 0 || f.SleepTime != 0 || f.IncludeCategories != nil || f.ChatStartTime != "" {
		t.Fatalf("empty blob should decode to zero value: %+v", f)
	}
}

func TestDecodeFiltersRejectsUnknownFields(t *testing.T) {
	c := Campaign{FiltersJSON: `{"limit":10,"unexpected_field":true}`}
	if _, err := c.DecodeFilters(); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestDecodeQuietHoursRejectsUnknownFields(t *testing.T) {
	c := Campaign{QuietHoursJSON: `{"start":"22:00","end":"08:00","tz":"UTC"}`}
	if _, err := c.DecodeQuietHours(); err == nil {
		t.Fatal("unknown field accepted")
	}

	c.QuietHoursJSON = `{"start":"22:00","end":"08:00"}`
	q, err := c.DecodeQuietHours()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Start != "22:00" || q.End != "08:00" {
		t.Fatalf("quiet hours mismatch: %+v", q)
	}
}

func TestDecodeNudgeSettingsRejectsUnknownFields(t *testing.T) {
	c := Campaign{NudgeSettingsJSON: `{"message":"still there?","delay_hours":24,"retries":3}`}
	if _, err := c.DecodeNudgeSettings(); err == nil {
		t.Fatal("unknown field accepted")
	}

	c.NudgeSettingsJSON = `{"message":"still there?","delay_hours":24}`
	n, err := c.DecodeNudgeSettings()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n.Message != "still there?" || n.DelayHours != 24 {
		t.Fatalf("nudge mismatch: %+v", n)
	}
}
