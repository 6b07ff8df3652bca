package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSortEntries(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []Entry{
		{ID: "c", CreatedAt: base.Add(2 * time.Second)},
		{ID: "b", CreatedAt: base},
		{ID: "a", CreatedAt: base},
		{ID: "d", CreatedAt: base.Add(time.Second)},
	}
	SortEntries(entries)

	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	if strings.Join(got, ",") != "a,b,d,c" {
		t.Errorf("order = %v, want [a b d c]", got)
	}
}

func TestEntryJSON_OmitsOutcomeUntilSet(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	e := Entry{ID: "flt_1", Status: EntryStatusPending, PayloadRef: "p", CreatedAt: now, UpdatedAt: now}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, key := range []string{`"id":"flt_1"`, `"status":"PENDING"`, `"payloadRef":"p"`, `"createdAt":"2026-01-02T03:04:05.000000006Z"`} {
		if !strings.Contains(s, key) {
			t.Errorf("missing %s in %s", key, s)
		}
	}
	if strings.Contains(s, "result") || strings.Contains(s, `"error"`) {
		t.Errorf("outcome fields should be omitted: %s", s)
	}

	e.Status = EntryStatusSucceeded
	e.Result = "ok"
	data, _ = json.Marshal(e)
	if !strings.Contains(string(data), `"result":"ok"`) {
		t.Errorf("expected result in %s", data)
	}
}
