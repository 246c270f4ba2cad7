package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-activity-tracker/internal/model"
)

func reportFixture(t *testing.T) []*model.Event {
	t.Helper()
	base := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	specs := []struct {
		project string
		dur     time.Duration
		status  string
	}{
		{"beta", 30 * time.Minute, ""},
		{"alpha", time.Hour, ""},
		{"beta", 45 * time.Minute, ""},
		{"", 10 * time.Minute, ""},
		{"alpha", 0, "running"},
	}
	var out []*model.Event
	for i, s := range specs {
		data := map[string]any{}
		if s.project != "" {
			data["project"] = s.project
		}
		if s.status != "" {
			data["status"] = s.status
		}
		e, err := model.New(nil, model.Fields{
			Timestamp: base.Add(time.Duration(i) * 2 * time.Hour),
			Duration:  s.dur,
			Data:      data,
		})
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, e)
	}
	return out
}

func TestAggregate(t *testing.T) {
	totals, grand := aggregate(reportFixture(t))

	want := []struct {
		project string
		dur     time.Duration
	}{
		{"(none)", 10 * time.Minute},
		{"alpha", time.Hour},
		{"beta", 75 * time.Minute},
	}
	if len(totals) != len(want) {
		t.Fatalf("got %d projects, want %d: %+v", len(totals), len(want), totals)
	}
	for i, w := range want {
		if totals[i].Project != w.project || totals[i].Duration != w.dur {
			t.Errorf("totals[%d] = %s %v, want %s %v", i, totals[i].Project, totals[i].Duration, w.project, w.dur)
		}
	}
	if grand != 145*time.Minute {
		t.Errorf("grand total = %v, want 2h25m", grand)
	}
}

func TestWriteReport_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, "md", "2024-W11", reportFixture(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Week 2024-W11\n") {
		t.Errorf("missing week header:\n%s", out)
	}
	if !strings.Contains(out, "Total               2h 25m") {
		t.Errorf("missing total line:\n%s", out)
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, "json", "2024-W11", reportFixture(t)); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Week     string `json:"week"`
		Projects []struct {
			Project         string `json:"project"`
			DurationMinutes int64  `json:"duration_minutes"`
		} `json:"projects"`
		TotalMinutes int64 `json:"total_minutes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Week != "2024-W11" || got.TotalMinutes != 145 || len(got.Projects) != 3 {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.Projects[2].Project != "beta" || got.Projects[2].DurationMinutes != 75 {
		t.Errorf("beta = %+v", got.Projects[2])
	}
}

func TestWriteReport_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, "csv", "2024-W11", reportFixture(t)); err != nil {
		t.Fatal(err)
	}
	want := "project,duration_minutes\n(none),10\nalpha,60\nbeta,75\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
