package analysis

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/storage"
)

func TestReportByCompany(t *testing.T) {
	result := &Result{Jobs: []storage.Job{
		{Title: "Go Engineer", JobURL: "https://acme.example/1", Company: &storage.CompanyRef{Name: "Acme"}, Analysis: &ai.Analysis{MatchScore: 95, IsMatch: true}},
		{Title: "SRE", JobURL: "https://globex.example/2", Company: &storage.CompanyRef{Name: "Globex"}, Analysis: &ai.Analysis{MatchScore: 88, IsMatch: true}},
		{Title: "Backend Engineer", JobURL: "https://acme.example/3", Company: &storage.CompanyRef{Name: "Acme"}, Analysis: &ai.Analysis{MatchScore: 71, IsMatch: true}},
	}}

	want := map[string][]string{
		"Acme":   {"95 Go Engineer (https://acme.example/1)", "71 Backend Engineer (https://acme.example/3)"},
		"Globex": {"88 SRE (https://globex.example/2)"},
	}
	if diff := cmp.Diff(want, result.ReportByCompany()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	result := &Result{
		Jobs:    []storage.Job{{ID: "j1", Title: "Go Engineer", Analysis: &ai.Analysis{MatchScore: 90, Reasoning: "fit", IsMatch: true}}},
		Summary: Summary{Loaded: 2, Analyzed: 2, Matched: 1},
	}

	name, err := result.DumpToTmpFile()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	t.Cleanup(func() { os.Remove(name) })

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var got Result
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if got.Summary != result.Summary || len(got.Jobs) != 1 || got.Jobs[0].Analysis.MatchScore != 90 {
		t.Fatalf("unexpected dump contents: %s", data)
	}
}
