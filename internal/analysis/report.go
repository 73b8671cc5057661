package analysis

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReportByCompany groups matched jobs by company name, best first within each company.
func (r *Result) ReportByCompany() map[string][]string {
	report := make(map[string][]string)
	for _, job := range r.Jobs {
		score := 0
		if job.Analysis != nil {
			score = job.Analysis.MatchScore
		}
		name := job.CompanyName()
		report[name] = append(report[name], fmt.Sprintf("%d %s (%s)", score, job.Title, job.JobURL))
	}
	return report
}

func (r *Result) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "job-radar_matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
