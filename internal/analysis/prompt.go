package analysis

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/storage"
)

//go:embed prompt.md
var promptTemplate string

const (
	notSpecified = "Not specified"
	notProvided  = "Not provided"
	noResume     = "\n(Candidate resume not provided for this analysis.)"
)

// BuildPrompt renders the scoring prompt for one job.
func BuildPrompt(profile Profile, job storage.Job, resumeText string) string {
	resumeBlock := noResume
	if resumeText != "" {
		resumeBlock = "\nCandidate's Full Resume:\n---RESUME---\n" + resumeText + "\n---END RESUME---"
	}

	replacer := strings.NewReplacer(
		"{{PREFERRED_TITLE}}", profile.PreferredTitle,
		"{{SKILLS}}", profile.Skills,
		"{{LOCATION}}", profile.Location,
		"{{SALARY}}", profile.Salary,
		"{{REMOTE_PREFERENCE}}", string(profile.RemotePreference),
		"{{RESUME_BLOCK}}", resumeBlock,
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_COMPANY}}", orDefault(job.CompanyName(), notSpecified),
		"{{JOB_LOCATION}}", orDefault(deref(job.Location), notSpecified),
		"{{JOB_DESCRIPTION}}", orDefault(deref(job.Description), notProvided),
		"{{THRESHOLD}}", strconv.Itoa(ai.MatchThreshold),
	)

	return replacer.Replace(promptTemplate)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
