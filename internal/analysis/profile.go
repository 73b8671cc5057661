package analysis

import (
	"fmt"
	"strings"
)

type RemotePreference string

const (
	RemoteAny    RemotePreference = "Any"
	RemoteOnly   RemotePreference = "Remote"
	RemoteOnsite RemotePreference = "Onsite"
)

// Profile describes the candidate a run scores jobs for.
type Profile struct {
	PreferredTitle   string           `json:"preferredTitle" mapstructure:"preferred-title"`
	Skills           string           `json:"skills" mapstructure:"skills"`
	Location         string           `json:"location" mapstructure:"location"`
	Salary           string           `json:"salary" mapstructure:"salary"`
	RemotePreference RemotePreference `json:"remotePreference" mapstructure:"remote-preference"`
	ResumeURL        string           `json:"resumeUrl,omitempty" mapstructure:"resume-url"`
}

// ValidationError reports malformed request input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Normalize canonicalizes the remote preference. An empty preference becomes Any.
func (p *Profile) Normalize() error {
	switch strings.ToLower(strings.TrimSpace(string(p.RemotePreference))) {
	case "", "any":
		p.RemotePreference = RemoteAny
	case "remote":
		p.RemotePreference = RemoteOnly
	case "onsite", "on-site":
		p.RemotePreference = RemoteOnsite
	default:
		return &ValidationError{
			Field:  "remotePreference",
			Reason: fmt.Sprintf("must be one of Any, Remote, Onsite, got %q", p.RemotePreference),
		}
	}

	p.ResumeURL = strings.TrimSpace(p.ResumeURL)
	return nil
}
