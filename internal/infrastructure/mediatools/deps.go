package mediatools

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the derivation worker can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckMediaTools reports on ffmpeg and ffprobe. Both are optional: the
// derivation ladder ends in an in-process placeholder, so a host without the
// tools still derives, it just derives placeholders.
func CheckMediaTools(ffmpegPath, ffprobePath string) []Status {
	return CheckBinaries([]Requirement{
		{
			Name:        "ffmpeg",
			Command:     ffmpegPath,
			Description: "thumbnail frame extraction",
			Optional:    true,
		},
		{
			Name:        "ffprobe",
			Command:     ffprobePath,
			Description: "duration probing",
			Optional:    true,
		},
	})
}
