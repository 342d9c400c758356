package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/julianshen/repodoc/internal/log"
)

// ErrNoJSON is returned when a reply contains no {...} object.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON parses the object spanning from the first '{' to the last
// '}' of resp. JSON5 is accepted since models often emit trailing commas,
// single quotes or comments.
func ExtractJSON(resp string) (map[string]any, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, ErrNoJSON
	}

	var out map[string]any
	if err := json5.Unmarshal([]byte(resp[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("parsing JSON5: %w", err)
	}
	return out, nil
}

var (
	startUMLRe = regexp.MustCompile(`(?i)@startuml`)
	endUMLRe   = regexp.MustCompile(`(?i)@enduml`)
)

// ExtractPlantUML returns the @startuml ... @enduml block of resp, markers
// included and matched case-insensitively. Without such a block the
// trimmed reply is returned.
func ExtractPlantUML(resp string) string {
	startLoc := startUMLRe.FindStringIndex(resp)
	endLoc := endUMLRe.FindStringIndex(resp)
	if startLoc == nil || endLoc == nil || startLoc[0] >= endLoc[0] {
		log.WithComponent("llm").Warn().Msg("no PlantUML block in response, using whole reply")
		return strings.TrimSpace(resp)
	}
	return strings.TrimSpace(resp[startLoc[0]:endLoc[1]])
}
