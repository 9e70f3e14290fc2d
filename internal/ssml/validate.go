package ssml

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	validRates       = set("x-slow", "slow", "medium", "fast", "x-fast")
	validPitches     = set("x-low", "low", "medium", "high", "x-high")
	validVolumes     = set("silent", "x-soft", "soft", "medium", "loud", "x-loud")
	validEmphasis    = set("strong", "moderate", "reduced")
	validBreakLevels = set("none", "x-weak", "weak", "medium", "strong", "x-strong")

	prosodyTag  = regexp.MustCompile(`<prosody\s+([^>]+)>`)
	emphasisTag = regexp.MustCompile(`<emphasis\s+([^>]+)>`)
	breakTag    = regexp.MustCompile(`<break\s+([^>]+?)\s*/>`)

	speakRoot = regexp.MustCompile(`^\s*<speak[\s/>]`)

	versionMarker   = `version="` + Version + `"`
	namespaceMarker = `xmlns="` + Namespace + `"`
)

// ValidationError aggregates every violation found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "ssml validation failed: " + strings.Join(e.Violations, "; ")
}

// Validate inspects doc and returns every violation found, in check order.
// An empty result means no violations. Unknown elements and attributes are
// ignored; only known attribute values are checked.
func Validate(doc string) []string {
	var violations []string

	if !speakRoot.MatchString(doc) {
		violations = append(violations, "SSML must start with <speak> element")
	}
	if !strings.Contains(doc, versionMarker) {
		violations = append(violations, fmt.Sprintf("Missing %s attribute in <speak> element", versionMarker))
	}
	if !strings.Contains(doc, namespaceMarker) {
		violations = append(violations, "Missing xmlns attribute in <speak> element")
	}

	for _, m := range prosodyTag.FindAllStringSubmatch(doc, -1) {
		block := m[1]
		if v, ok := attrValue(block, "rate"); ok && !rateOK(v) {
			violations = append(violations, "Invalid prosody rate: "+v)
		}
		if v, ok := attrValue(block, "pitch"); ok && !pitchOK(v) {
			violations = append(violations, "Invalid prosody pitch: "+v)
		}
		if v, ok := attrValue(block, "volume"); ok && !volumeOK(v) {
			violations = append(violations, "Invalid prosody volume: "+v)
		}
	}

	for _, m := range emphasisTag.FindAllStringSubmatch(doc, -1) {
		if v, ok := attrValue(m[1], "level"); ok && !validEmphasis[v] {
			violations = append(violations, "Invalid emphasis level: "+v)
		}
	}

	for _, m := range breakTag.FindAllStringSubmatch(doc, -1) {
		block := m[1]
		if v, ok := attrValue(block, "time"); ok && !hasAnySuffix(v, "s", "ms") {
			violations = append(violations, "Invalid break time format: "+v)
		}
		if v, ok := attrValue(block, "strength"); ok && !validBreakLevels[v] {
			violations = append(violations, "Invalid break strength: "+v)
		}
	}

	return violations
}

// Check runs Validate. In strict mode any violation is returned as a single
// *ValidationError; otherwise the list is returned with a nil error.
func Check(doc string, strict bool) ([]string, error) {
	violations := Validate(doc)
	if strict && len(violations) > 0 {
		return violations, &ValidationError{Violations: violations}
	}
	return violations, nil
}

// ValidateProsody checks standalone prosody values with the same rules
// Validate applies inside documents. Empty values are skipped.
func ValidateProsody(p Prosody) []string {
	var violations []string
	if p.Rate != "" && !rateOK(p.Rate) {
		violations = append(violations, "Invalid prosody rate: "+p.Rate)
	}
	if p.Pitch != "" && !pitchOK(p.Pitch) {
		violations = append(violations, "Invalid prosody pitch: "+p.Pitch)
	}
	if p.Volume != "" && !volumeOK(p.Volume) {
		violations = append(violations, "Invalid prosody volume: "+p.Volume)
	}
	return violations
}

func rateOK(v string) bool   { return validRates[v] || hasAnySuffix(v, "%", "Hz") }
func pitchOK(v string) bool  { return validPitches[v] || hasAnySuffix(v, "Hz", "st") }
func volumeOK(v string) bool { return validVolumes[v] || hasAnySuffix(v, "dB") }

// attrValue finds name="value" inside an attribute block. The name must be a
// whole attribute name, so "rate" does not match "xrate".
func attrValue(block, name string) (string, bool) {
	m := attrPatterns[name].FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var attrPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, name := range []string{"rate", "pitch", "volume", "level", "time", "strength"} {
		out[name] = regexp.MustCompile(`(?:^|\s)` + name + `\s*=\s*"([^"]*)"`)
	}
	return out
}()

func hasAnySuffix(v string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(v, s) {
			return true
		}
	}
	return false
}

func set(values ...string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
