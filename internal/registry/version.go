package registry

import (
	"regexp"
	"strconv"
)

// versionPattern matches Kubernetes API version strings: v1, v2, v1alpha1,
// v1beta3 and so on.
var versionPattern = regexp.MustCompile(`^v(\d+)(?:(alpha|beta)(\d+))?$`)

// stability classes, higher wins.
const (
	stabilityAlpha = iota
	stabilityBeta
	stabilityStable
)

type parsedVersion struct {
	major      int
	stability  int
	prerelease int
}

// parseVersion decomposes an API version string. Unparseable versions rank
// below everything parseable but remain selectable by exact match.
func parseVersion(v string) (parsedVersion, bool) {
	m := versionPattern.FindStringSubmatch(v)
	if m == nil {
		return parsedVersion{}, false
	}
	major, _ := strconv.Atoi(m[1])
	p := parsedVersion{major: major, stability: stabilityStable}
	switch m[2] {
	case "alpha":
		p.stability = stabilityAlpha
	case "beta":
		p.stability = stabilityBeta
	}
	if m[3] != "" {
		p.prerelease, _ = strconv.Atoi(m[3])
	}
	return p, true
}

// preferredVersion picks exactly one action from a non-empty candidate list
// for one (kind, verb). Policy, in order: a stable version outranks any
// alpha or beta one; within the same stability class the larger major
// version wins, then the larger prerelease number; remaining ties keep the
// first-discovered candidate, so repeated calls on the same registry are
// stable.
func preferredVersion(candidates []*Action) *Action {
	best := candidates[0]
	bestParsed, bestOK := parseVersion(best.Version)
	for _, c := range candidates[1:] {
		p, ok := parseVersion(c.Version)
		if !ok {
			continue
		}
		if !bestOK || betterVersion(p, bestParsed) {
			best, bestParsed, bestOK = c, p, true
		}
	}
	return best
}

// betterVersion reports whether a strictly outranks b.
func betterVersion(a, b parsedVersion) bool {
	if a.stability != b.stability {
		return a.stability > b.stability
	}
	if a.major != b.major {
		return a.major > b.major
	}
	return a.prerelease > b.prerelease
}
