package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// sortVersions orders labels ascending. When every label parses as a (loose)
// semantic version the semver ordering is used, so "9.10" sorts before
// "10.0"; otherwise plain lexicographic order is the fallback.
func sortVersions(labels []string) {
	parsed := make(map[string]*semver.Version, len(labels))
	for _, l := range labels {
		v, err := semver.NewVersion(l)
		if err != nil {
			sort.Strings(labels)
			return
		}
		parsed[l] = v
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return parsed[labels[i]].LessThan(parsed[labels[j]])
	})
}

// renderIndex builds the stable-branch README listing one link per known
// version branch, ascending.
func renderIndex(versions []string) string {
	var b strings.Builder
	b.WriteString("# Hotfix archive\n\n")
	b.WriteString("Automatically mirrored hotfixes, one branch per game version.\n")
	if len(versions) == 0 {
		b.WriteString("\nNo versions ingested yet.\n")
		return b.String()
	}
	b.WriteString("\n## Versions\n\n")
	for _, v := range versions {
		fmt.Fprintf(&b, "- [%s](../../tree/version-%s)\n", v, v)
	}
	return b.String()
}

// renderVersionReadme builds the README placed on a version branch.
func renderVersionReadme(label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Hotfixes for version %s\n\n", label)
	b.WriteString("Files under `hotfixes/` are mirrored from the upstream cloud storage\n")
	fmt.Fprintf(&b, "catalog as observed while version %s was live.\n", label)
	return b.String()
}
