package workflow

import (
	"reflect"
	"strings"
	"testing"
)

func TestSortVersionsSemver(t *testing.T) {
	labels := []string{"10.0", "9.10", "31.20", "9.9"}
	sortVersions(labels)
	want := []string{"9.9", "9.10", "10.0", "31.20"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestSortVersionsLexicographicFallback(t *testing.T) {
	// "live" does not parse, so plain string order applies to all.
	labels := []string{"live", "10.0", "9.10"}
	sortVersions(labels)
	want := []string{"10.0", "9.10", "live"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestRenderIndex(t *testing.T) {
	got := renderIndex([]string{"30.10", "31.20"})
	if !strings.Contains(got, "- [30.10](../../tree/version-30.10)") {
		t.Errorf("missing 30.10 link:\n%s", got)
	}
	if !strings.Contains(got, "- [31.20](../../tree/version-31.20)") {
		t.Errorf("missing 31.20 link:\n%s", got)
	}
	if strings.Index(got, "30.10") > strings.Index(got, "31.20") {
		t.Errorf("links out of order:\n%s", got)
	}
}

func TestRenderIndexEmpty(t *testing.T) {
	got := renderIndex(nil)
	if !strings.Contains(got, "No versions ingested yet") {
		t.Errorf("unexpected empty index:\n%s", got)
	}
}

func TestRenderVersionReadme(t *testing.T) {
	got := renderVersionReadme("31.20")
	if !strings.Contains(got, "# Hotfixes for version 31.20") {
		t.Errorf("readme = %q", got)
	}
}
