// Package diff computes the structural and line-oriented diffs stored
// on content versions, plus the changed-field summary.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Compute returns a word-level patch between the base body and the new
// body. Identical inputs produce an empty string.
func Compute(baseBody, newBody string) string {
	if baseBody == newBody {
		return ""
	}
	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(baseBody, newBody)
	return dmp.PatchToText(patches)
}

// ComputeLines returns a unified line diff between the base body and
// the new body. Identical inputs produce an empty string.
func ComputeLines(baseBody, newBody string) (string, error) {
	if baseBody == newBody {
		return "", nil
	}
	unified := difflib.UnifiedDiff{
		A:        difflib.SplitLines(baseBody),
		B:        difflib.SplitLines(newBody),
		FromFile: "base",
		ToFile:   "new",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(unified)
	if err != nil {
		return "", fmt.Errorf("failed to compute line diff: %w", err)
	}
	return text, nil
}

// ChangedFields compares a base snapshot against the new body and meta
// and returns the names of fields that differ. Keywords are compared
// as a set; sources by serialized equality; body by direct inequality.
func ChangedFields(baseBody string, baseMeta domain.ContentMeta, newBody string, newMeta domain.ContentMeta) []string {
	changed := []string{}

	if baseMeta.Title != newMeta.Title {
		changed = append(changed, "title")
	}
	if baseMeta.Description != newMeta.Description {
		changed = append(changed, "description")
	}
	if !keywordSetEqual(baseMeta.Keywords, newMeta.Keywords) {
		changed = append(changed, "keywords")
	}
	if baseMeta.Slug != newMeta.Slug {
		changed = append(changed, "slug")
	}
	if serialize(baseMeta.Sources) != serialize(newMeta.Sources) {
		changed = append(changed, "sources")
	}
	if baseBody != newBody {
		changed = append(changed, "body")
	}

	return changed
}

func keywordSetEqual(a, b []string) bool {
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	return serialize(as) == serialize(bs)
}

func serialize(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}
