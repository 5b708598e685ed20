package client

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func sampleTree(t *testing.T) []*FolderNode {
	t.Helper()
	tree, err := Normalize([]RawFolder{
		{
			ID: "f1", Title: "Gut Health", Status: "live",
			FileCount: intPtr(2),
			Content: []RawContent{
				{
					ID: "c1", Title: "Diet Plan", Status: "live",
					Reviewer: strPtr("Dr. Alvarez"), Price: strPtr("free"),
					Messages: []RawMessage{
						{ID: "m1", Title: "Week one overview"},
						{ID: "m2", Title: "Shopping list"},
					},
				},
				{ID: "c2", Title: "IBS Overview", Status: "live"},
			},
			Subfolders: []RawFolder{
				{ID: "f1a", Title: "Recipes", Status: "raw"},
			},
		},
		{ID: "f2", Title: "Sleep", Status: "raw"},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return tree
}

func TestNormalizeDefaults(t *testing.T) {
	tree := sampleTree(t)

	c2 := tree[0].Content[1]
	if c2.Reviewer != "-" {
		t.Errorf("Reviewer = %q, want %q", c2.Reviewer, "-")
	}
	if c2.Price != "-" {
		t.Errorf("Price = %q, want %q", c2.Price, "-")
	}
	if c2.FileCount != 0 {
		t.Errorf("FileCount = %d, want 0", c2.FileCount)
	}

	c1 := tree[0].Content[0]
	if c1.Reviewer != "Dr. Alvarez" || c1.Price != "free" {
		t.Errorf("present metadata overwritten: reviewer=%q price=%q", c1.Reviewer, c1.Price)
	}
	if tree[0].FileCount != 2 {
		t.Errorf("folder FileCount = %d, want 2", tree[0].FileCount)
	}
}

func TestNormalizeRejectsMissingIdentity(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawFolder
	}{
		{"folder without id", []RawFolder{{Title: "x"}}},
		{"folder without title", []RawFolder{{ID: "f1"}}},
		{"content without id", []RawFolder{{ID: "f1", Title: "x", Content: []RawContent{{Title: "y"}}}}},
		{"content without title", []RawFolder{{ID: "f1", Title: "x", Content: []RawContent{{ID: "c1"}}}}},
		{"message without title", []RawFolder{{ID: "f1", Title: "x", Content: []RawContent{
			{ID: "c1", Title: "y", Messages: []RawMessage{{ID: "m1"}}},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.raw); err == nil {
				t.Error("Normalize() should reject missing id/title")
			}
		})
	}
}

func TestFilterKeepsMatchingBranchesOnly(t *testing.T) {
	tree := sampleTree(t)

	got := Filter(tree, "diet")
	if len(got) != 1 {
		t.Fatalf("Filter() returned %d roots, want 1", len(got))
	}
	root := got[0]
	if root.ID != "f1" {
		t.Fatalf("kept root = %s, want f1", root.ID)
	}
	// Gut Health itself does not match; it survives only for Diet Plan,
	// so its non-matching subfolder and content are pruned
	if len(root.Subfolders) != 0 {
		t.Errorf("non-matching subfolders kept: %d", len(root.Subfolders))
	}
	if len(root.Content) != 1 || root.Content[0].ID != "c1" {
		t.Fatalf("Content = %+v, want only c1", root.Content)
	}
	if len(root.Content[0].Messages) != 0 {
		t.Errorf("non-matching messages kept: %d", len(root.Content[0].Messages))
	}
}

func TestFilterMatchIsCaseInsensitive(t *testing.T) {
	tree := sampleTree(t)
	if got := Filter(tree, "SLEEP"); len(got) != 1 || got[0].ID != "f2" {
		t.Errorf("Filter(SLEEP) = %+v, want [f2]", got)
	}
}

func TestFilterMatchingMessageKeepsAncestors(t *testing.T) {
	tree := sampleTree(t)

	got := Filter(tree, "shopping")
	if len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("roots = %+v, want [f1]", got)
	}
	content := got[0].Content
	if len(content) != 1 || content[0].ID != "c1" {
		t.Fatalf("content = %+v, want only c1", content)
	}
	msgs := content[0].Messages
	if len(msgs) != 1 || msgs[0].ID != "m2" {
		t.Errorf("messages = %+v, want only m2", msgs)
	}
}

func TestFilterEmptyTermReturnsTreeUnchanged(t *testing.T) {
	tree := sampleTree(t)
	got := Filter(tree, "")
	if len(got) != len(tree) {
		t.Fatalf("len = %d, want %d", len(got), len(tree))
	}
	for i := range got {
		if got[i] != tree[i] {
			t.Errorf("root %d rebuilt on empty term", i)
		}
	}
}

func TestFilterNoMatchReturnsEmpty(t *testing.T) {
	tree := sampleTree(t)
	if got := Filter(tree, "zzz-no-such-term"); len(got) != 0 {
		t.Errorf("Filter() = %+v, want empty", got)
	}
}

// Every node present after filtering either matches the term itself or
// has a matching descendant.
func TestFilterProperty(t *testing.T) {
	tree := sampleTree(t)
	for _, term := range []string{"diet", "gut", "recipes", "overview", "e"} {
		needle := strings.ToLower(term)
		for _, root := range Filter(tree, term) {
			assertFolderJustified(t, root, needle)
		}
	}
}

func assertFolderJustified(t *testing.T, node *FolderNode, needle string) {
	t.Helper()
	if !strings.Contains(strings.ToLower(node.Title), needle) &&
		len(node.Subfolders) == 0 && len(node.Content) == 0 {
		t.Errorf("folder %s kept for term %q without match or descendants", node.ID, needle)
	}
	for _, sub := range node.Subfolders {
		assertFolderJustified(t, sub, needle)
	}
	for _, c := range node.Content {
		if !strings.Contains(strings.ToLower(c.Title), needle) && len(c.Messages) == 0 {
			t.Errorf("content %s kept for term %q without match or messages", c.ID, needle)
		}
		for _, m := range c.Messages {
			if !strings.Contains(strings.ToLower(m.Title), needle) {
				t.Errorf("message %s kept for term %q without match", m.ID, needle)
			}
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tree := sampleTree(t)
	Filter(tree, "diet")

	if len(tree[0].Subfolders) != 1 || len(tree[0].Content) != 2 {
		t.Error("input tree mutated by Filter")
	}
	if len(tree[0].Content[0].Messages) != 2 {
		t.Error("input messages mutated by Filter")
	}
}

func TestToggleIsInvolution(t *testing.T) {
	e := NewExpansionState()

	for _, id := range []string{"f1", "c2", "leaf-without-children"} {
		e.Toggle(id)
		if !e.IsExpanded(id) {
			t.Errorf("IsExpanded(%s) = false after first toggle", id)
		}
		e.Toggle(id)
		if e.IsExpanded(id) {
			t.Errorf("IsExpanded(%s) = true after second toggle", id)
		}
	}
}

func TestFlattenRespectsExpansion(t *testing.T) {
	tree := sampleTree(t)
	e := NewExpansionState()

	rows := Flatten(tree, e)
	if len(rows) != 2 {
		t.Fatalf("collapsed rows = %d, want 2 roots", len(rows))
	}
	if !rows[0].IsFolder || rows[0].ID != "f1" || rows[0].Depth != 0 {
		t.Errorf("row 0 = %+v", rows[0])
	}

	e.Toggle("f1")
	rows = Flatten(tree, e)
	want := []string{"f1", "f1a", "c1", "c2", "f2"}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, id := range want {
		if rows[i].ID != id {
			t.Errorf("row %d = %s, want %s", i, rows[i].ID, id)
		}
	}

	e.Toggle("c1")
	rows = Flatten(tree, e)
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	wantIDs := []string{"f1", "f1a", "c1", "m1", "m2", "c2", "f2"}
	if strings.Join(ids, ",") != strings.Join(wantIDs, ",") {
		t.Errorf("rows = %v, want %v", ids, wantIDs)
	}

	// Messages sit two levels under their folder
	if rows[3].Depth != 2 {
		t.Errorf("message depth = %d, want 2", rows[3].Depth)
	}
	// Folder rows show placeholders for content-only columns
	if rows[0].Reviewer != "-" || rows[0].Price != "-" {
		t.Errorf("folder row metadata = %q/%q, want placeholders", rows[0].Reviewer, rows[0].Price)
	}
}
