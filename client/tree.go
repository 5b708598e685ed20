package client

import (
	"fmt"
	"strings"
)

// Placeholder shown for absent optional metadata.
const placeholder = "-"

// FolderNode is one entry in the normalized content-library tree.
type FolderNode struct {
	ID         string
	Title      string
	Status     string
	FileCount  int
	CreatedAt  string
	Subfolders []*FolderNode
	Content    []*ContentNode
}

// ContentNode is a document leaf under a folder. A content item can itself
// carry a thread of messages.
type ContentNode struct {
	ID        string
	Title     string
	Status    string
	Reviewer  string
	Price     string
	FileCount int
	CreatedAt string
	Messages  []*MessageNode
}

// MessageNode is one entry of a content item's thread.
type MessageNode struct {
	ID        string
	Title     string
	Status    string
	CreatedAt string
}

// RawFolder is the wire shape of a folder as returned by the library tree
// endpoint. Optional fields may be absent.
type RawFolder struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Status     string       `json:"status"`
	FileCount  *int         `json:"fileCount"`
	CreatedAt  string       `json:"created_at"`
	Subfolders []RawFolder  `json:"subfolders"`
	Content    []RawContent `json:"content"`
}

// RawContent is the wire shape of a content item.
type RawContent struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    string       `json:"status"`
	Reviewer  *string      `json:"reviewer"`
	Price     *string      `json:"price"`
	FileCount *int         `json:"fileCount"`
	CreatedAt string       `json:"created_at"`
	Messages  []RawMessage `json:"messages"`
}

// RawMessage is the wire shape of a content message.
type RawMessage struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Normalize maps a raw folder payload into the canonical tree. Missing
// optional fields are defaulted (reviewer and price to "-", file counts to
// zero); a missing id or title is a structural error.
func Normalize(raw []RawFolder) ([]*FolderNode, error) {
	folders := make([]*FolderNode, 0, len(raw))
	for _, rf := range raw {
		node, err := normalizeFolder(rf)
		if err != nil {
			return nil, err
		}
		folders = append(folders, node)
	}
	return folders, nil
}

func normalizeFolder(raw RawFolder) (*FolderNode, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("folder missing id")
	}
	if raw.Title == "" {
		return nil, fmt.Errorf("folder %s missing title", raw.ID)
	}

	node := &FolderNode{
		ID:         raw.ID,
		Title:      raw.Title,
		Status:     raw.Status,
		FileCount:  intOrZero(raw.FileCount),
		CreatedAt:  raw.CreatedAt,
		Subfolders: make([]*FolderNode, 0, len(raw.Subfolders)),
		Content:    make([]*ContentNode, 0, len(raw.Content)),
	}

	for _, sub := range raw.Subfolders {
		child, err := normalizeFolder(sub)
		if err != nil {
			return nil, err
		}
		node.Subfolders = append(node.Subfolders, child)
	}

	for _, rc := range raw.Content {
		content, err := normalizeContent(rc)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, content)
	}

	return node, nil
}

func normalizeContent(raw RawContent) (*ContentNode, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("content missing id")
	}
	if raw.Title == "" {
		return nil, fmt.Errorf("content %s missing title", raw.ID)
	}

	node := &ContentNode{
		ID:        raw.ID,
		Title:     raw.Title,
		Status:    raw.Status,
		Reviewer:  stringOr(raw.Reviewer, placeholder),
		Price:     stringOr(raw.Price, placeholder),
		FileCount: intOrZero(raw.FileCount),
		CreatedAt: raw.CreatedAt,
		Messages:  make([]*MessageNode, 0, len(raw.Messages)),
	}

	for _, rm := range raw.Messages {
		if rm.ID == "" {
			return nil, fmt.Errorf("message under content %s missing id", raw.ID)
		}
		if rm.Title == "" {
			return nil, fmt.Errorf("message %s missing title", rm.ID)
		}
		node.Messages = append(node.Messages, &MessageNode{
			ID:        rm.ID,
			Title:     rm.Title,
			Status:    rm.Status,
			CreatedAt: rm.CreatedAt,
		})
	}

	return node, nil
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// Filter returns the nodes of tree whose title matches term, or that have
// any matching descendant. The match is a case-insensitive substring test.
// An empty term returns the tree unchanged. The input tree is not mutated;
// retained branches are rebuilt so pruning in the copy cannot leak back.
func Filter(tree []*FolderNode, term string) []*FolderNode {
	if term == "" {
		return tree
	}

	needle := strings.ToLower(term)
	filtered := make([]*FolderNode, 0, len(tree))
	for _, node := range tree {
		if kept := filterFolder(node, needle); kept != nil {
			filtered = append(filtered, kept)
		}
	}
	return filtered
}

func filterFolder(node *FolderNode, needle string) *FolderNode {
	selfMatch := strings.Contains(strings.ToLower(node.Title), needle)

	subfolders := make([]*FolderNode, 0, len(node.Subfolders))
	for _, sub := range node.Subfolders {
		if kept := filterFolder(sub, needle); kept != nil {
			subfolders = append(subfolders, kept)
		}
	}

	content := make([]*ContentNode, 0, len(node.Content))
	for _, c := range node.Content {
		if kept := filterContent(c, needle); kept != nil {
			content = append(content, kept)
		}
	}

	if !selfMatch && len(subfolders) == 0 && len(content) == 0 {
		return nil
	}

	copied := *node
	copied.Subfolders = subfolders
	copied.Content = content
	return &copied
}

func filterContent(node *ContentNode, needle string) *ContentNode {
	selfMatch := strings.Contains(strings.ToLower(node.Title), needle)

	messages := make([]*MessageNode, 0, len(node.Messages))
	for _, m := range node.Messages {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			messages = append(messages, m)
		}
	}

	if !selfMatch && len(messages) == 0 {
		return nil
	}

	copied := *node
	copied.Messages = messages
	return &copied
}

// ExpansionState tracks which tree nodes are expanded. Purely
// presentational; rebuilt from scratch each session.
type ExpansionState struct {
	expanded map[string]bool
}

// NewExpansionState creates an empty expansion state.
func NewExpansionState() *ExpansionState {
	return &ExpansionState{expanded: make(map[string]bool)}
}

// Toggle flips the membership of nodeID. Nodes without children toggle
// like any other: the renderer decides whether that has a visible effect.
func (e *ExpansionState) Toggle(nodeID string) {
	if e.expanded[nodeID] {
		delete(e.expanded, nodeID)
	} else {
		e.expanded[nodeID] = true
	}
}

// IsExpanded reports whether nodeID is expanded.
func (e *ExpansionState) IsExpanded(nodeID string) bool {
	return e.expanded[nodeID]
}

// Row is one flattened table row of the tree view.
type Row struct {
	ID        string
	Title     string
	Status    string
	Depth     int
	IsFolder  bool
	Reviewer  string
	Price     string
	FileCount int
}

// Flatten projects the tree into table rows, descending only into
// expanded folders and content items.
func Flatten(tree []*FolderNode, expansion *ExpansionState) []Row {
	rows := make([]Row, 0)
	for _, node := range tree {
		rows = flattenFolder(rows, node, expansion, 0)
	}
	return rows
}

func flattenFolder(rows []Row, node *FolderNode, expansion *ExpansionState, depth int) []Row {
	rows = append(rows, Row{
		ID:        node.ID,
		Title:     node.Title,
		Status:    node.Status,
		Depth:     depth,
		IsFolder:  true,
		Reviewer:  placeholder,
		Price:     placeholder,
		FileCount: node.FileCount,
	})

	if !expansion.IsExpanded(node.ID) {
		return rows
	}

	for _, sub := range node.Subfolders {
		rows = flattenFolder(rows, sub, expansion, depth+1)
	}
	for _, content := range node.Content {
		rows = append(rows, Row{
			ID:        content.ID,
			Title:     content.Title,
			Status:    content.Status,
			Depth:     depth + 1,
			Reviewer:  content.Reviewer,
			Price:     content.Price,
			FileCount: content.FileCount,
		})
		if expansion.IsExpanded(content.ID) {
			for _, msg := range content.Messages {
				rows = append(rows, Row{
					ID:       msg.ID,
					Title:    msg.Title,
					Status:   msg.Status,
					Depth:    depth + 2,
					Reviewer: placeholder,
					Price:    placeholder,
				})
			}
		}
	}

	return rows
}
