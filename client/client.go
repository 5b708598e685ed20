// Package client is the browser-facing SDK for the guide service: it
// submits searches and assembles the streamed answers, manages chat
// history, feedback, and the content-library tree.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Session supplies the bearer token for every request. Injected so tests
// and embedding applications can substitute their own storage.
type Session interface {
	Token() string
}

// StaticSession is a Session with a fixed token.
type StaticSession string

// Token returns the fixed token.
func (s StaticSession) Token() string { return string(s) }

// ChatSummary is one history list entry.
type ChatSummary struct {
	ChatID    string `json:"chat_id"`
	ChatTitle string `json:"chat_title"`
	CreatedAt string `json:"created_at"`
}

// TranscriptEntry is one exchange of a fetched session transcript.
type TranscriptEntry struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	Query     string `json:"query"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

// Client calls the guide service.
type Client struct {
	baseURL string
	session Session
	rest    *resty.Client

	// streamClient carries SSE responses; resty buffers bodies, so the
	// streaming endpoint goes through net/http directly.
	streamClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, session Session) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)

	return &Client{
		baseURL: baseURL,
		session: session,
		rest:    rest,
		// No overall timeout: answer streams are long-lived
		streamClient: &http.Client{},
	}
}

// searchPayload is the JSON descriptor carried in the "data" part.
type searchPayload struct {
	UserPrompt   string `json:"user_prompt"`
	IsNew        bool   `json:"is_new"`
	ChatID       string `json:"chat_id,omitempty"`
	RegenerateID string `json:"regenerate_id,omitempty"`
}

// Submit sends a new prompt on the conversation and streams the answer
// into a freshly appended turn. It blocks until the stream reaches a
// terminal state; onUpdate fires after every applied fragment. Returns
// ErrBusy if a stream is already in flight.
func (c *Client) Submit(ctx context.Context, set *ConversationSet, prompt string, attachment *Attachment, onUpdate func(*ConversationTurn)) error {
	streamCtx, cancel := context.WithCancel(ctx)

	turn, err := set.beginSubmit(prompt, attachment, cancel)
	if err != nil {
		cancel()
		return err
	}

	payload := searchPayload{
		UserPrompt: prompt,
		IsNew:      set.ChatID() == "",
		ChatID:     set.ChatID(),
	}

	return c.runStream(streamCtx, set, turn, payload, attachment, onUpdate)
}

// Regenerate re-answers the turn at index, overwriting its answer and id
// in place. Sequence positions never change. Returns ErrBusy if a stream
// is already in flight.
func (c *Client) Regenerate(ctx context.Context, set *ConversationSet, index int, onUpdate func(*ConversationTurn)) error {
	streamCtx, cancel := context.WithCancel(ctx)

	turn, priorID, err := set.beginRegenerate(index, cancel)
	if err != nil {
		cancel()
		return err
	}

	payload := searchPayload{
		UserPrompt:   turn.Question,
		ChatID:       set.ChatID(),
		RegenerateID: priorID,
	}

	return c.runStream(streamCtx, set, turn, payload, turn.AttachedFile, onUpdate)
}

// runStream opens the search stream and feeds the accumulator until the
// transport closes or errors.
func (c *Client) runStream(ctx context.Context, set *ConversationSet, turn *ConversationTurn, payload searchPayload, attachment *Attachment, onUpdate func(*ConversationTurn)) error {
	acc := NewStreamAccumulator(set, turn, onUpdate)
	acc.Opening()

	body, contentType, err := buildSearchForm(payload, attachment)
	if err != nil {
		acc.Fail(err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/guide/search", body)
	if err != nil {
		acc.Fail(err)
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.session.Token())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		acc.Fail(err)
		return acc.Err()
	}
	defer resp.Body.Close()

	if err := acc.OnOpen(resp.StatusCode); err != nil {
		return err
	}

	if err := readSSE(resp.Body, acc); err != nil {
		acc.Fail(err)
		return acc.Err()
	}

	acc.Complete()
	return nil
}

// readSSE feeds each event's data payload to the accumulator until EOF.
// Comment lines (keepalives) are ignored.
func readSSE(r io.Reader, acc *StreamAccumulator) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			acc.Feed([]byte(data))
		}
	}
	return scanner.Err()
}

// buildSearchForm assembles the multipart body: a "data" part with the
// JSON descriptor and an optional "file" part.
func buildSearchForm(payload searchPayload, attachment *Attachment) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	if err := form.WriteField("data", string(encoded)); err != nil {
		return nil, "", err
	}

	if attachment != nil {
		part, err := form.CreateFormFile("file", attachment.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(attachment.Data); err != nil {
			return nil, "", err
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}

	return &buf, form.FormDataContentType(), nil
}

// ListChats fetches the user's chat summaries.
func (c *Client) ListChats(ctx context.Context) ([]ChatSummary, error) {
	var out struct {
		Chats []ChatSummary `json:"chats"`
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetResult(&out).
		Get("/api/chats")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return out.Chats, nil
}

// GetTranscript fetches a chat's transcript and wraps it in a
// ConversationSet ready for further submissions.
func (c *Client) GetTranscript(ctx context.Context, chatID string) (*ConversationSet, error) {
	var out struct {
		Results []TranscriptEntry `json:"results"`
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetResult(&out).
		Get("/api/chats/" + chatID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	turns := make([]*ConversationTurn, 0, len(out.Results))
	for _, entry := range out.Results {
		turns = append(turns, &ConversationTurn{
			ID:       entry.ID,
			ChatID:   entry.ChatID,
			Question: entry.Query,
			Answer:   entry.Answer,
		})
	}

	return NewConversationSetWithHistory(chatID, turns), nil
}

// RenameChat updates a chat's title.
func (c *Client) RenameChat(ctx context.Context, chatID, title string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"chat_title": title}).
		Patch("/api/chats/" + chatID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// DeleteChat removes a chat from the user's history.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		Delete("/api/chats/" + chatID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// Rate votes on a result.
func (c *Client) Rate(ctx context.Context, resultID, vote string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"result_id": resultID, "vote": vote}).
		Post("/api/ratings")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// Report files a free-text report against a result.
func (c *Client) Report(ctx context.Context, resultID, text string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"result_id": resultID, "report": text}).
		Post("/api/reports")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// GetLibraryTree fetches and normalizes the content-library tree.
func (c *Client) GetLibraryTree(ctx context.Context) ([]*FolderNode, error) {
	var out struct {
		Folders []RawFolder `json:"folders"`
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetResult(&out).
		Get("/api/library/tree")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return Normalize(out.Folders)
}

// LibraryFolder is a folder entity returned by the curation endpoints.
type LibraryFolder struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
}

// LibraryContent is a content entity returned by the curation endpoints.
type LibraryContent struct {
	ID       string  `json:"id"`
	FolderID string  `json:"folder_id"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Status   string  `json:"status"`
	Reviewer *string `json:"reviewer"`
	Price    *string `json:"price"`
}

// ContentUpdate carries a partial content update; nil fields are unchanged.
type ContentUpdate struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Reviewer *string `json:"reviewer,omitempty"`
	Price    *string `json:"price,omitempty"`
}

// CreateFolder creates a folder; parentID nil means a root folder.
func (c *Client) CreateFolder(ctx context.Context, name string, parentID *string) (*LibraryFolder, error) {
	var out LibraryFolder
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]any{"name": name, "parent_id": parentID}).
		SetResult(&out).
		Post("/api/folders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, folderID, name string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"name": name}).
		Patch("/api/folders/" + folderID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// DeleteFolder removes a folder and its subtree from the library view.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		Delete("/api/folders/" + folderID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// CreateContent creates a content item under a folder.
func (c *Client) CreateContent(ctx context.Context, folderID, title, body string, reviewer, price *string) (*LibraryContent, error) {
	var out LibraryContent
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]any{
			"folder_id": folderID,
			"title":     title,
			"body":      body,
			"reviewer":  reviewer,
			"price":     price,
		}).
		SetResult(&out).
		Post("/api/content")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

// UpdateContent applies a partial update to a content item.
func (c *Client) UpdateContent(ctx context.Context, contentID string, update ContentUpdate) (*LibraryContent, error) {
	var out LibraryContent
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(update).
		SetResult(&out).
		Patch("/api/content/" + contentID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

// DeleteContent removes a content item and its messages.
func (c *Client) DeleteContent(ctx context.Context, contentID string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		Delete("/api/content/" + contentID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// MoveContent moves a content item to another folder.
func (c *Client) MoveContent(ctx context.Context, contentID, folderID string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"folder_id": folderID}).
		Post("/api/content/" + contentID + "/move")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// DuplicateContent copies a content item, thread included, within its folder.
func (c *Client) DuplicateContent(ctx context.Context, contentID string) (*LibraryContent, error) {
	var out LibraryContent
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetResult(&out).
		Post("/api/content/" + contentID + "/duplicate")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

// UpdateContentStatus moves a content item through the moderation flow.
func (c *Client) UpdateContentStatus(ctx context.Context, contentID, status string) (*LibraryContent, error) {
	var out LibraryContent
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token()).
		SetBody(map[string]string{"status": status}).
		SetResult(&out).
		Post("/api/content/" + contentID + "/status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

func apiError(resp *resty.Response) error {
	return fmt.Errorf("api error: %s: %s", resp.Status(), strings.TrimSpace(string(resp.Body())))
}
