package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelpost/internal/config"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Button is one inline keyboard URL button.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Chat is the subset of the Bot API chat object the pipeline reads.
type Chat struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// File identifies an uploaded attachment.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
}

// Message is the subset of the Bot API message object the pipeline reads.
type Message struct {
	MessageID int64 `json:"message_id"`
	Chat      Chat  `json:"chat"`
	Document  *File `json:"document,omitempty"`
	Video     *File `json:"video,omitempty"`
}

// FileID returns the identifier of the attachment carried by the message.
func (m Message) FileID() string {
	switch {
	case m.Document != nil && m.Document.FileID != "":
		return m.Document.FileID
	case m.Video != nil && m.Video.FileID != "":
		return m.Video.FileID
	}
	return ""
}

// Link returns a t.me link for public channels and a tg:// reference otherwise.
func (m Message) Link() string {
	if m.Chat.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", m.Chat.Username, m.MessageID)
	}
	return fmt.Sprintf("tg://message/%d/%d", m.Chat.ID, m.MessageID)
}

// APIError is returned when the Bot API answers ok=false or a non-2xx status.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, e.Description)
}

// Client talks to the Bot API.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
	uploads HTTPDoer
}

// NewClient builds a client for baseURL (e.g. https://api.telegram.org).
// Uploads share client unless WithUploadClient replaces it.
func NewClient(baseURL, token string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
		uploads: client,
	}
}

// WithUploadClient sets the doer used by SendDocument.
func (c *Client) WithUploadClient(uploads HTTPDoer) *Client {
	if uploads != nil {
		c.uploads = uploads
	}
	return c
}

// NewFromConfig builds a client using the [telegram] section.
// request_timeout bounds whole calls such as sendMessage. Uploads have no
// overall limit: a large variant may stream for minutes, so only the wait
// for response headers after the body is sent is bounded, and ctx cancels.
func NewFromConfig(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Telegram.RequestTimeout) * time.Second
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, &http.Client{Timeout: timeout}).
		WithUploadClient(&http.Client{Transport: transport})
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// SendDocument uploads path to chatID as a document and returns the posted message.
func (c *Client) SendDocument(ctx context.Context, chatID, path, fileName, caption string) (Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return Message{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	if fileName == "" {
		fileName = filepath.Base(path)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeDocumentForm(writer, file, chatID, fileName, caption))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendDocument"), pr)
	if err != nil {
		_ = pr.Close()
		return Message{}, fmt.Errorf("build sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var msg Message
	if err := c.do(c.uploads, req, "sendDocument", &msg); err != nil {
		_ = pr.Close()
		return Message{}, err
	}
	return msg, nil
}

func writeDocumentForm(writer *multipart.Writer, file io.Reader, chatID, fileName, caption string) error {
	if err := writer.WriteField("chat_id", chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return writer.Close()
}

type sendMessageRequest struct {
	ChatID      string       `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// SendMessage posts text to chatID with one inline button per row.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, buttons []Button) (Message, error) {
	payload := sendMessageRequest{ChatID: chatID, Text: text}
	if len(buttons) > 0 {
		rows := make([][]Button, 0, len(buttons))
		for _, button := range buttons {
			rows = append(rows, []Button{button})
		}
		payload.ReplyMarkup = &replyMarkup{InlineKeyboard: rows}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode sendMessage: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var msg Message
	if err := c.do(c.client, req, "sendMessage", &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

type envelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) do(doer HTTPDoer, req *http.Request, method string, out any) error {
	if c.token == "" {
		return errors.New("telegram bot token not configured")
	}
	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)
	if resp.StatusCode >= http.StatusMultipleChoices || (decodeErr == nil && !env.OK) {
		description := strings.TrimSpace(env.Description)
		if description == "" {
			description = http.StatusText(resp.StatusCode)
		}
		return &APIError{Method: method, StatusCode: resp.StatusCode, Description: description}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode telegram %s response: %w", method, decodeErr)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode telegram %s result: %w", method, err)
	}
	return nil
}
