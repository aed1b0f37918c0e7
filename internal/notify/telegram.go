package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTelegramBaseURL = "https://api.telegram.org"

	// TelegramMessageLimit is the sendMessage text limit in characters.
	TelegramMessageLimit = 4096
)

type TelegramSink struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

type TelegramOption func(*TelegramSink)

func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(s *TelegramSink) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(s *TelegramSink) {
		s.client = client
	}
}

func NewTelegramSink(token, chatID string, opts ...TelegramOption) (*TelegramSink, error) {
	if token == "" || chatID == "" {
		return nil, errors.New("telegram bot token and chat id are required")
	}

	s := &TelegramSink{
		baseURL: DefaultTelegramBaseURL,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *TelegramSink) Send(ctx context.Context, message string) error {
	for i, chunk := range splitMessage(message, TelegramMessageLimit) {
		if err := s.sendChunk(ctx, chunk); err != nil {
			return &DeliveryError{Sink: s.Name(), Err: fmt.Errorf("part %d: %w", i+1, err)}
		}
	}
	return nil
}

func (s *TelegramSink) sendChunk(ctx context.Context, text string) error {
	body, err := json.Marshal(telegramMessage{ChatID: s.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	endpoint := s.baseURL + "/bot" + s.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The request URL carries the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var result telegramResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && result.Description != "" {
			return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, result.Description)
		}
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	if decodeErr == nil && !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit characters, breaking
// on line boundaries. A single line longer than limit is hard-split.
func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var lines []string
	size := 0

	flush := func() {
		if len(lines) > 0 {
			chunks = append(chunks, strings.Join(lines, "\n"))
			lines = nil
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		n := len(runes)
		if len(lines) > 0 {
			n++
		}
		if size+n > limit {
			flush()
			n = len(runes)
		}

		lines = append(lines, string(runes))
		size += n
	}
	flush()

	return chunks
}
