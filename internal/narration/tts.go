// Package narration synthesizes the voice track from story text.
package narration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxChunkRunes is the longest text the translate TTS endpoint accepts per request.
const maxChunkRunes = 100

type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang, outputPath string) error
}

// Client talks to a Google Translate style TTS endpoint that answers
// GET ?q=<text>&tl=<lang> with MP3 bytes.
type Client struct {
	Endpoint   string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

func NewClient(logger *zap.Logger, endpoint string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint == "" {
		endpoint = "https://translate.google.com/translate_tts"
	}
	return &Client{
		Endpoint: endpoint,
		Logger:   logger,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Synthesize requests every chunk in order and writes the concatenated MP3
// frames to outputPath. Nothing is written if any chunk fails.
func (c *Client) Synthesize(ctx context.Context, text, lang, outputPath string) error {
	chunks := Chunk(text, maxChunkRunes)
	if len(chunks) == 0 {
		return errors.New("no text to synthesize")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		data, err := c.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(data)
	}

	if err := os.WriteFile(outputPath, audio.Bytes(), 0644); err != nil {
		return err
	}
	c.Logger.Info("narration synthesized",
		zap.String("file", outputPath),
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", audio.Len()))
	return nil
}

func (c *Client) fetch(ctx context.Context, text, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)
	q.Set("idx", fmt.Sprint(idx))
	q.Set("total", fmt.Sprint(total))
	q.Set("textlen", fmt.Sprint(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

// Chunk splits text on whitespace into pieces of at most max runes.
func Chunk(text string, max int) []string {
	var chunks []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > max {
			if len(cur) > 0 {
				chunks = append(chunks, string(cur))
				cur = nil
			}
			chunks = append(chunks, string(w[:max]))
			w = w[max:]
		}
		if len(w) == 0 {
			continue
		}
		if len(cur) > 0 && len(cur)+1+len(w) > max {
			chunks = append(chunks, string(cur))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}

// VoicePath is where the narration of a job is stored.
func VoicePath(audioDir, jobID string) string {
	return filepath.Join(audioDir, fmt.Sprintf("voice_%s.mp3", jobID))
}

// Narrate synthesizes text for a job. On failure the path is empty and the
// error tells the caller why no narration was produced.
func Narrate(ctx context.Context, s Synthesizer, text, lang, audioDir, jobID string) (string, error) {
	path := VoicePath(audioDir, jobID)
	if err := s.Synthesize(ctx, text, lang, path); err != nil {
		return "", fmt.Errorf("synthesize narration: %w", err)
	}
	return path, nil
}
