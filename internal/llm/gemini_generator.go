// In file: internal/llm/gemini_generator.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// GeminiGenerator uploads documents to the Gemini file service and streams
// answers. It keeps one conversational chat across calls to ChatStream until
// ResetChat is called.
type GeminiGenerator struct {
	client *GeminiClient
	cache  *AttachmentCache

	mu   sync.Mutex
	chat *genai.ChatSession
}

var _ compose.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator. cache may be nil.
func NewGeminiGenerator(client *GeminiClient, cache *AttachmentCache) *GeminiGenerator {
	return &GeminiGenerator{client: client, cache: cache}
}

// Upload materializes a document as a Gemini file. A document whose local
// file is missing fails without contacting the provider.
func (g *GeminiGenerator) Upload(ctx context.Context, r store.ResourceDescriptor) (compose.Attachment, error) {
	info, err := os.Stat(r.LocalPath)
	if err != nil {
		return compose.Attachment{}, fmt.Errorf("local file for %q unavailable: %w", r.Title, err)
	}
	if info.IsDir() {
		return compose.Attachment{}, fmt.Errorf("local path for %q is a directory: %s", r.Title, r.LocalPath)
	}

	key := attachmentKey(r.LocalPath, info)
	if g.cache != nil {
		if att, ok := g.cache.Get(ctx, key); ok {
			log.Debugf("📎 Reusing uploaded file for %q", r.Title)
			att.Title = r.Title
			return att, nil
		}
	}

	mimeType := mimeTypeOf(r.LocalPath)
	file, err := g.client.client.UploadFileFromPath(ctx, r.LocalPath, &genai.UploadFileOptions{
		DisplayName: r.Title,
		MIMEType:    mimeType,
	})
	if err != nil {
		return compose.Attachment{}, fmt.Errorf("upload of %q failed: %w", r.Title, err)
	}
	if file, err = g.awaitActive(ctx, file); err != nil {
		return compose.Attachment{}, fmt.Errorf("upload of %q failed: %w", r.Title, err)
	}

	att := compose.Attachment{Title: r.Title, URI: file.URI, MIMEType: file.MIMEType}
	if att.MIMEType == "" {
		att.MIMEType = mimeType
	}
	if g.cache != nil {
		g.cache.Put(ctx, key, att)
	}
	return att, nil
}

// awaitActive polls until the provider has finished processing the file.
func (g *GeminiGenerator) awaitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for attempt := 0; file.State == genai.FileStateProcessing; attempt++ {
		if attempt >= uploadPollAttempts {
			return nil, fmt.Errorf("file %s still processing after %d checks", file.Name, attempt)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(uploadPollInterval):
		}
		var err error
		if file, err = g.client.client.GetFile(ctx, file.Name); err != nil {
			return nil, err
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("file %s failed processing", file.Name)
	}
	return file, nil
}

// GenerateStream answers from a context that contains attachments.
func (g *GeminiGenerator) GenerateStream(ctx context.Context, parts []compose.Part) (compose.ChunkStream, error) {
	genParts := toGeminiParts(parts)
	if len(genParts) == 0 {
		return nil, errors.New("generation context is empty")
	}
	iter := g.client.model().GenerateContentStream(ctx, genParts...)
	return &geminiStream{iter: iter}, nil
}

// ChatStream sends prompt within the ongoing conversation.
func (g *GeminiGenerator) ChatStream(ctx context.Context, prompt string) (compose.ChunkStream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chat == nil {
		g.chat = g.client.model().StartChat()
	}
	iter := g.chat.SendMessageStream(ctx, genai.Text(prompt))
	return &geminiStream{iter: iter}, nil
}

// ResetChat starts the next ChatStream in a new conversation.
func (g *GeminiGenerator) ResetChat() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chat = nil
}

// geminiStream adapts the SDK's response iterator to compose.ChunkStream.
type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Next() (string, error) {
	resp, err := s.iter.Next()
	if errors.Is(err, iterator.Done) {
		return "", iterator.Done
	}
	if err != nil {
		return "", fmt.Errorf("gemini stream error: %w", err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func toGeminiParts(parts []compose.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Attachment != nil:
			out = append(out, genai.FileData{MIMEType: p.Attachment.MIMEType, URI: p.Attachment.URI})
		case p.Text != "":
			out = append(out, genai.Text(p.Text))
		}
	}
	return out
}

func mimeTypeOf(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return defaultAttachmentMIME
}
