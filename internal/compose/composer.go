// In file: internal/compose/composer.go

// Package compose turns the results accumulated by the orchestration loop
// into a generation context and consumes the streamed answer.
//
// Every resource is attached independently. A resource that cannot be
// attached is replaced by a text summary of itself; the rest of the answer is
// unaffected. When no resource attaches at all, generation goes through the
// conversational path with the text context only.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/iterator"

	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// ErrResourceAttachment wraps any failure to materialize a resource.
var ErrResourceAttachment = errors.New("resource attachment failed")

// ChunkStream is a finite, non-restartable sequence of answer chunks.
// Next returns iterator.Done once the stream is exhausted.
type ChunkStream interface {
	Next() (string, error)
}

// Uploader materializes a resource as a provider-side attachment.
type Uploader interface {
	Upload(ctx context.Context, r store.ResourceDescriptor) (Attachment, error)
}

// Generator is the external generation service.
type Generator interface {
	Uploader
	// GenerateStream answers from a context that contains attachments.
	GenerateStream(ctx context.Context, parts []Part) (ChunkStream, error)
	// ChatStream answers a text prompt within an ongoing conversation.
	ChatStream(ctx context.Context, prompt string) (ChunkStream, error)
}

// Path names the generation route a composition took.
type Path string

const (
	PathAttachments    Path = "attachments"
	PathConversational Path = "conversational"
)

// Request is the input of one composition.
type Request struct {
	Query string
	// Knowledge is nil when no knowledge block should be included.
	Knowledge map[string]store.KnowledgeLevel
	Resources []store.ResourceDescriptor
}

// Result is a finished composition.
type Result struct {
	Text    string
	Context GenerationContext
	Path    Path
	// Partial is set when the stream failed before completing.
	Partial bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithChunkHandler forwards every chunk to fn as it arrives.
func WithChunkHandler(fn func(chunk string)) Option {
	return func(c *Composer) {
		c.onChunk = fn
	}
}

// Composer builds generation contexts and runs the generator.
type Composer struct {
	gen     Generator
	onChunk func(string)
}

// New creates a composer over gen.
func New(gen Generator, opts ...Option) *Composer {
	c := &Composer{gen: gen}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build assembles the generation context in fixed order: knowledge block,
// one part per resource, the query, and the closing instruction.
func (c *Composer) Build(ctx context.Context, req Request) GenerationContext {
	var gc GenerationContext
	if req.Knowledge != nil {
		gc.Parts = append(gc.Parts, Part{Text: knowledgeBlock(req.Knowledge)})
	}

	for _, r := range req.Resources {
		att, err := c.attach(ctx, r)
		if err != nil {
			log.Warnf("⚠️ Falling back to summary for %q: %v", r.Title, err)
			gc.Parts = append(gc.Parts, Part{Text: summaryBlock(r), Resource: r.Title, Fallback: true})
			gc.Fallbacks = append(gc.Fallbacks, r.Title)
			continue
		}
		log.Infof("📤 Attached %q as %s", r.Title, att.URI)
		gc.Parts = append(gc.Parts, Part{Attachment: &att, Resource: r.Title})
		gc.Attached = append(gc.Attached, r.Title)
	}

	gc.Parts = append(gc.Parts,
		Part{Text: queryBlock(req.Query)},
		Part{Text: closingInstruction},
	)
	return gc
}

func (c *Composer) attach(ctx context.Context, r store.ResourceDescriptor) (att Attachment, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrResourceAttachment, r.Title, p)
		}
	}()
	att, err = c.gen.Upload(ctx, r)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %s: %v", ErrResourceAttachment, r.Title, err)
	}
	if att.Title == "" {
		att.Title = r.Title
	}
	return att, nil
}

// Compose builds the context, opens the matching stream and reads it to the
// end. A stream that breaks mid-way yields the text received so far plus an
// error notice. The only error returned is the caller's context ending before
// generation starts.
func (c *Composer) Compose(ctx context.Context, req Request) (Result, error) {
	gc := c.Build(ctx, req)
	if err := ctx.Err(); err != nil {
		return Result{Context: gc}, err
	}

	res := Result{Context: gc, Path: PathConversational}
	var (
		stream ChunkStream
		err    error
	)
	if gc.HasAttachments() {
		res.Path = PathAttachments
		stream, err = c.gen.GenerateStream(ctx, gc.Parts)
	} else {
		if len(req.Resources) > 0 {
			log.Warnf("⚠️ No resource could be attached, answering from text context only")
		}
		stream, err = c.gen.ChatStream(ctx, gc.Prompt())
	}
	if err != nil {
		log.Errorf("❌ Failed to start answer generation: %v", err)
		res.Text = fmt.Sprintf("Sorry, an error occurred while generating the answer: %v", err)
		res.Partial = true
		return res, nil
	}

	res.Text, res.Partial = c.consume(stream)
	return res, nil
}

func (c *Composer) consume(stream ChunkStream) (string, bool) {
	var b strings.Builder
	for {
		chunk, err := stream.Next()
		if errors.Is(err, iterator.Done) {
			return b.String(), false
		}
		if err != nil {
			log.Errorf("❌ Answer stream interrupted after %d bytes: %v", b.Len(), err)
			notice := fmt.Sprintf("\n\n[error: answer generation was interrupted: %v]", err)
			b.WriteString(notice)
			if c.onChunk != nil {
				c.onChunk(notice)
			}
			return b.String(), true
		}
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if c.onChunk != nil {
			c.onChunk(chunk)
		}
	}
}

// Reset drops the generator's conversational memory, if it keeps any.
func (c *Composer) Reset() {
	if r, ok := c.gen.(interface{ ResetChat() }); ok {
		r.ResetChat()
	}
}
