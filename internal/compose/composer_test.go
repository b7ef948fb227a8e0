package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"github.com/dileep-u-k/tutor-director/internal/store"
)

type sliceStream struct {
	chunks []string
	err    error
	pos    int
}

func (s *sliceStream) Next() (string, error) {
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", iterator.Done
}

type fakeGenerator struct {
	failUploads map[string]bool
	panicUpload string
	chunks      []string
	streamErr   error
	openErr     error

	uploads   []string
	genParts  []Part
	chatInput string
	resets    int
}

func (g *fakeGenerator) Upload(_ context.Context, r store.ResourceDescriptor) (Attachment, error) {
	g.uploads = append(g.uploads, r.Title)
	if r.Title == g.panicUpload {
		panic("boom")
	}
	if g.failUploads[r.Title] {
		return Attachment{}, errors.New("file not found")
	}
	return Attachment{URI: "files/" + r.Title, MIMEType: "application/pdf"}, nil
}

func (g *fakeGenerator) GenerateStream(_ context.Context, parts []Part) (ChunkStream, error) {
	g.genParts = parts
	if g.openErr != nil {
		return nil, g.openErr
	}
	return &sliceStream{chunks: g.chunks, err: g.streamErr}, nil
}

func (g *fakeGenerator) ChatStream(_ context.Context, prompt string) (ChunkStream, error) {
	g.chatInput = prompt
	if g.openErr != nil {
		return nil, g.openErr
	}
	return &sliceStream{chunks: g.chunks, err: g.streamErr}, nil
}

func (g *fakeGenerator) ResetChat() { g.resets++ }

func resources(titles ...string) []store.ResourceDescriptor {
	out := make([]store.ResourceDescriptor, len(titles))
	for i, t := range titles {
		out[i] = store.ResourceDescriptor{
			Title:     t,
			LocalPath: "docs/" + t,
			Summary:   "summary of " + t,
			Topics:    []string{"astronomy"},
		}
	}
	return out
}

func TestBuild_OnePartialFailure(t *testing.T) {
	gen := &fakeGenerator{failUploads: map[string]bool{"b.pdf": true}}
	c := New(gen)

	gc := c.Build(context.Background(), Request{
		Query:     "How does the Sun shine?",
		Resources: resources("a.pdf", "b.pdf", "c.pdf"),
	})

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, gen.uploads)
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, gc.Attached)
	assert.Equal(t, []string{"b.pdf"}, gc.Fallbacks)

	var resourceParts []Part
	for _, p := range gc.Parts {
		if p.Resource != "" {
			resourceParts = append(resourceParts, p)
		}
	}
	require.Len(t, resourceParts, 3)
	assert.NotNil(t, resourceParts[0].Attachment)
	assert.True(t, resourceParts[1].Fallback)
	assert.Contains(t, resourceParts[1].Text, "summary of b.pdf")
	assert.NotNil(t, resourceParts[2].Attachment)
	assert.Equal(t, "a.pdf", resourceParts[0].Attachment.Title)
}

func TestBuild_Order(t *testing.T) {
	c := New(&fakeGenerator{})
	gc := c.Build(context.Background(), Request{
		Query: "q",
		Knowledge: map[string]store.KnowledgeLevel{
			"astronomy": {Level: "beginner", DetailedDescription: "knows the planets"},
		},
		Resources: resources("a.pdf"),
	})

	require.Len(t, gc.Parts, 4)
	assert.Contains(t, gc.Parts[0].Text, "astronomy: beginner level")
	assert.Contains(t, gc.Parts[0].Text, "knows the planets")
	assert.NotNil(t, gc.Parts[1].Attachment)
	assert.Contains(t, gc.Parts[2].Text, "User question: q")
	assert.Equal(t, closingInstruction, gc.Parts[3].Text)
}

func TestBuild_PanickingUploadDegrades(t *testing.T) {
	gen := &fakeGenerator{panicUpload: "a.pdf"}
	gc := New(gen).Build(context.Background(), Request{Query: "q", Resources: resources("a.pdf", "b.pdf")})

	assert.Equal(t, []string{"a.pdf"}, gc.Fallbacks)
	assert.Equal(t, []string{"b.pdf"}, gc.Attached)
}

func TestCompose_AttachmentPath(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"The Sun ", "fuses ", "hydrogen."}}
	var streamed []string
	c := New(gen, WithChunkHandler(func(s string) { streamed = append(streamed, s) }))

	res, err := c.Compose(context.Background(), Request{Query: "q", Resources: resources("a.pdf")})
	require.NoError(t, err)

	assert.Equal(t, PathAttachments, res.Path)
	assert.Equal(t, "The Sun fuses hydrogen.", res.Text)
	assert.False(t, res.Partial)
	assert.Equal(t, gen.chunks, streamed)
	assert.NotEmpty(t, gen.genParts)
	assert.Empty(t, gen.chatInput)
}

func TestCompose_AllAttachmentsFail(t *testing.T) {
	gen := &fakeGenerator{
		failUploads: map[string]bool{"a.pdf": true, "b.pdf": true},
		chunks:      []string{"answer"},
	}
	res, err := New(gen).Compose(context.Background(), Request{Query: "q", Resources: resources("a.pdf", "b.pdf")})
	require.NoError(t, err)

	assert.Equal(t, PathConversational, res.Path)
	assert.Equal(t, "answer", res.Text)
	assert.Nil(t, gen.genParts)
	assert.Contains(t, gen.chatInput, "summary of a.pdf")
	assert.Contains(t, gen.chatInput, "summary of b.pdf")
	assert.Contains(t, gen.chatInput, "User question: q")
}

func TestCompose_NoResourcesUsesChat(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"hi"}}
	res, err := New(gen).Compose(context.Background(), Request{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, PathConversational, res.Path)
	assert.Empty(t, gen.uploads)
}

func TestCompose_MidStreamErrorKeepsPartial(t *testing.T) {
	gen := &fakeGenerator{
		chunks:    []string{"The core ", "is hot"},
		streamErr: errors.New("connection reset"),
	}
	res, err := New(gen).Compose(context.Background(), Request{Query: "q"})
	require.NoError(t, err)

	assert.True(t, res.Partial)
	assert.True(t, strings.HasPrefix(res.Text, "The core is hot"))
	assert.Contains(t, res.Text, "connection reset")
}

func TestCompose_OpenErrorIsReported(t *testing.T) {
	gen := &fakeGenerator{openErr: errors.New("quota exceeded")}
	res, err := New(gen).Compose(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Contains(t, res.Text, "quota exceeded")
}

func TestCompose_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&fakeGenerator{}).Compose(ctx, Request{Query: "q"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReset(t *testing.T) {
	gen := &fakeGenerator{}
	New(gen).Reset()
	assert.Equal(t, 1, gen.resets)
}
