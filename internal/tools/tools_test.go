package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

const sunSlides = "301F09.Ch16.Sun.Slides.pdf"

func testMetadata(t *testing.T, titles ...string) *store.MetadataStore {
	t.Helper()
	files := make([]store.ResourceDescriptor, len(titles))
	for i, title := range titles {
		files[i] = store.ResourceDescriptor{
			Title:     title,
			LocalPath: "docs/" + title,
			Summary:   "about " + title,
			Topics:    []string{"astronomy"},
		}
	}
	s, err := store.NewMetadataStore(files)
	require.NoError(t, err)
	return s
}

func testKnowledge() *store.KnowledgeStore {
	return store.NewKnowledgeStore("student-42", map[string]store.KnowledgeLevel{
		"astronomy": {Level: "beginner", DetailedDescription: "knows the planets"},
	})
}

type stubComposer struct {
	text string
	err  error
	got  *compose.Request
}

func (c *stubComposer) Compose(_ context.Context, req compose.Request) (compose.Result, error) {
	c.got = &req
	if c.err != nil {
		return compose.Result{}, c.err
	}
	return compose.Result{Text: c.text}, nil
}

type funcHandler struct {
	def Tool
	fn  func(ctx context.Context, args map[string]any) (any, error)
}

func (h funcHandler) Definition() Tool { return h.def }

func (h funcHandler) Execute(ctx context.Context, args map[string]any, _ session.Snapshot) (any, error) {
	return h.fn(ctx, args)
}

func newFuncHandler(name string, fn func(context.Context, map[string]any) (any, error)) funcHandler {
	return funcHandler{
		def: NewFunctionTool(name, "test tool", JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"n": {Type: "integer"},
			},
		}),
		fn: fn,
	}
}

// --- Catalog ---

func TestCatalog_RegisterAndLookup(t *testing.T) {
	c, err := BuildCatalog(
		NewKnowledgeTool(testKnowledge()),
		NewSelectFilesTool(testMetadata(t, sunSlides)),
		NewAnswerTool(&stubComposer{}),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	names := make([]string, 0, c.Len())
	for _, d := range c.Definitions() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{KnowledgeToolName, SelectFilesToolName, AnswerToolName}, names)

	d, err := c.Lookup(AnswerToolName)
	require.NoError(t, err)
	assert.True(t, d.Terminal)
	assert.True(t, c.IsTerminal(AnswerToolName))
	assert.False(t, c.IsTerminal(KnowledgeToolName))

	_, err = c.Lookup("get_weather")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestCatalog_Duplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(NewKnowledgeTool(nil)))
	err := c.Register(NewKnowledgeTool(nil))
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_RejectsEmptyEnumeration(t *testing.T) {
	empty, err := store.NewMetadataStore(nil)
	require.NoError(t, err)

	_, err = BuildCatalog(NewSelectFilesTool(empty))
	assert.ErrorIs(t, err, ErrEmptyEnumeration)
}

func TestCatalog_RejectsNilAndUnnamed(t *testing.T) {
	c := NewCatalog()
	assert.Error(t, c.Register(nil))
	assert.Error(t, c.Register(newFuncHandler("  ", nil)))
}

func TestSelectFilesDefinition_EnumeratesSnapshot(t *testing.T) {
	tool := NewSelectFilesTool(testMetadata(t, "a.pdf", "b.pdf"))
	items := tool.Definition().Function.Parameters.Properties["file_titles"].Items
	require.NotNil(t, items)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, items.Enum)
	assert.Contains(t, tool.Definition().Function.Description, "about a.pdf")
}

// --- Validation ---

func TestValidateArguments(t *testing.T) {
	schema := NewAnswerTool(nil).Definition().Function.Parameters
	subjects := NewKnowledgeTool(nil).Definition().Function.Parameters
	titles := NewSelectFilesTool(testMetadata(t, "known.pdf")).Definition().Function.Parameters

	tests := []struct {
		name    string
		schema  JSONSchema
		args    map[string]any
		wantErr bool
	}{
		{"valid", schema, map[string]any{"user_query": "q", "use_knowledge_level": true}, false},
		{"missing required", schema, map[string]any{"use_knowledge_level": true}, true},
		{"nil args with required", schema, nil, true},
		{"wrong type", schema, map[string]any{"user_query": 3}, true},
		{"wrong bool", schema, map[string]any{"user_query": "q", "use_selected_files": "yes"}, true},
		{"unknown field ignored", schema, map[string]any{"user_query": "q", "extra": 1}, false},
		{"enum member", subjects, map[string]any{"subjects": []any{"astronomy"}}, false},
		{"enum ignores case", subjects, map[string]any{"subjects": []any{"Astronomy"}}, false},
		{"enum miss", subjects, map[string]any{"subjects": []any{"history"}}, true},
		{"string slice", subjects, map[string]any{"subjects": []string{"algebra"}}, false},
		{"not an array", subjects, map[string]any{"subjects": "astronomy"}, true},
		{"advisory enum miss", titles, map[string]any{"file_titles": []any{"known.pdf", "missing.pdf"}}, false},
		{"advisory enum type", titles, map[string]any{"file_titles": []any{3}}, true},
		{"advisory enum required", titles, map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(tt.schema, tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArguments)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateArguments_Numbers(t *testing.T) {
	schema := JSONSchema{Type: "object", Properties: map[string]*JSONSchema{
		"n": {Type: "integer"},
		"x": {Type: "number"},
	}}
	assert.NoError(t, ValidateArguments(schema, map[string]any{"n": float64(3), "x": 1.5}))
	assert.Error(t, ValidateArguments(schema, map[string]any{"n": 3.5}))
	assert.Error(t, ValidateArguments(schema, map[string]any{"x": "1.5"}))
}

// --- Knowledge tool ---

func TestKnowledgeTool_Execute(t *testing.T) {
	kt := NewKnowledgeTool(testKnowledge())
	payload, err := kt.Execute(context.Background(), map[string]any{"subjects": []any{"astronomy", "calculus"}}, session.Snapshot{})
	require.NoError(t, err)

	report := payload.(KnowledgeReport)
	assert.Equal(t, "student-42", report.UserID)
	assert.Equal(t, "beginner", report.SubjectsInfo["astronomy"].Level)
	assert.Equal(t, store.UnknownLevel, report.SubjectsInfo["calculus"].Level)
	assert.Contains(t, report.SubjectsInfo["calculus"].DetailedDescription, "calculus")
}

func TestKnowledgeTool_Idempotent(t *testing.T) {
	kt := NewKnowledgeTool(testKnowledge())
	args := map[string]any{"subjects": []any{"astronomy", "algebra"}}

	first, err := kt.Execute(context.Background(), args, session.Snapshot{})
	require.NoError(t, err)
	second, err := kt.Execute(context.Background(), args, session.Snapshot{})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// --- Document selection tool ---

func TestSelectFilesTool_UnknownTitle(t *testing.T) {
	st := NewSelectFilesTool(testMetadata(t, "known.pdf"))
	payload, err := st.Execute(context.Background(), map[string]any{"file_titles": []any{"known.pdf", "missing.pdf"}}, session.Snapshot{})
	require.NoError(t, err)

	sel := payload.(Selection)
	require.Len(t, sel.SelectedFiles, 1)
	assert.Equal(t, "known.pdf", sel.SelectedFiles[0].Title)
	assert.Equal(t, []string{"missing.pdf"}, sel.NotFound)
	assert.Equal(t, 1, sel.TotalSelected)
}

func TestExecutor_SelectFilesReportsUnknownTitle(t *testing.T) {
	c, err := BuildCatalog(NewSelectFilesTool(testMetadata(t, "known.pdf")))
	require.NoError(t, err)

	res := NewExecutor(c).Execute(context.Background(), api.ToolCall{
		Name:      SelectFilesToolName,
		Arguments: map[string]any{"file_titles": []any{"known.pdf", "missing.pdf"}},
	}, session.Snapshot{})
	require.True(t, res.OK(), res.Message)

	sel := res.Payload.(Selection)
	assert.Equal(t, 1, sel.TotalSelected)
	require.Len(t, sel.SelectedFiles, 1)
	assert.Equal(t, "known.pdf", sel.SelectedFiles[0].Title)
	assert.Equal(t, []string{"missing.pdf"}, sel.NotFound)
}

func TestSelectFilesTool_CaseInsensitiveAndDeduped(t *testing.T) {
	st := NewSelectFilesTool(testMetadata(t, sunSlides))
	payload, err := st.Execute(context.Background(), map[string]any{
		"file_titles": []any{"301f09.ch16.sun.slides.pdf", sunSlides},
	}, session.Snapshot{})
	require.NoError(t, err)

	sel := payload.(Selection)
	require.Len(t, sel.SelectedFiles, 1)
	assert.Equal(t, sunSlides, sel.SelectedFiles[0].Title)
	assert.Empty(t, sel.NotFound)
}

// --- Executor ---

func TestExecutor_UnknownTool(t *testing.T) {
	e := NewExecutor(NewCatalog())
	res := e.Execute(context.Background(), api.ToolCall{Name: "get_weather"}, session.Snapshot{})
	assert.Equal(t, api.StatusError, res.Status)
	assert.Equal(t, "unknown tool", res.Message)
	assert.Equal(t, "get_weather", res.ToolName)
}

func TestExecutor_InvalidArguments(t *testing.T) {
	c, err := BuildCatalog(NewKnowledgeTool(testKnowledge()))
	require.NoError(t, err)

	res := NewExecutor(c).Execute(context.Background(), api.ToolCall{
		Name:      KnowledgeToolName,
		Arguments: map[string]any{"subjects": []any{"history"}},
	}, session.Snapshot{})
	assert.False(t, res.OK())
	assert.Contains(t, res.Message, "invalid arguments")
}

func TestExecutor_HandlerErrorAndPanic(t *testing.T) {
	c, err := BuildCatalog(
		newFuncHandler("fails", func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		}),
		newFuncHandler("panics", func(context.Context, map[string]any) (any, error) {
			panic("nil map")
		}),
		newFuncHandler("works", func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"n": args["n"]}, nil
		}),
	)
	require.NoError(t, err)
	e := NewExecutor(c)

	res := e.Execute(context.Background(), api.ToolCall{Name: "fails"}, session.Snapshot{})
	assert.Equal(t, api.StatusError, res.Status)
	assert.Equal(t, "backend unavailable", res.Message)

	res = e.Execute(context.Background(), api.ToolCall{Name: "panics"}, session.Snapshot{})
	assert.Equal(t, api.StatusError, res.Status)
	assert.Contains(t, res.Message, "nil map")

	res = e.Execute(context.Background(), api.ToolCall{Name: "works", Arguments: map[string]any{"n": float64(2)}}, session.Snapshot{})
	assert.True(t, res.OK())
	assert.Equal(t, map[string]any{"n": float64(2)}, res.Payload)
}

// --- Answer tool ---

func snapshotWith(results ...api.ToolResult) session.Snapshot {
	s := session.New("test")
	for _, r := range results {
		s.MergeResult(r)
	}
	return s.Snapshot()
}

func TestAnswerTool_UsesAccumulatedResults(t *testing.T) {
	report := KnowledgeReport{
		UserID:       "student-42",
		SubjectsInfo: map[string]store.KnowledgeLevel{"astronomy": {Level: "beginner"}},
	}
	sel := Selection{
		SelectedFiles: []store.ResourceDescriptor{{Title: sunSlides, LocalPath: "docs/sun.pdf"}},
		NotFound:      []string{},
		TotalSelected: 1,
	}
	view := snapshotWith(api.Success(KnowledgeToolName, report), api.Success(SelectFilesToolName, sel))

	comp := &stubComposer{text: "太阳由核心、辐射区和对流区组成。"}
	payload, err := NewAnswerTool(comp).Execute(context.Background(), map[string]any{
		"user_query":          "太阳的内部结构",
		"use_knowledge_level": true,
		"use_selected_files":  true,
	}, view)
	require.NoError(t, err)

	ans := payload.(AnswerReport)
	assert.Equal(t, comp.text, ans.FinalAnswer())
	assert.True(t, ans.UsedKnowledgeLevel)
	assert.True(t, ans.UsedFiles)
	assert.Equal(t, 16, ans.ResponseLength)

	require.NotNil(t, comp.got)
	assert.Equal(t, "太阳的内部结构", comp.got.Query)
	assert.Equal(t, report.SubjectsInfo, comp.got.Knowledge)
	assert.Equal(t, sel.SelectedFiles, comp.got.Resources)
}

func TestAnswerTool_FlagsFilterResults(t *testing.T) {
	view := snapshotWith(
		api.Success(KnowledgeToolName, KnowledgeReport{SubjectsInfo: map[string]store.KnowledgeLevel{}}),
		api.Success(SelectFilesToolName, Selection{SelectedFiles: []store.ResourceDescriptor{{Title: "a.pdf"}}}),
	)
	comp := &stubComposer{text: "ok"}
	payload, err := NewAnswerTool(comp).Execute(context.Background(), map[string]any{
		"user_query":          "q",
		"use_knowledge_level": false,
		"use_selected_files":  false,
	}, view)
	require.NoError(t, err)

	ans := payload.(AnswerReport)
	assert.False(t, ans.UsedKnowledgeLevel)
	assert.False(t, ans.UsedFiles)
	assert.Nil(t, comp.got.Knowledge)
	assert.Empty(t, comp.got.Resources)
}

func TestAnswerTool_IgnoresFailedResults(t *testing.T) {
	view := snapshotWith(api.Failure(SelectFilesToolName, "invalid arguments"))
	comp := &stubComposer{text: "ok"}
	payload, err := NewAnswerTool(comp).Execute(context.Background(), map[string]any{
		"user_query":         "q",
		"use_selected_files": true,
	}, view)
	require.NoError(t, err)
	assert.False(t, payload.(AnswerReport).UsedFiles)
}

func TestAnswerTool_ComposerError(t *testing.T) {
	comp := &stubComposer{err: context.Canceled}
	_, err := NewAnswerTool(comp).Execute(context.Background(), map[string]any{"user_query": "q"}, session.Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}
