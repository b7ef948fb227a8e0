package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/tutor-director/internal/agent"
	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/session"
)

func TestRunInteractive_Session(t *testing.T) {
	const (
		query  = "太阳的内部结构"
		answer = "太阳由核心、辐射区和对流区组成。"
	)
	var out bytes.Buffer
	sw := &streamWriter{w: &out}
	gen := &fakeGenerator{chunks: []string{"太阳由核心、", "辐射区和对流区组成。"}}
	d := newTestDirector(t, &scriptedDecider{script: chainScript(query)}, gen, compose.WithChunkHandler(sw.write))

	in := strings.NewReader(strings.Join([]string{"", query, "history", "clear", "history", "quit", "never read"}, "\n"))
	require.NoError(t, runInteractive(context.Background(), d, sw, in))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, answer), "streamed answer is printed once")
	assert.Contains(t, text, "[1] user: "+query)
	assert.Contains(t, text, "[call: get_knowledge_level]")
	assert.Contains(t, text, "[result: generate_detailed_response, ok]")
	assert.Contains(t, text, "Conversation cleared")
	assert.Contains(t, text, "(no conversation yet)")
	assert.Contains(t, text, "Goodbye")
	assert.Contains(t, text, "Known subjects: astronomy (beginner)")
	assert.Contains(t, text, "Course documents: 2 covering astronomy, biology")
	assert.Equal(t, 1, gen.resets)
}

func TestRunInteractive_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	sw := &streamWriter{w: &out}
	d := newTestDirector(t, &scriptedDecider{script: []*api.Decision{{Text: "plain reply"}}}, &fakeGenerator{})

	require.NoError(t, runInteractive(context.Background(), d, sw, strings.NewReader("hi")))
	assert.Contains(t, out.String(), "plain reply")
}

func TestRunInteractive_FailureKeepsGoing(t *testing.T) {
	var out bytes.Buffer
	sw := &streamWriter{w: &out}
	d := newTestDirector(t, &scriptedDecider{err: errors.New("offline")}, &fakeGenerator{})

	require.NoError(t, runInteractive(context.Background(), d, sw, strings.NewReader("hi\nhistory\nq\n")))
	text := out.String()
	assert.Contains(t, text, "The request failed")
	assert.Contains(t, text, "[1] user: hi")
	assert.Contains(t, text, "Goodbye")
}

func TestAsk_SingleShotFailureReturnsError(t *testing.T) {
	var out bytes.Buffer
	sw := &streamWriter{w: &out}
	d := newTestDirector(t, &scriptedDecider{err: errors.New("offline")}, &fakeGenerator{})

	err := ask(context.Background(), d, sw, session.New("cli"), "hi")
	assert.ErrorIs(t, err, agent.ErrDecisionClient)
	assert.Contains(t, out.String(), "offline")
}

func TestAsk_IterationLimitNotice(t *testing.T) {
	var out bytes.Buffer
	sw := &streamWriter{w: &out}
	decider := &scriptedDecider{script: []*api.Decision{
		{ToolCalls: []api.ToolCall{{Name: "get_knowledge_level", Arguments: map[string]any{"subjects": []any{"astronomy"}}}}},
	}}
	d := newTestDirector(t, decider, &fakeGenerator{})

	require.NoError(t, ask(context.Background(), d, sw, session.New("cli"), "hi"))
	assert.Contains(t, out.String(), agent.IterationLimitMessage)
	assert.Contains(t, out.String(), "iteration limit was reached")
}
