// In file: cmd/tutor/chat.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/dileep-u-k/tutor-director/internal/agent"
	"github.com/dileep-u-k/tutor-director/internal/session"
)

const rule = "============================================================"

// streamWriter prints answer chunks as they arrive and remembers whether
// anything was printed for the current question.
type streamWriter struct {
	w     io.Writer
	wrote bool
}

func (s *streamWriter) write(chunk string) {
	s.wrote = true
	fmt.Fprint(s.w, chunk)
}

// ask runs one question and prints its answer. A failed decision call is
// reported and the error returned; the session stays usable.
func ask(ctx context.Context, d *director, sw *streamWriter, sess *session.Session, query string) error {
	sw.wrote = false
	fmt.Fprintf(sw.w, "\n🤖 Tutor:\n%s\n", rule)

	out, err := d.loop.Run(ctx, sess, query)
	if !sw.wrote || out.Reason != agent.ReasonTerminalTool {
		fmt.Fprint(sw.w, out.Answer)
	}
	fmt.Fprintf(sw.w, "\n%s\n", rule)
	if err != nil {
		return err
	}
	if out.Reason == agent.ReasonIterationLimit {
		fmt.Fprintln(sw.w, "⚠️ The iteration limit was reached.")
	}
	return nil
}

// runInteractive reads questions line by line until quit or end of input.
func runInteractive(ctx context.Context, d *director, sw *streamWriter, in io.Reader) error {
	w := sw.w
	fmt.Fprintf(w, "%s\n🎓 Learning assistant (model %s)\n%s\n", rule, d.modelID, rule)
	printHelp(w, d)

	sess := session.New(uuid.NewString())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(w, "\n👤 You: ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(w, "👋 Goodbye!")
			return nil
		case "help":
			printHelp(w, d)
		case "clear":
			sess = session.New(uuid.NewString())
			d.composer.Reset()
			fmt.Fprintln(w, "🧹 Conversation cleared.")
		case "history":
			printHistory(w, sess.Snapshot().Turns())
		default:
			if err := ask(ctx, d, sw, sess, line); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintln(w, "❌ The request failed; you can ask again.")
			}
		}
	}
}

func printHelp(w io.Writer, d *director) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  help     show this help")
	fmt.Fprintln(w, "  history  show the conversation so far")
	fmt.Fprintln(w, "  clear    start a new conversation")
	fmt.Fprintln(w, "  quit     exit (also: exit, q)")

	if subjects := d.knowledge.Subjects(); len(subjects) > 0 {
		levels := make([]string, 0, len(subjects))
		for _, s := range subjects {
			kl, _ := d.knowledge.Level(s)
			levels = append(levels, fmt.Sprintf("%s (%s)", s, kl.Level))
		}
		fmt.Fprintf(w, "Known subjects: %s\n", strings.Join(levels, ", "))
	}
	topics, _ := d.metadata.TopicIndex()
	fmt.Fprintf(w, "Course documents: %d", d.metadata.Len())
	if len(topics) > 0 {
		fmt.Fprintf(w, " covering %s", strings.Join(topics, ", "))
	}
	fmt.Fprintln(w)
}

func printHistory(w io.Writer, turns []session.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "(no conversation yet)")
		return
	}
	for i, t := range turns {
		switch t.Role {
		case session.RoleTool:
			status := ""
			if t.Result != nil {
				status = fmt.Sprintf("%s, %s", t.Result.ToolName, t.Result.Status)
			}
			fmt.Fprintf(w, "[%d] tool: [result: %s]\n", i+1, status)
		default:
			fmt.Fprintf(w, "[%d] %s: %s\n", i+1, t.Role, t.Text)
			for _, call := range t.ToolCalls {
				fmt.Fprintf(w, "      [call: %s]\n", call.Name)
			}
		}
	}
}
