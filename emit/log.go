package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogProcessor writes structured log output to a writer: text mode
// (key=value pairs) or JSON mode (one event per line).
type LogProcessor struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogProcessor builds a LogProcessor. A nil writer defaults to os.Stdout.
func NewLogProcessor(writer io.Writer, jsonMode bool) *LogProcessor {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogProcessor{writer: writer, jsonMode: jsonMode}
}

func (p *LogProcessor) OnEvent(ev Event) {
	if p.jsonMode {
		b, err := json.Marshal(ev)
		if err != nil {
			fmt.Fprintf(p.writer, "{\"error\":%q}\n", err.Error())
			return
		}
		fmt.Fprintln(p.writer, string(b))
		return
	}
	fmt.Fprintf(p.writer, "[%s] run=%s step=%d node=%s meta=%v\n", ev.Kind, ev.RunID, ev.Step, ev.NodeID, ev.Meta)
}

func (p *LogProcessor) Shutdown(ctx context.Context) error { return nil }
