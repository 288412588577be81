package emit

import "context"

// NullProcessor discards every event; the default when no processors are
// configured.
type NullProcessor struct{}

func NewNullProcessor() *NullProcessor { return &NullProcessor{} }

func (NullProcessor) OnEvent(Event)                     {}
func (NullProcessor) Shutdown(ctx context.Context) error { return nil }
