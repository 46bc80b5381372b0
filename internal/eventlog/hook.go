package eventlog

// EvictionHook is an optional callback invoked after each committed batch of
// front removals. recs holds the records that decoded cleanly, oldest first.
// Implementations must not call back into the Log.
type EvictionHook interface {
	OnEvict(queue string, recs []Record)
}

// EvictionHookFunc adapts a function to EvictionHook.
type EvictionHookFunc func(queue string, recs []Record)

func (f EvictionHookFunc) OnEvict(queue string, recs []Record) { f(queue, recs) }

// MultiHook fans out to several hooks in order.
type MultiHook []EvictionHook

func (m MultiHook) OnEvict(queue string, recs []Record) {
	for _, h := range m {
		if h != nil {
			h.OnEvict(queue, recs)
		}
	}
}

type noopHook struct{}

func (noopHook) OnEvict(string, []Record) {}
