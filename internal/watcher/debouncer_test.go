package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(timeout):
		t.Fatal("timeout waiting for debounced events")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(30*time.Millisecond, nil)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "rules.yaml", Operation: OpCreate})

	// Then: it passes through after the window
	events := receive(t, d, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, "rules.yaml", events[0].Path)
	assert.Equal(t, OpCreate, events[0].Operation)
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{name: "modify bursts", ops: []Operation{OpModify, OpModify, OpModify}, want: OpModify},
		{name: "create then modify", ops: []Operation{OpCreate, OpModify}, want: OpCreate},
		{name: "modify then delete", ops: []Operation{OpModify, OpDelete}, want: OpDelete},
		{name: "delete then create", ops: []Operation{OpDelete, OpCreate}, want: OpModify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(50*time.Millisecond, nil)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "a.json", Operation: op})
			}

			events := receive(t, d, time.Second)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDelete_Cancels(t *testing.T) {
	// Given: a create and a delete of one file, plus another file
	d := NewDebouncer(50*time.Millisecond, nil)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpDelete})
	d.Add(FileEvent{Path: "keep.yaml", Operation: OpModify})

	// Then: only the other file is reported
	events := receive(t, d, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, "keep.yaml", events[0].Path)
}

func TestDebouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, nil)
	defer d.Stop()

	d.Add(FileEvent{Path: "b.yaml", Operation: OpModify})
	d.Add(FileEvent{Path: "a.yaml", Operation: OpModify})

	events := receive(t, d, time.Second)
	require.Len(t, events, 2)
	assert.Equal(t, "a.yaml", events[0].Path)
	assert.Equal(t, "b.yaml", events[1].Path)
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Second, nil)
	d.Add(FileEvent{Path: "a.yaml", Operation: OpModify})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.yaml", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}
