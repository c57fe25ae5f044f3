package screening

import (
	"sync"
	"testing"
)

func TestSourceIDIsValid(t *testing.T) {
	for _, id := range IDs() {
		if !id.IsValid() {
			t.Errorf("IsValid() = false for known source %q", id)
		}
	}
	if SourceID("v3").IsValid() {
		t.Error("IsValid() = true for unknown source v3")
	}
}

func TestQueryResultFailed(t *testing.T) {
	q := &QueryResult{
		Name:     "Alice Doe",
		BySource: map[SourceID][]MatchRecord{SourceV2: {}},
		Errors:   map[SourceID]string{SourceV4: "timeout"},
	}

	if !q.Failed(SourceV4) {
		t.Error("Failed(v4) = false, want true")
	}
	if q.Failed(SourceV2) {
		t.Error("Failed(v2) = true for a source that returned")
	}
	if got := q.Matches(SourceV2); got == nil || len(got) != 0 {
		t.Errorf("Matches(v2) = %v, want empty non-nil", got)
	}
}

func TestResultSetConcurrentAppend(t *testing.T) {
	set := NewResultSet()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set.Append(&QueryResult{Name: "x"})
		}()
	}
	wg.Wait()

	if set.Len() != 50 {
		t.Errorf("Len() = %d, want 50", set.Len())
	}
}
