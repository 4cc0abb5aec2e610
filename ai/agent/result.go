package agent

// StageResult tags the outcome of one pipeline stage. A failed result
// carries the record with Err set and tells the router to short-circuit
// to the composer's error path.
type StageResult struct {
	record *Record
	failed bool
}

// Continue reports a stage that completed and hands control to the next
// stage in the graph.
func Continue(r *Record) StageResult {
	return StageResult{record: r}
}

// Fail reports a stage that cannot proceed. The reason becomes the
// record's error and is rendered by the composer.
func Fail(r *Record, reason string) StageResult {
	r.Err = reason
	return StageResult{record: r, failed: true}
}

func (s StageResult) Failed() bool { return s.failed }
