package core

import "time"

// Wire-format field names shared by readers, clients, and writers.
const (
	FieldRecordID    = "recordId"
	FieldModelInput  = "modelInput"
	FieldModelOutput = "modelOutput"
	FieldTotalTokens = "total_tokens"
	FieldError       = "error"
)

// Record is one unit of work read from an input file: a JSON object keyed by
// string. Records are not mutated after decode; the dispatch pipeline builds
// a fresh AnnotatedRecord per input.
type Record map[string]any

// ID returns the record's identifier, or "" when none is present.
func (r Record) ID() string {
	if id, ok := r[FieldRecordID].(string); ok {
		return id
	}
	return ""
}

// ModelInput returns the record's payload field. The second return reports
// whether a non-empty payload was present.
func (r Record) ModelInput() (any, bool) {
	input, ok := r[FieldModelInput]
	if !ok || input == nil {
		return nil, false
	}
	if m, isMap := input.(map[string]any); isMap && len(m) == 0 {
		return input, false
	}
	return input, true
}

// AnnotatedRecord is a processed record: the original payload plus the model
// output (or a captured error) and the resolved record identifier.
type AnnotatedRecord map[string]any

// Annotate builds the successful output shape for one record.
func Annotate(input any, output any, id string) AnnotatedRecord {
	return AnnotatedRecord{
		FieldModelInput:  input,
		FieldModelOutput: output,
		FieldRecordID:    id,
	}
}

// AnnotateError captures a per-record failure as data. The batch keeps going;
// the failure is visible only as modelOutput.error in the output file.
func AnnotateError(input any, err error, id string) AnnotatedRecord {
	return AnnotatedRecord{
		FieldModelInput:  input,
		FieldModelOutput: map[string]any{FieldError: err.Error()},
		FieldRecordID:    id,
	}
}

// Failed reports whether the record carries a captured error.
func (a AnnotatedRecord) Failed() bool {
	output, ok := a[FieldModelOutput].(map[string]any)
	if !ok {
		return false
	}
	_, failed := output[FieldError]
	return failed
}

// FileResult summarizes the processing of a single input file.
type FileResult struct {
	Input        string        `json:"input"`
	Output       string        `json:"output"`
	Records      int           `json:"records"`
	Failures     int           `json:"failures"`
	SkippedLines int           `json:"skipped_lines"`
	Duration     time.Duration `json:"duration"`
}

// RunSummary reports a full pipeline run across all input files.
type RunSummary struct {
	ExecutionID  string       `json:"execution_id"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  time.Time    `json:"completed_at"`
	Files        []FileResult `json:"files"`
	SkippedFiles []string     `json:"skipped_files,omitempty"`
}

// TotalRecords sums record counts across all processed files.
func (s *RunSummary) TotalRecords() int {
	total := 0
	for _, f := range s.Files {
		total += f.Records
	}
	return total
}

// TotalFailures sums captured per-record failures across all processed files.
func (s *RunSummary) TotalFailures() int {
	total := 0
	for _, f := range s.Files {
		total += f.Failures
	}
	return total
}
