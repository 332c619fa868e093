package ingest

// DocumentReport summarizes the outcome for one ingested document.
type DocumentReport struct {
	Path    string
	Name    string
	Chunks  int
	Dropped int
}

// Failure records a document that was skipped, with the reason.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes an ingestion run. Failures are per-document; a run with
// failures still persists every document that succeeded.
type Report struct {
	RunID     string
	Documents []DocumentReport
	Failures  []Failure

	// Chunks is the total persisted across all documents.
	Chunks int

	// Dropped is the total chunk count lost to per-document caps.
	Dropped int
}
