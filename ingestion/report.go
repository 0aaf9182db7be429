package ingestion

// RejectedRecord notes one record that failed validation and was
// excluded before reaching the vector store.
type RejectedRecord struct {
	RecordID string
	Err      error
}

// BatchFailure notes one batch that did not make it into the store.
type BatchFailure struct {
	BatchID int
	Err     error
}

// Report is the complete accounting of one ingestion run. Every
// dispatched batch appears exactly once: its records are counted in
// TotalSucceeded or it is listed in FailedBatches.
type Report struct {
	// TotalSucceeded is the number of records upserted.
	TotalSucceeded int

	// TotalBatches is the number of batches dispatched.
	TotalBatches int

	// RejectedRecords lists records excluded by validation.
	RejectedRecords []RejectedRecord

	// FailedBatches lists batches that failed wholesale.
	FailedBatches []BatchFailure
}

// OK reports whether the run completed without failures or rejections.
func (r *Report) OK() bool {
	return len(r.FailedBatches) == 0 && len(r.RejectedRecords) == 0
}
