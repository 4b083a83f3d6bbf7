package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestSentinelWrapping(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		contains string
	}{
		{NotFound("s3://bucket/missing.csv"), ErrNotFound, "missing.csv"},
		{PermissionDenied("my_s3", "bucket/key"), ErrPermissionDenied, "conn my_s3"},
		{PermissionDenied("", "bucket/key"), ErrPermissionDenied, "bucket/key"},
		{NotImplemented("duckdb", "MergeTables"), ErrNotImplemented, "adapter duckdb"},
		{Unsupported("native path", "sftp + parquet"), ErrUnsupported, "sftp + parquet"},
		{SchemaMismatch("row has 2 values"), ErrSchemaMismatch, "row has 2 values"},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("Expected %v to match sentinel %v", tt.err, tt.sentinel)
		}
		if !strings.Contains(tt.err.Error(), tt.contains) {
			t.Errorf("Expected %q in error, got: %v", tt.contains, tt.err)
		}
	}
}

func TestTransferJobError(t *testing.T) {
	withJob := &TransferJobError{Provider: "bigquery", JobID: "job_1", Payload: "quota exceeded"}
	if !strings.Contains(withJob.Error(), "bigquery job job_1") {
		t.Errorf("Unexpected message: %v", withJob)
	}

	withoutJob := &TransferJobError{Provider: "snowflake", Payload: "stage missing"}
	if !strings.Contains(withoutJob.Error(), "snowflake job failed") {
		t.Errorf("Unexpected message: %v", withoutJob)
	}
}
