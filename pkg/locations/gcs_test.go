package locations

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/ruslano69/udt-framework/pkg/errs"
)

func TestGCSMapError(t *testing.T) {
	l := &GCS{path: "gs://bucket/data.csv", connID: "gcs_main"}

	if err := l.mapError("gs://bucket/data.csv", storage.ErrObjectNotExist); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing object, got %v", err)
	}
	if err := l.mapError("gs://bucket", storage.ErrBucketNotExist); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing bucket, got %v", err)
	}

	// SDK оборачивает googleapi.Error, errors.As должен его достать
	forbidden := fmt.Errorf("read object: %w",
		&googleapi.Error{Code: http.StatusForbidden, Message: "access denied"})
	if err := l.mapError("gs://bucket/data.csv", forbidden); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied for 403, got %v", err)
	}

	// прочие коды не считаются отказом в доступе
	server := &googleapi.Error{Code: http.StatusInternalServerError}
	if err := l.mapError("gs://bucket/data.csv", server); errors.Is(err, errs.ErrPermissionDenied) ||
		errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected generic error for 500, got %v", err)
	}
}
