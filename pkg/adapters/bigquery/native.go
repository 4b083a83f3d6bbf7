package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
	"github.com/ruslano69/udt-framework/pkg/locations"
)

// nativeKey - пара (тип location, тип файла) native-таблицы
type nativeKey struct {
	location locations.Kind
	filetype dataset.FileType
}

// nativePaths: LOAD job читает только из GCS
var nativePaths = map[nativeKey]bool{
	{locations.KindGCS, dataset.TypeCSV}:     true,
	{locations.KindGCS, dataset.TypeNDJSON}:  true,
	{locations.KindGCS, dataset.TypeParquet}: true,
}

// CheckNativePath - чистый предикат по таблице native-путей
func (a *Adapter) CheckNativePath(src dataset.File, _ dataset.Table) bool {
	return nativePaths[nativeKey{locations.KindFromPath(src.Path), src.Type}]
}

// LoadFileNatively запускает LOAD job из GCS и опрашивает его
// до терминального состояния. Опрос ограничен настраиваемым
// интервалом и дедлайном; по ошибке или таймауту job отменяется.
func (a *Adapter) LoadFileNatively(ctx context.Context, src dataset.File, target dataset.Table,
	ifExists adapters.IfExists, options map[string]string) error {

	if !a.CheckNativePath(src, target) {
		return errs.Unsupported("native load",
			fmt.Sprintf("bigquery cannot natively read %s", src.Path))
	}

	gcsRef := bigquery.NewGCSReference(locations.RewriteGCSScheme(src.Path))
	switch src.Type {
	case dataset.TypeCSV:
		gcsRef.SourceFormat = bigquery.CSV
		gcsRef.SkipLeadingRows = 1
		gcsRef.AutoDetect = true
	case dataset.TypeNDJSON:
		gcsRef.SourceFormat = bigquery.JSON
		gcsRef.AutoDetect = true
	case dataset.TypeParquet:
		gcsRef.SourceFormat = bigquery.Parquet
	}

	loader := a.client.Dataset(a.datasetOf(target)).Table(target.Name).LoaderFrom(gcsRef)
	switch ifExists {
	case adapters.IfExistsReplace:
		loader.WriteDisposition = bigquery.WriteTruncate
	case adapters.IfExistsAppend:
		loader.WriteDisposition = bigquery.WriteAppend
	case adapters.IfExistsFail:
		loader.WriteDisposition = bigquery.WriteEmpty
	default:
		return errs.Unsupported("if_exists policy", string(ifExists))
	}

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start load job for %s: %w", src.Path, err)
	}
	return a.pollJob(ctx, job, src.Path, durationParam(options, "load_poll_interval", a.pollInterval),
		durationParam(options, "load_timeout", a.loadTimeout))
}

// pollJob опрашивает job до терминального состояния.
// Истекший дедлайн или отмена контекста отменяют и сам job,
// чтобы не оставлять его висеть на стороне BigQuery.
func (a *Adapter) pollJob(ctx context.Context, job *bigquery.Job, path string,
	interval, timeout time.Duration) error {

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := job.Status(ctx)
		if err != nil {
			a.cancelJob(job)
			return fmt.Errorf("failed to poll load job for %s: %w", path, err)
		}
		if status.Done() {
			if err := status.Err(); err != nil {
				return loadFailure(job.ID(), fmt.Sprintf("load of %s: %v", path, err))
			}
			return nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			a.cancelJob(job)
			return loadFailure(job.ID(), fmt.Sprintf("load of %s exceeded deadline %s", path, timeout))
		case <-ctx.Done():
			a.cancelJob(job)
			return ctx.Err()
		}
	}
}

// loadFailure сохраняет идентификатор job и сырое сообщение провайдера,
// чтобы вызывающий мог найти упавший job в консоли BigQuery
func loadFailure(jobID, payload string) error {
	return &errs.TransferJobError{Provider: "bigquery", JobID: jobID, Payload: payload}
}

// cancelJob отменяет job на собственном контексте:
// исходный контекст к этому моменту может быть уже отменен
func (a *Adapter) cancelJob(job *bigquery.Job) {
	cancelCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = job.Cancel(cancelCtx)
}
