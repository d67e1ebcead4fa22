package scheduler

import (
	"context"

	"github.com/iwvelando/loan-revision/internal/indexstore"
)

// ImportJob re-imports an index document from disk.
type ImportJob struct {
	importer *indexstore.Importer
	path     string
}

// NewImportJob creates a job importing path through importer.
func NewImportJob(importer *indexstore.Importer, path string) *ImportJob {
	return &ImportJob{importer: importer, path: path}
}

func (j *ImportJob) Name() string { return "index-import" }

func (j *ImportJob) Run(ctx context.Context) error {
	_, err := j.importer.ImportFile(ctx, j.path)
	return err
}
