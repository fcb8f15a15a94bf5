package linode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrDuplicateBatchResource   = errors.New("resource appears more than once in batch")
	ErrBatchFailed              = errors.New("batch failed")
)

// Batch operation types.
const (
	BatchSave      = "save"
	BatchForceSave = "force_save"
	BatchRefresh   = "refresh"
	BatchDelete    = "delete"
)

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID       string
	Type     string // BatchSave, BatchForceSave, BatchRefresh, BatchDelete
	Resource *Resource
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Error    error
	Duration time.Duration
}

// BatchExecutor runs operations on distinct resources concurrently. A
// Resource is not safe for concurrent use, so each may appear only once per
// batch.
type BatchExecutor struct {
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout of each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Every operation runs; per-operation
// failures are reported in the results, not as the returned error.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	seen := make(map[*Resource]string, len(operations))

	for _, operation := range operations {
		if operation.Resource == nil {
			return nil, fmt.Errorf("%w: operation %s", ErrMissingIdentity, operation.ID)
		}

		if previous, dup := seen[operation.Resource]; dup {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateBatchResource, previous, operation.ID)
		}

		seen[operation.Resource] = operation.ID
	}

	results := make([]BatchResult, len(operations))

	var group errgroup.Group

	group.SetLimit(b.concurrency)

	for index, operation := range operations {
		group.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	return results, nil
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	var err error

	switch operation.Type {
	case BatchSave:
		err = operation.Resource.Save(ctx, false)
	case BatchForceSave:
		err = operation.Resource.Save(ctx, true)
	case BatchRefresh:
		err = operation.Resource.Refresh(ctx)
	case BatchDelete:
		err = operation.Resource.Delete(ctx)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	result.Success = err == nil
	result.Error = err

	return result
}

// SaveAll saves distinct resources with at most concurrency saves in flight.
// The returned error wraps ErrBatchFailed and the first failure. Resources
// with no pending edits make no request.
func SaveAll(ctx context.Context, concurrency int, resources ...*Resource) error {
	operations := make([]BatchOperation, 0, len(resources))
	for index, resource := range resources {
		operations = append(operations, BatchOperation{
			ID:       strconv.Itoa(index),
			Type:     BatchSave,
			Resource: resource,
		})
	}

	results, err := NewBatchExecutor(concurrency).Execute(ctx, operations)
	if err != nil {
		return err
	}

	var errs []error

	for _, result := range results {
		if result.Error != nil {
			errs = append(errs, result.Error)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d saves failed: %w", ErrBatchFailed, len(errs), len(results), errs[0])
	}

	return nil
}
