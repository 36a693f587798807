package services

import (
	"context"

	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"

	"github.com/google/uuid"
)

// faultyReceiptRepo wraps a real receipt repository and injects failures on
// selected operations, for exercising the cross-store failure paths.
type faultyReceiptRepo struct {
	repositories.ReceiptRepositoryInterface
	failCreate error
	failRelink error
}

func (r *faultyReceiptRepo) Create(ctx context.Context, receipt *models.ReceiptMetadata) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	return r.ReceiptRepositoryInterface.Create(ctx, receipt)
}

func (r *faultyReceiptRepo) RelinkExpenseRef(ctx context.Context, receiptIDs []uuid.UUID, expenseID uuid.UUID) error {
	if r.failRelink != nil {
		return r.failRelink
	}
	return r.ReceiptRepositoryInterface.RelinkExpenseRef(ctx, receiptIDs, expenseID)
}

// faultyExpenseRepo injects failures on ledger deletes.
type faultyExpenseRepo struct {
	repositories.ExpenseRepositoryInterface
	failDelete error
}

func (r *faultyExpenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.failDelete != nil {
		return r.failDelete
	}
	return r.ExpenseRepositoryInterface.Delete(ctx, id)
}

// countingMetrics records calls so tests can assert on the recorded values.
type countingMetrics struct {
	MetricsRecorderInterface
	cascadeCleared   int
	orphansReclaimed int
	receiptOps       map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		MetricsRecorderInterface: NewNoopMetrics(),
		receiptOps:               make(map[string]int),
	}
}

func (m *countingMetrics) RecordCascadeCleared(count int) {
	m.cascadeCleared += count
}

func (m *countingMetrics) RecordOrphansReclaimed(count int) {
	m.orphansReclaimed += count
}

func (m *countingMetrics) RecordReceiptOp(operation, status string) {
	m.receiptOps[operation+":"+status]++
}
