package slooze

import (
	"sync"
	"sync/atomic"
	"time"
)

// TransactionMetrics provides transaction performance and failure statistics.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// FailureRate returns failed/total, or 0 with no transactions.
func (m TransactionMetrics) FailureRate() float64 {
	if m.TotalTransactions == 0 {
		return 0
	}
	return float64(m.FailedTransactions) / float64(m.TotalTransactions)
}

// Thresholds used by IsTransactionHealthy.
const (
	maxTransactionFailureRate = 0.05
	maxAverageTransaction     = time.Second
)

type transactionMonitor struct {
	totalCount    int64
	successCount  int64
	failureCount  int64
	totalDuration int64 // nanoseconds
	maxDuration   int64 // nanoseconds
	minDuration   int64 // nanoseconds; 0 until the first transaction
	lastReset     time.Time
	mu            sync.RWMutex
}

func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{lastReset: time.Now()}
}

func (tm *transactionMonitor) recordTransaction(duration time.Duration, success bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	atomic.AddInt64(&tm.totalCount, 1)
	atomic.AddInt64(&tm.totalDuration, int64(duration))
	if success {
		atomic.AddInt64(&tm.successCount, 1)
	} else {
		atomic.AddInt64(&tm.failureCount, 1)
	}

	d := int64(duration)
	for {
		current := atomic.LoadInt64(&tm.maxDuration)
		if d <= current || atomic.CompareAndSwapInt64(&tm.maxDuration, current, d) {
			break
		}
	}
	for {
		current := atomic.LoadInt64(&tm.minDuration)
		if (current != 0 && d >= current) || atomic.CompareAndSwapInt64(&tm.minDuration, current, d) {
			break
		}
	}
}

func (tm *transactionMonitor) getMetrics() TransactionMetrics {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	total := tm.totalCount
	var avg time.Duration
	if total > 0 {
		avg = time.Duration(tm.totalDuration / total)
	}
	return TransactionMetrics{
		TotalTransactions:      total,
		SuccessfulTransactions: tm.successCount,
		FailedTransactions:     tm.failureCount,
		AverageDuration:        avg,
		MaxDuration:            time.Duration(tm.maxDuration),
		MinDuration:            time.Duration(tm.minDuration),
		LastReset:              tm.lastReset,
	}
}

func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount = 0
	tm.successCount = 0
	tm.failureCount = 0
	tm.totalDuration = 0
	tm.maxDuration = 0
	tm.minDuration = 0
	tm.lastReset = time.Now()
}

// GetTransactionMetrics returns statistics for write transactions run by the store.
func (s *BunStore) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics clears the transaction statistics.
func (s *BunStore) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy reports whether at most 5% of transactions failed and the
// average duration stays under one second.
func (s *BunStore) IsTransactionHealthy() bool {
	m := s.txMonitor.getMetrics()
	return m.FailureRate() <= maxTransactionFailureRate && m.AverageDuration <= maxAverageTransaction
}
