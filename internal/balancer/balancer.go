// Package balancer plans how assignment work is split across the worker pool.
package balancer

import "github.com/vicharanashala/ajrasakha-sub003/internal/model"

const (
	minWorkers = 2
	maxWorkers = 6
)

// PoolSize is half the CPU count, clamped to [2, 6].
func PoolSize(cpus int) int {
	return min(maxWorkers, max(minWorkers, cpus/2))
}

// Chunk splits assignments into at most k contiguous chunks of
// ceil(n/k) items. Order is preserved and no chunk is empty.
func Chunk(assignments []model.Assignment, k int) [][]model.Assignment {
	n := len(assignments)
	if n == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}

	size := (n + k - 1) / k
	chunks := make([][]model.Assignment, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		chunks = append(chunks, assignments[start:end:end])
	}
	return chunks
}

// Plan pairs each question with the least loaded expert that did not ask it.
// loads is updated in place so consecutive picks spread across experts.
// Questions nobody can take are left out.
func Plan(questions []model.Question, loads []model.ExpertLoad) []model.Assignment {
	if len(loads) == 0 {
		return nil
	}

	assignments := make([]model.Assignment, 0, len(questions))
	for _, q := range questions {
		best := -1
		for i, l := range loads {
			if l.ExpertID == q.CreatedBy {
				continue
			}
			if best == -1 || l.Open < loads[best].Open {
				best = i
			}
		}
		if best == -1 {
			continue
		}
		loads[best].Open++
		assignments = append(assignments, model.Assignment{
			QuestionID: q.ID,
			ExpertID:   loads[best].ExpertID,
		})
	}
	return assignments
}
