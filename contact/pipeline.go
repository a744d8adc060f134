package contact

import "sync"

// task fans fn out over data across workersCount goroutines. Candidate
// evaluations are independent, so chunks never share mutable state.
func task[T any](workersCount int, data []T, fn func(data T)) {
	if workersCount <= 1 {
		for i := range data {
			fn(data[i])
		}
		return
	}

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
