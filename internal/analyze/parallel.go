package analyze

import (
	"context"
	"sync"
)

// RunParallel executes the independent per-record extractors concurrently
// and waits for all of them. Each task owns its own fallback behavior, so
// there is nothing to collect here beyond completion.
func RunParallel(ctx context.Context, tasks ...func(context.Context)) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(task)
	}
	wg.Wait()
}
