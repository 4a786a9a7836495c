package scanner

import (
	"context"
	"sync"

	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
	"github.com/toolkits/pkg/concurrent/semaphore"
)

type slot[T any] struct {
	val T
	ok  bool
}

// fanOut inspects every pid independently. A pid that vanished, or whose
// inspection panicked, leaves its slot empty and does not affect the rest.
// Once ctx is done no further inspections start.
func fanOut[T any](ctx context.Context, pids []procutil.PID, concurrency int, inspect func(procutil.PID) (T, bool)) Report[T] {
	slots := make([]slot[T], len(pids))

	var wg sync.WaitGroup
	se := semaphore.NewSemaphore(concurrency)

	for i, pid := range pids {
		if ctx.Err() != nil {
			logger.Logger.Debugw("fleet scan stopped early", "inspected", i, "total", len(pids), "error", ctx.Err())
			break
		}

		se.Acquire()
		wg.Add(1)
		go func(idx int, pid procutil.PID) {
			defer wg.Done()
			defer se.Release()
			defer func() {
				if r := recover(); r != nil {
					logger.Logger.Errorw("panic in scan goroutine", "pid", pid, "recover", r)
					slots[idx] = slot[T]{}
				}
			}()

			val, ok := inspect(pid)
			slots[idx] = slot[T]{val: val, ok: ok}
		}(i, pid)
	}
	wg.Wait()

	report := make(Report[T])
	for i := range slots {
		if slots[i].ok {
			report[pids[i]] = slots[i].val
		}
	}
	return report
}
