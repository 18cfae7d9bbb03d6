package ocr

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// hardWorkerCap bounds parallel tesseract processes regardless of
// configuration; each one is memory-hungry.
const hardWorkerCap = 8

// FrameTask is one frame queued for recognition.
type FrameTask struct {
	Path      string
	Timestamp float64
	SegmentID *string
}

// FrameResult pairs a task with its outcome. Err is set when the engine
// failed or timed out; empty Text with a nil Err is a successful
// recognition of a textless frame.
type FrameResult struct {
	Task       FrameTask
	Text       string
	Confidence float64
	Err        error
}

// BatchOptions tune a batch run.
type BatchOptions struct {
	Workers int
	Timeout time.Duration // per frame
}

// RunBatch recognizes every task with a bounded worker pool. It always
// returns exactly len(tasks) results in input order; per-frame failures
// land in the corresponding result rather than aborting the batch.
func RunBatch(ctx context.Context, engine Engine, tasks []FrameTask, opts BatchOptions) []FrameResult {
	results := make([]FrameResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if n := runtime.NumCPU(); workers > n {
		workers = n
	}
	if workers > hardWorkerCap {
		workers = hardWorkerCap
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = recognizeOne(ctx, engine, tasks[i], opts.Timeout)
			}
		}()
	}

	for i := range tasks {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func recognizeOne(ctx context.Context, engine Engine, task FrameTask, timeout time.Duration) FrameResult {
	result := FrameResult{Task: task}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	frameCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		frameCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rec, err := engine.Recognize(frameCtx, task.Path)
	if err != nil {
		result.Err = err
		return result
	}

	result.Text = rec.Text
	result.Confidence = rec.Confidence
	return result
}
