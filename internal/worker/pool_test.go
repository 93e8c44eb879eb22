package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult is the result type of mockJob
type mockResult struct {
	err error
}

// mockJob implements Job[*mockResult]
type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) *mockResult {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{err: nil}
}

func TestNewPool(t *testing.T) {
	ctx := context.Background()

	p1 := NewPool[*mockResult](ctx, 5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool[*mockResult](ctx, 0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool[*mockResult](ctx, -1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool[*mockResult](context.Background(), 2)
	pool.Start()

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}

	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

func TestPool_ManyMoreJobsThanBuffer(t *testing.T) {
	pool := NewPool[*mockResult](context.Background(), 1)
	pool.Start()

	done := make(chan []*mockResult)
	go func() {
		for i := 0; i < 500; i++ {
			pool.Submit(&mockJob{})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 500 {
			t.Errorf("expected 500 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked on undrained results")
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) *mockResult {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[*mockResult](context.Background(), workers)
	pool.Start()

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalJobs := 50

	for i := 0; i < totalJobs; i++ {
		pool.Submit(&concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 10 * time.Millisecond,
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool[*mockResult](context.Background(), 2)
	pool.Start()

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{shouldErr: false})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	failures := 0
	for _, res := range results {
		if res.err != nil {
			failures++
		}
	}

	if failures != 1 {
		t.Errorf("expected 1 error, got %d", failures)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool[*mockResult](context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(&mockJob{})
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("expected Submit to refuse jobs after shutdown")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownReturnsFinished(t *testing.T) {
	pool := NewPool[*mockResult](context.Background(), 1)
	pool.Start()

	pool.Submit(&mockJob{})
	pool.Submit(&mockJob{duration: 2 * time.Second})
	time.Sleep(100 * time.Millisecond)

	results := pool.Shutdown()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].err != nil {
		t.Errorf("expected first job to succeed, got %v", results[0].err)
	}
	if !errors.Is(results[1].err, context.Canceled) {
		t.Errorf("expected running job to be cancelled, got %v", results[1].err)
	}
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[*mockResult](ctx, 1)
	pool.Start()

	pool.Submit(&mockJob{duration: 2 * time.Second})
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Wait did not return after parent cancellation")
	}
}

func TestReadFiles_SortedByPath(t *testing.T) {
	dir := t.TempDir()
	names := []string{"c.txt", "a.txt", "b.txt"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0644); err != nil {
			t.Fatal(err)
		}
	}
	paths := []string{
		filepath.Join(dir, "c.txt"),
		filepath.Join(dir, "missing.txt"),
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
	}

	results := ReadFiles(context.Background(), paths, 3)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	want := []string{"a.txt", "b.txt", "c.txt", "missing.txt"}
	for i, r := range results {
		if filepath.Base(r.Path) != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], filepath.Base(r.Path))
		}
	}
	if string(results[0].Data) != "a.txt" {
		t.Errorf("expected content 'a.txt', got %q", results[0].Data)
	}
	if results[3].Error == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadFiles_Empty(t *testing.T) {
	if got := ReadFiles(context.Background(), nil, 2); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestReadFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"b.txt", "a.txt", "c.txt"}
	results := ReadFiles(ctx, paths, 2)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, r.Error)
		}
	}
	if results[0].Path != "a.txt" {
		t.Errorf("expected results sorted by path, got %s first", results[0].Path)
	}
}
