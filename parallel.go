package pbemarker

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ParallelConfig controls parallel payload processing
type ParallelConfig struct {
	// Enabled enables parallel payload processing
	Enabled bool

	// MaxWorkers is the maximum number of worker goroutines
	// If 0, defaults to runtime.NumCPU()
	MaxWorkers int

	// MinMarkersForParallel is the minimum number of markers to use parallel processing
	// Below this threshold, sequential processing is used
	// Defaults to 4
	MinMarkersForParallel int
}

// Validate checks if the parallel configuration is valid
func (p *ParallelConfig) Validate() error {
	if !p.Enabled {
		return nil // Nothing to validate if disabled
	}

	if p.MaxWorkers < 0 {
		return errors.New("parallel max workers cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return errors.New("parallel max workers must not exceed 1024")
	}
	if p.MinMarkersForParallel < 1 {
		return errors.New("parallel min markers threshold must be at least 1")
	}
	if p.MinMarkersForParallel > 1000 {
		return errors.New("parallel min markers threshold must not exceed 1000")
	}

	return nil
}

// DefaultParallelConfig returns the default parallel processing configuration
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Enabled:               true,
		MaxWorkers:            runtime.NumCPU(),
		MinMarkersForParallel: 4,
	}
}

// payloadJob is one marker payload and the result of rewriting it
type payloadJob struct {
	marker Marker
	result string
	err    error
}

// processPayloads applies fn to every marker and returns the results in
// marker order. All workers have finished when it returns. If any payload
// fails, the error of the first failing marker is returned. A panic in fn is
// reported as an *AlgorithmError for algorithm.
func (t *Toggler) processPayloads(algorithm string, markers []Marker, fn func(Marker) (string, error)) ([]string, error) {
	if len(markers) == 0 {
		return nil, nil
	}

	jobs := make([]payloadJob, len(markers))
	for i, m := range markers {
		jobs[i].marker = m
	}

	cfg := t.config.Parallel

	// Check if parallel processing is worth it
	if !cfg.Enabled || len(jobs) < cfg.MinMarkersForParallel {
		// Sequential processing
		results := make([]string, len(jobs))
		for i := range jobs {
			runJob(&jobs[i], algorithm, fn)
			if jobs[i].err != nil {
				return nil, jobs[i].err
			}
			results[i] = jobs[i].result
		}
		return results, nil
	}

	// Determine number of workers
	numWorkers := cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// Limit workers to number of markers
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	var wg sync.WaitGroup
	jobChan := make(chan int, len(jobs))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				runJob(&jobs[idx], algorithm, fn)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()

	results := make([]string, len(jobs))
	for i := range jobs {
		if jobs[i].err != nil {
			return nil, jobs[i].err
		}
		results[i] = jobs[i].result
	}
	return results, nil
}

// runJob runs fn for one job, converting a panic into the job's error
func runJob(job *payloadJob, algorithm string, fn func(Marker) (string, error)) {
	defer func() {
		if r := recover(); r != nil {
			job.err = NewAlgorithmError(algorithm, fmt.Errorf("panic in payload worker: %v", r))
		}
	}()
	job.result, job.err = fn(job.marker)
}
