package pipeline

import (
	"fmt"

	"github.com/alitto/pond"

	terrane "github.com/kestrel-gis/terrane"
)

// Run plans inputPath (spec.md §4.6 step 1-2) and rasterises every resulting
// job across a fixed worker pool, one thread per logical CPU (step 3),
// writing each tile independently as it finishes (step 5). Grounded directly
// on the teacher's `convert_gsf_list`'s
// `pond.New(n, 0, pond.MinWorkers(n), ...)` pool.
func Run(inputPath string, opts Options) error {
	jobs, err := Plan(inputPath, opts.OutputDir)
	if err != nil {
		return err
	}
	if opts.Verbose {
		fmt.Printf("planned %d tile(s)\n", len(jobs))
	}

	n := terrane.GetConfig().NumWorkers()
	pool := pond.New(n, 0, pond.MinWorkers(n))

	errs := make(chan error, len(jobs))
	for _, j := range jobs {
		job := j
		pool.Submit(func() {
			err := ProcessTile(job, jobs, opts)
			if opts.Verbose {
				if err != nil {
					fmt.Printf("tile %d (%s): %v\n", job.Index, job.Input.Path, err)
				} else {
					fmt.Printf("tile %d (%s): wrote %s\n", job.Index, job.Input.Path, job.Output)
				}
			}
			errs <- err
		})
	}

	pool.StopAndWait()
	close(errs)

	var firstErr error
	for err := range errs {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
