package arh

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/arh/core/internal/extract"
	"github.com/meigma/arh/core/internal/names"
)

// Status is the result of extracting one member.
type Status uint8

// Extraction statuses.
const (
	// StatusExtracted indicates the member was written in full.
	StatusExtracted Status = iota

	// StatusNotFound indicates the requested name matched no member.
	StatusNotFound

	// StatusFailed indicates an I/O failure while writing the member.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusNotFound:
		return "not found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes what happened to one requested member.
type Outcome struct {
	// Name is the requested name, or the output name when extracting all members.
	Name string

	// Hash is the member's filename hash (or the hash of the requested name).
	Hash uint64

	Status Status

	// Path is the written file. Empty unless Status is StatusExtracted.
	Path string

	// Bytes is the number of bytes written.
	Bytes uint64

	// Digest is the sha256 digest of the written content.
	Digest digest.Digest

	// Err is set for StatusNotFound (wrapping ErrNotFound) and StatusFailed.
	Err error
}

// Report summarizes a batch extraction.
type Report struct {
	// Outcomes holds one entry per requested member, in request order.
	Outcomes []Outcome

	Attempted int
	Succeeded int
	Failed    int
	NotFound  int

	// Bytes is the total number of bytes written.
	Bytes uint64
}

// Err joins the errors of all unsuccessful outcomes, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

func (r *Report) add(o Outcome) {
	r.Attempted++
	switch o.Status {
	case StatusExtracted:
		r.Succeeded++
		r.Bytes += o.Bytes
	case StatusNotFound:
		r.NotFound++
	case StatusFailed:
		r.Failed++
	}
}

// job is one member scheduled for extraction.
type job struct {
	name  string
	d     Descriptor
	found bool
}

// ExtractOne resolves name and writes the member below dir.
//
// A name that matches no member yields a StatusNotFound outcome and an error
// wrapping ErrNotFound. I/O failures yield StatusFailed and a *MemberError.
// If ctx is already done nothing is written and the outcome is StatusFailed
// with ctx.Err().
func (a *Archive) ExtractOne(ctx context.Context, name, dir string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{Name: name, Hash: names.Hash(name), Status: StatusFailed, Err: err}, err
	}
	j := a.resolve(name)
	o := a.extractJob(j, a.sink(dir))
	return o, o.Err
}

// ExtractMany resolves and extracts each name independently. Misses and
// failures are recorded in the Report and do not stop the batch. The
// returned error is non-nil only when ctx is cancelled; the Report then
// covers the members processed so far.
func (a *Archive) ExtractMany(ctx context.Context, requested []string, dir string) (*Report, error) {
	jobs := make([]job, len(requested))
	for i, name := range requested {
		jobs[i] = a.resolve(name)
	}
	return a.run(ctx, jobs, dir)
}

// ExtractAll extracts every member, resolved or not, in on-disk order.
// Per-member failures are recorded in the Report and do not stop the batch.
// The returned error is non-nil only when ctx is cancelled.
func (a *Archive) ExtractAll(ctx context.Context, dir string) (*Report, error) {
	t := a.current()
	jobs := make([]job, 0, t.Len())
	for _, d := range t.All() {
		jobs = append(jobs, job{name: d.OutputName(), d: d, found: true})
	}
	a.log().Info("extracting all members", "members", len(jobs), "dest", dir)
	return a.run(ctx, jobs, dir)
}

func (a *Archive) resolve(name string) job {
	d, ok := a.FindByName(name)
	if !ok {
		return job{name: name, d: Descriptor{Hash: names.Hash(name)}}
	}
	return job{name: name, d: d, found: true}
}

func (a *Archive) sink(dir string) *extract.FileSink {
	return extract.NewFileSink(dir, extract.WithAtomicWrites(a.atomicWrites))
}

func (a *Archive) run(ctx context.Context, jobs []job, dir string) (*Report, error) {
	sink := a.sink(dir)
	outcomes := make([]Outcome, len(jobs))
	processed := make([]bool, len(jobs))

	var bytesDone uint64
	proc := extract.NewProcessor(a.workers)
	err := proc.Run(ctx, len(jobs), func(i int) {
		outcomes[i] = a.extractJob(jobs[i], sink)
		processed[i] = true
	}, func(i, done int) {
		bytesDone += outcomes[i].Bytes
		if a.progress != nil {
			a.progress(ProgressEvent{
				Stage:      StageExtracting,
				Name:       outcomes[i].Name,
				BytesDone:  bytesDone,
				FilesDone:  done,
				FilesTotal: len(jobs),
			})
		}
	})

	report := &Report{Outcomes: make([]Outcome, 0, len(jobs))}
	for i, o := range outcomes {
		if !processed[i] {
			continue
		}
		report.Outcomes = append(report.Outcomes, o)
		report.add(o)
	}

	a.log().Info("extraction finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"not_found", report.NotFound,
		"bytes", report.Bytes,
	)
	if err != nil {
		return report, fmt.Errorf("extraction interrupted after %d of %d members: %w", report.Attempted, len(jobs), err)
	}
	return report, nil
}

func (a *Archive) extractJob(j job, sink extract.Sink) Outcome {
	o := Outcome{Name: j.name, Hash: j.d.Hash}
	if !j.found {
		o.Status = StatusNotFound
		o.Err = fmt.Errorf("%w: %s", ErrNotFound, j.name)
		a.log().Warn("member not found", "name", j.name, "hash", HashString(j.d.Hash))
		return o
	}

	res, err := a.extractor.Extract(j.d, sink)
	if err != nil {
		o.Status = StatusFailed
		o.Err = err
		a.log().Warn("extract failed", "name", j.d.OutputName(), "hash", HashString(j.d.Hash), "err", err)
		return o
	}

	o.Status = StatusExtracted
	o.Path = res.Path
	o.Bytes = res.Bytes
	o.Digest = res.Digest
	a.log().Debug("extracted member", "name", j.d.OutputName(), "path", res.Path, "bytes", res.Bytes)
	return o
}
