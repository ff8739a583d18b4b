package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ProjectLister returns the ids of every project to export.
type ProjectLister func(ctx context.Context) ([]string, error)

// Scheduler runs periodic exports of every project.
type Scheduler struct {
	cron     *cron.Cron
	exporter *Exporter
	projects ProjectLister
	timeout  time.Duration
}

// NewScheduler registers a GeoJSON export of all projects on spec, a
// standard five field cron expression or a descriptor such as @daily.
func NewScheduler(spec string, e *Exporter, projects ProjectLister) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		exporter: e,
		projects: projects,
		timeout:  5 * time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	log.Println("[info] operation=export_schedule cron scheduler started")
	s.cron.Start()
}

// Stop waits for a running export to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce exports every project. Failures are logged per project.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ids, err := s.projects(ctx)
	if err != nil {
		log.Printf("[error] operation=export_schedule error=%v", err)
		return
	}
	for _, id := range ids {
		if _, err := s.exporter.Export(ctx, Request{ProjectID: id, Format: FormatGeoJSON}); err != nil {
			log.Printf("[error] operation=export_schedule project=%s error=%v", id, err)
		}
	}
}
