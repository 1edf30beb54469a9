// Package sweep drives the whole benchmark run: for every concurrency
// value in the expanded range, for every sample index, restart the server,
// run the client, extract metrics and emit one result row. The loop is
// strictly sequential so no sample contends with another for the host.
package sweep

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"membench/internal/client"
	"membench/internal/config"
	"membench/internal/extract"
	"membench/internal/server"
	"membench/internal/sink"
)

// Controller composes the per-sample collaborators into the sweep loop.
type Controller struct {
	cfg    *config.RunConfig
	server *server.Controller
	prober *client.Prober
	ex     extract.Extractor
	sink   *sink.Sink
	log    *zap.SugaredLogger

	summary *summary
}

func NewController(cfg *config.RunConfig, srv *server.Controller, prober *client.Prober,
	ex extract.Extractor, out *sink.Sink, log *zap.SugaredLogger) *Controller {
	return &Controller{
		cfg:     cfg,
		server:  srv,
		prober:  prober,
		ex:      ex,
		sink:    out,
		log:     log,
		summary: newSummary(cfg.Backend),
	}
}

// Run executes the full sweep. Process failures abort the run; extraction
// failures skip the affected sample. If any sample was skipped, Run
// returns an error after the sweep completes so the exit status reflects
// the incomplete result set.
func (c *Controller) Run() error {
	conns, err := config.ExpandRange(c.cfg.ClientConnections)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	c.log.Infow("starting sweep",
		"run_id", runID,
		"backend", c.cfg.Backend.String(),
		"values", len(conns),
		"samples", c.cfg.Samples,
		"dry_run", c.cfg.DryRun,
	)

	if err := c.sink.WriteHeader(c.ex.Header()); err != nil {
		return err
	}

	skipped := 0
	for _, conn := range conns {
		for sample := 0; sample < c.cfg.Samples; sample++ {
			if err := c.runSample(conn, sample); err != nil {
				var xerr *extract.ExtractionError
				if errors.As(err, &xerr) {
					c.log.Errorw("sample skipped",
						"connections", conn, "sample", sample+1, "error", err)
					skipped++
					continue
				}
				return err
			}
		}
	}

	c.summary.print()

	if skipped > 0 {
		return fmt.Errorf("sweep finished with %d of %d samples skipped",
			skipped, len(conns)*c.cfg.Samples)
	}
	return nil
}

// runSample performs one measurement: unconditional server restart, the
// measurement window (with the resource probe bracketing the client run
// on the throughput backend), extraction and emission. The server is
// stopped again on every exit path so a failed sample never leaks a
// process into the next one.
func (c *Controller) runSample(conn, sample int) error {
	// Restart from a clean slate even if a previous sample died mid-way.
	if err := c.server.Stop(nil); err != nil {
		return err
	}
	h, err := c.server.Start()
	if err != nil {
		return err
	}
	defer func() {
		if serr := c.server.Stop(h); serr != nil {
			c.log.Errorw("failed to stop server after sample", "error", serr)
		}
	}()

	clientOut, probeOut, err := c.measure(conn)
	if err != nil {
		return err
	}

	if c.cfg.DryRun {
		return nil
	}

	rec, err := c.ex.Extract(clientOut, probeOut)
	if err != nil {
		return err
	}

	concurrency := c.prober.Concurrency(conn)
	fields := append(
		[]string{strconv.Itoa(sample + 1), strconv.Itoa(concurrency)},
		rec.Columns()...,
	)
	if err := c.sink.WriteRow(fields); err != nil {
		return err
	}

	c.summary.add(concurrency, rec.Primary())
	return nil
}

// measure runs the client, bracketed by the resource probe on the
// throughput backend. The probe is always stopped, even when the client
// fails, so no sar lingers on the host.
func (c *Controller) measure(conn int) (clientOut, probeOut []byte, err error) {
	if c.cfg.Backend != config.Memaslap {
		clientOut, err = c.runClient(conn)
		return clientOut, nil, err
	}

	ph, err := c.server.StartProbe()
	if err != nil {
		return nil, nil, err
	}
	clientOut, cerr := c.runClient(conn)
	probeOut, perr := c.server.StopProbe(ph)
	if cerr != nil {
		return nil, nil, cerr
	}
	if perr != nil {
		return nil, nil, perr
	}
	return clientOut, probeOut, nil
}

func (c *Controller) runClient(conn int) ([]byte, error) {
	out, err := c.prober.Run(conn)
	if err != nil {
		// A failed client invocation means this sample has no usable
		// output; it is scoped like any other extraction failure.
		return nil, &extract.ExtractionError{Field: "client output", Err: err}
	}
	return out, nil
}
