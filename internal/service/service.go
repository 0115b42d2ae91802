// Package service is the operation surface front-ends call: analysis,
// metadata removal and editing, batch cleanup and report export.
package service

import (
	"fmt"
	"log/slog"
	"strings"

	"filelens/internal/analyzer"
	"filelens/internal/cleanup"
	"filelens/internal/config"
	"filelens/internal/export"
	"filelens/internal/processor"
	"filelens/internal/report"
	"filelens/internal/risk"
)

// ProgressChannel names the event channel cleanup progress is emitted on.
const ProgressChannel = "cleanup://progress"

// Emitter delivers cleanup events to the front-end.
type Emitter interface {
	Emit(channel string, event cleanup.Progress)
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func(channel string, event cleanup.Progress)

func (f EmitterFunc) Emit(channel string, event cleanup.Progress) {
	f(channel, event)
}

// Chooser asks the user where to save an export. It receives the suggested
// file name and returns ok == false when the user cancels.
type Chooser func(suggested string) (path string, ok bool)

type Service struct {
	analyzer     *analyzer.Analyzer
	writer       *processor.Writer
	orchestrator *cleanup.Orchestrator
	emitter      Emitter
	log          *slog.Logger
}

// New wires the engine from cfg. A nil emitter drops cleanup events.
func New(cfg *config.Config, emitter Emitter, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = EmitterFunc(func(string, cleanup.Progress) {})
	}

	taxonomy, err := risk.Load(cfg.Risk.TaxonomyFile)
	if err != nil {
		return nil, err
	}

	an := analyzer.New(analyzer.Options{
		HashLimit: cfg.Analysis.HashLimitBytes,
		Taxonomy:  taxonomy,
		Logger:    logger.With("component", "analyzer"),
	})
	writer := processor.New(processor.Options{
		PreserveICC: cfg.Cleanup.PreserveICC,
		Logger:      logger.With("component", "writer"),
	})

	return &Service{
		analyzer:     an,
		writer:       writer,
		orchestrator: cleanup.New(writer, an, logger.With("component", "cleanup")),
		emitter:      emitter,
		log:          logger,
	}, nil
}

func (s *Service) AnalyzeFile(path string, includeHash bool) (*report.Report, error) {
	return s.analyzer.AnalyzeFile(path, includeHash)
}

func (s *Service) AnalyzeDirectory(path string, recursive bool) (*report.DirectorySummary, error) {
	return s.analyzer.AnalyzeDirectory(path, recursive)
}

func (s *Service) AnalyzeFiles(paths []string) *report.DirectorySummary {
	return s.analyzer.AnalyzeFiles(paths)
}

// ListCleanupFiles returns what StartCleanup would process, without
// modifying anything.
func (s *Service) ListCleanupFiles(path string, recursive bool, filter cleanup.Filter) ([]string, error) {
	return s.orchestrator.List(path, recursive, filter)
}

func (s *Service) RemoveMetadata(path string) (processor.Result, error) {
	return s.writer.RemoveMetadata(path)
}

func (s *Service) EditOfficeMetadata(path string, field processor.OfficeField, value string) error {
	return s.writer.EditOfficeMetadata(path, field, value)
}

// StartCleanup launches a batch over the files under path and returns as
// soon as it is running. Events go to the emitter on ProgressChannel.
func (s *Service) StartCleanup(path string, recursive bool, filter cleanup.Filter) (*Cleanup, error) {
	batch, err := s.orchestrator.Start(path, recursive, filter)
	if err != nil {
		return nil, err
	}
	return s.forward(batch), nil
}

// StartCleanupFiles launches a batch over an explicit path list.
func (s *Service) StartCleanupFiles(paths []string, filter cleanup.Filter) (*Cleanup, error) {
	batch, err := s.orchestrator.StartFiles(paths, filter)
	if err != nil {
		return nil, err
	}
	return s.forward(batch), nil
}

func (s *Service) forward(batch *cleanup.Batch) *Cleanup {
	c := &Cleanup{ID: batch.ID, Total: batch.Total, batch: batch, forwarded: make(chan struct{})}
	go func() {
		defer close(c.forwarded)
		for ev := range batch.Events() {
			s.emitter.Emit(ProgressChannel, ev)
		}
	}()
	return c
}

// Cleanup is a running batch whose events are being forwarded.
type Cleanup struct {
	ID    string
	Total int

	batch     *cleanup.Batch
	forwarded chan struct{}
}

// Wait returns once the batch is done and every event has been emitted.
func (c *Cleanup) Wait() cleanup.Finished {
	finished := c.batch.Wait()
	<-c.forwarded
	return finished
}

// ExportReport writes rep where choose says. A blank suggestedName becomes
// "<stem>-metadata.<ext>". It returns ok == false when the user cancels.
func (s *Service) ExportReport(rep *report.Report, f export.Format, suggestedName string, choose Chooser) (string, bool, error) {
	name := strings.TrimSpace(suggestedName)
	if name == "" {
		name = export.DefaultName(rep, f)
	}
	name = export.EnsureExtension(name, f)

	path, ok := choose(name)
	if !ok || strings.TrimSpace(path) == "" {
		s.log.Debug("export cancelled", "format", f.String())
		return "", false, nil
	}
	path = export.EnsureExtension(path, f)

	if err := export.WriteFile(path, rep, f); err != nil {
		return "", false, fmt.Errorf("export %s: %w", f, err)
	}
	s.log.Info("exported report", "path", path, "format", f.String())
	return path, true, nil
}
