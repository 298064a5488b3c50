package taskhook

import (
	"fmt"
	"os"
	"time"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/internal/detect"
	"github.com/taskhook-project/taskhook/internal/dispatch"
	"github.com/taskhook-project/taskhook/internal/emit"
	"github.com/taskhook-project/taskhook/internal/executor"
	"github.com/taskhook-project/taskhook/internal/metrics"
	"github.com/taskhook-project/taskhook/internal/parser"
	"github.com/taskhook-project/taskhook/internal/registry"
	"github.com/taskhook-project/taskhook/internal/store"
	"github.com/taskhook-project/taskhook/pkg/config"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Client provides high-level taskhook operations on one project.
type Client struct {
	root string
	cfg  *config.Config

	// ToolVersion is stamped into emitted events and audit records.
	ToolVersion string
}

// Open opens an existing taskhook project rooted at projectRoot.
func Open(projectRoot string) (*Client, error) {
	if _, err := os.Stat(config.HooksBaseDir(projectRoot)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not a taskhook project: %s", projectRoot)
		}
		return nil, err
	}
	return open(projectRoot)
}

// OpenOrInit opens a project, initializing the .taskhook directory with
// defaults if it does not exist yet.
func OpenOrInit(projectRoot string) (*Client, error) {
	if err := os.MkdirAll(config.HooksBaseDir(projectRoot), 0o755); err != nil {
		return nil, fmt.Errorf("init project: %w", err)
	}
	if _, err := os.Stat(config.FilePath(projectRoot)); os.IsNotExist(err) {
		if err := config.Save(projectRoot, config.Default()); err != nil {
			return nil, err
		}
	}
	return open(projectRoot)
}

func open(projectRoot string) (*Client, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	return &Client{root: projectRoot, cfg: cfg, ToolVersion: "dev"}, nil
}

// Root returns the project root directory.
func (c *Client) Root() string { return c.root }

// Config returns the loaded project configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// RunOptions selects the two snapshots a Run compares.
type RunOptions struct {
	// Before and After are git revisions of the tracked directory.
	Before string
	After  string

	// BeforeDocs and AfterDocs, when non-nil, supply the document sets
	// directly and bypass git entirely.
	BeforeDocs map[string]string
	AfterDocs  map[string]string
}

// Run detects changes between the two snapshots, emits events, and
// dispatches them through the hook registry. Every execution attempt is
// in the audit log before Run returns. The returned error is non-nil
// when a stop-mode hook blocked the operation or infrastructure failed;
// the summary is valid either way.
func (c *Client) Run(opts RunOptions) (*dispatch.Summary, error) {
	beforeDocs, afterDocs, err := c.loadDocs(opts)
	if err != nil {
		return nil, err
	}

	before := parser.ParseSet(beforeDocs)
	after := parser.ParseSet(afterDocs)

	deltas := detect.NewDetector(c.cfg.TerminalStatus).Detect(before, after)
	events := emit.NewEmitter(c.ToolVersion).Emit(deltas)

	reg, err := registry.Load(config.HooksPath(c.root))
	if err != nil {
		return nil, err
	}

	exec := executor.New(c.root, config.HooksBaseDir(c.root))
	exec.Shell = reg.Defaults.Shell

	sink := audit.NewFileAppender(config.AuditLogPath(c.root), c.cfg.Audit.MaxSizeMB, c.cfg.Audit.MaxBackups)
	defer sink.Close()

	return dispatch.NewDispatcher(reg, exec, sink, c.ToolVersion).Dispatch(events)
}

func (c *Client) loadDocs(opts RunOptions) (map[string]string, map[string]string, error) {
	if opts.BeforeDocs != nil || opts.AfterDocs != nil {
		if opts.BeforeDocs == nil || opts.AfterDocs == nil {
			return nil, nil, fmt.Errorf("BeforeDocs and AfterDocs must be given together")
		}
		return opts.BeforeDocs, opts.AfterDocs, nil
	}

	s := store.NewGitStore(c.root, c.cfg.TrackedDir)
	before, err := s.Documents(opts.Before)
	if err != nil {
		return nil, nil, err
	}
	after, err := s.Documents(opts.After)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// AuditRecords lists audit records matching the filter, oldest first.
func (c *Client) AuditRecords(f audit.Filter) ([]model.HookExecutionRecord, error) {
	return audit.NewReader(config.AuditLogPath(c.root)).List(f)
}

// VerifyAudit recomputes the audit hash chain. A nil error means the log
// is intact.
func (c *Client) VerifyAudit() error {
	_, err := audit.NewReader(config.AuditLogPath(c.root)).Verify()
	return err
}

// Metrics rebuilds the metrics window containing now from the audit log.
func (c *Client) Metrics(now time.Time) (*model.MetricsWindow, error) {
	window, err := time.ParseDuration(c.cfg.Metrics.Window)
	if err != nil {
		return nil, fmt.Errorf("invalid metrics window %q: %w", c.cfg.Metrics.Window, err)
	}
	agg := metrics.NewAggregator(audit.NewReader(config.AuditLogPath(c.root)), window)
	return agg.Current(now)
}
