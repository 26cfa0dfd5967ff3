// Package dispatcher runs one test definition: it resolves the category, executes the comparison
// on a scoped connection and applies the expected-result and timeout policy.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shibukawa/snapcheck/compare"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/queryexec"
	"github.com/shibukawa/snapcheck/registry"
	"github.com/shibukawa/snapcheck/result"
)

// Sentinel errors
var (
	ErrComparatorPanic = errors.New("comparison panicked")
	ErrNoConnection    = errors.New("no connection source configured")
)

// State of one execution.
type State int

const (
	NotStarted State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Running:
		return "RUNNING"
	default:
		return "FINISHED"
	}
}

// Acquirer hands out a connection that is owned by a single operation until it is closed.
type Acquirer interface {
	Acquire(ctx context.Context) (queryexec.Conn, error)
}

// Options configure a Dispatcher.
type Options struct {
	Registry     *registry.Registry
	Connections  Acquirer
	TargetPrefix string
	Logger       *slog.Logger
	// Now is the clock used for start and end times.
	Now func() time.Time
}

// Dispatcher executes definitions one at a time. It holds no per-run state.
type Dispatcher struct {
	registry     *registry.Registry
	connections  Acquirer
	targetPrefix string
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		registry:     opts.Registry,
		connections:  opts.Connections,
		targetPrefix: opts.TargetPrefix,
		logger:       opts.Logger,
		now:          opts.Now,
	}

	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if d.now == nil {
		d.now = time.Now
	}

	return d
}

// Execute runs def and returns its terminal result. Faults never escape.
func (d *Dispatcher) Execute(ctx context.Context, def definition.TestDefinition) result.TestResult {
	res := result.TestResult{
		DefinitionID: def.ID,
		Name:         def.Name,
		Environment:  def.Environment,
		Application:  def.Application,
		Priority:     def.Priority,
		Category:     def.Category,
	}

	logger := d.logger.With("test", def.ID, "category", def.Category)

	var (
		entry registry.Entry
		ok    bool
	)

	if d.registry != nil {
		entry, ok = d.registry.Lookup(def.Category)
	}

	if !ok {
		now := d.now()
		res.Start, res.End = now, now
		res.Status = result.StatusSkip
		res.Message = fmt.Sprintf("Unknown test category: %s", def.Category)
		logger.Warn("skipped", "reason", res.Message)

		return res
	}

	res.Operation = entry.Operation
	logger.Debug("state", "state", Running, "operation", entry.Operation)

	res.Start = d.now()
	outcome := d.run(ctx, entry, compare.NewRequest(def.Parameters, d.targetPrefix), logger)
	res.End = d.now()
	res.Duration = res.End.Sub(res.Start)
	res.Details = outcome.Details

	res.Status, res.Message = interpret(outcome, def.ExpectedResult)

	if limit := time.Duration(def.TimeoutSeconds) * time.Second; res.Duration > limit && res.Status == result.StatusPass {
		res.Status = result.StatusTimeoutWarning
		res.Message = fmt.Sprintf("Test passed but exceeded timeout (%.2fs > %ds)", res.Duration.Seconds(), def.TimeoutSeconds)
	}

	logger.Info("finished", "state", Finished, "status", res.Status, "duration", res.Duration)

	return res
}

// run acquires a connection, calls the comparator and releases the connection on every path.
// Offline entries are called without a connection.
func (d *Dispatcher) run(ctx context.Context, entry registry.Entry, req compare.Request, logger *slog.Logger) (outcome compare.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrComparatorPanic, r)
			outcome = compare.Outcome{Message: err.Error(), Fault: err}
		}
	}()

	if entry.Offline {
		return entry.Comparator.Compare(ctx, nil, req)
	}

	if d.connections == nil {
		return compare.Outcome{Message: ErrNoConnection.Error(), Fault: ErrNoConnection}
	}

	conn, err := d.connections.Acquire(ctx)
	if err != nil {
		return compare.Outcome{Message: err.Error(), Fault: err}
	}

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("failed to release connection", "error", err)
		}
	}()

	return entry.Comparator.Compare(ctx, conn, req)
}

// interpret applies the expected-result policy to an outcome.
func interpret(outcome compare.Outcome, expected definition.ExpectedResult) (result.Status, string) {
	switch {
	case outcome.Skipped:
		return result.StatusSkip, outcome.Message
	case outcome.Faulted():
		if expected == definition.ExpectFail {
			return result.StatusPass, "Expected failure occurred: " + outcome.Message
		}

		return result.StatusError, outcome.Message
	case outcome.Passed:
		if expected == definition.ExpectPass {
			return result.StatusPass, outcome.Message
		}

		return result.StatusUnexpectedPass, fmt.Sprintf("Test passed but was expected to %s: %s", expected, outcome.Message)
	default:
		if expected == definition.ExpectFail {
			return result.StatusPass, "Expected failure occurred: " + outcome.Message
		}

		return result.StatusFail, outcome.Message
	}
}
