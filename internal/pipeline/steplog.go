package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/pin-pipeline/internal/db"
)

// stepLog writes a step entry to zap and, best-effort, to the ledger. A
// failed ledger write is reported on zap only and never ends the run.
func (o *Orchestrator) stepLog(ctx context.Context, st *runState, step, level, msg string, kv ...interface{}) {
	log := o.log.With("run_id", st.runID, "step", step)
	switch level {
	case db.LevelDebug:
		log.Debug(msg, kv...)
	case db.LevelWarn:
		log.Warn(msg, kv...)
	case db.LevelError:
		log.Error(msg, kv...)
	default:
		log.Info(msg, kv...)
	}
	if level == db.LevelWarn {
		st.warnings = append(st.warnings, msg)
	}

	if st.runID == 0 {
		return
	}
	if err := o.ledger.AppendLog(ctx, st.runID, step, level, withFields(msg, kv)); err != nil {
		log.Warn("failed to write ledger log", "error", err)
	}
}

// withFields renders key/value pairs after the message for the ledger copy.
func withFields(msg string, kv []interface{}) string {
	for i := 0; i+1 < len(kv); i += 2 {
		msg += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return msg
}
