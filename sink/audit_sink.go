package sink

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

var _ contract.AuditSink = (*AuditSink)(nil)

// AuditSink appends one line per served exchange command to a text file.
type AuditSink struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

func NewAuditSink(path string, log *slog.Logger) *AuditSink {
	return &AuditSink{path: path, log: log}
}

// Append opens the file in append mode for every record so external rotation keeps working.
func (a *AuditSink) Append(ctx context.Context, record domain.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", a.path, err)
	}
	if _, err = f.WriteString(record.Line()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audit log %s: %w", a.path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close audit log %s: %w", a.path, err)
	}
	a.log.Debug("Audit record appended", "path", a.path, "addr", record.Addr)
	return nil
}
