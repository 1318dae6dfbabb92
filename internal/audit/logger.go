package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"agrimarket/backend/internal/audit/domain"
	auditrepo "agrimarket/backend/internal/audit/repository"
	"agrimarket/backend/internal/server/reqctx"
)

// SentinelOrgID is the org_id used for audit events that have no org (e.g. login_failure, invite acceptance).
const SentinelOrgID = "_system"

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and invite code paths
// in addition to the request middleware. LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository. The client IP is
// read from the request context via reqctx.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        reqctx.GetClientIP(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
