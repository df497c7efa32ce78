// Package audit records authorization decisions into a decision log.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Recorder)(nil)
	_ plugin.AfterCheck = (*Recorder)(nil)
)

// Recorder is a plugin that writes one checklog entry per decision. Write
// failures are returned to the plugin registry, which logs them; they never
// change a decision.
type Recorder struct {
	store       checklog.Store
	denialsOnly bool
	now         func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// DenialsOnly limits recording to denied decisions.
func DenialsOnly() Option { return func(r *Recorder) { r.denialsOnly = true } }

// NewRecorder returns a recorder writing to s.
func NewRecorder(s checklog.Store, opts ...Option) *Recorder {
	r := &Recorder{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements plugin.Plugin.
func (r *Recorder) Name() string { return "audit-recorder" }

// OnAfterCheck implements plugin.AfterCheck.
func (r *Recorder) OnAfterCheck(ctx context.Context, req, result any) error {
	rq, ok := req.(*bastion.Request)
	if !ok || rq.Actor == nil {
		return fmt.Errorf("audit: unexpected request type %T", req)
	}
	res, ok := result.(*bastion.Result)
	if !ok {
		return fmt.Errorf("audit: unexpected result type %T", result)
	}
	if r.denialsOnly && res.Allowed {
		return nil
	}

	entry := &checklog.Entry{
		ID:          id.NewCheckLogID(),
		TenantID:    rq.Actor.TenantID,
		UserID:      rq.Actor.UserID,
		GlobalRole:  string(rq.Actor.Role),
		Resource:    rq.Resource,
		Action:      rq.Action,
		Permissions: append([]string(nil), rq.Permissions...),
		Decision:    string(res.Decision),
		Reason:      res.Reason,
		EvalTimeNs:  res.EvalTimeNs,
		CreatedAt:   r.now().UTC(),
	}
	if roleID, ok := rq.Actor.Assignment.RoleID(); ok {
		entry.TenantRoleID = roleID.String()
	}
	if err := r.store.CreateCheckLog(ctx, entry); err != nil {
		return fmt.Errorf("audit: record decision: %w", err)
	}
	return nil
}
