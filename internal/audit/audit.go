// Package audit records security-relevant events as structured log
// entries. Entries carry the acting principal when one is on the context.
package audit

import (
	"context"

	"edubook.org/internal/auth"
	"edubook.org/internal/obs"
)

// LogEvent emits one audit entry. Fields are event-specific detail;
// reserved keys (event, actor_role) are set here.
func LogEvent(ctx context.Context, event string, fields map[string]any) {
	e := obs.Logger().Info().Str("event", event)
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		e = e.Str("actor_role", string(p.Role))
		if _, taken := fields["actor_id"]; !taken {
			e = e.Str("actor_id", p.UserID)
		}
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg("audit")
}
