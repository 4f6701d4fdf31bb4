package credential

import "context"

// Guard makes issuance happen at most once per session, across processes.
//
// Claim returns claimed=true when the caller now owns issuance for the
// session. Otherwise vc holds the credential already issued, or is empty
// while another issuer is still in flight. Complete stores the credential;
// Release gives up an unfinished claim so a later attempt can retry.
// Lookup reads without claiming: found with an empty vc means pending.
type Guard interface {
	Claim(ctx context.Context, sessionID string) (claimed bool, vc string, err error)
	Complete(ctx context.Context, sessionID, vc string) error
	Release(ctx context.Context, sessionID string) error
	Lookup(ctx context.Context, sessionID string) (vc string, found bool, err error)
}

var (
	_ Guard = (*RedisGuard)(nil)
	_ Guard = (*InMemoryGuard)(nil)
)
