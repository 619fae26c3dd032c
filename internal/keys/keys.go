// Package keys manages PGP signing keys referenced by a package's
// validpgpkeys, shelling out to the system gpg binary. On a failed
// keyserver fetch it kills any running key agent, pauses briefly, and
// retries once before giving up — gpg-agent can wedge after a failed
// network fetch and silently swallow the retry otherwise.
package keys

import (
	"context"
	"os/exec"
	"time"

	"github.com/Manpreet113/ax/internal/log"
)

const defaultKeyserver = "keyserver.ubuntu.com"

const retryDelay = 2 * time.Second

// EnsureKeys fetches any of the given key IDs not already present in the
// local keyring. It returns false (not an error) if one or more keys
// could not be obtained, so the caller can fall back to --skippgpcheck.
func EnsureKeys(ctx context.Context, keyIDs []string) bool {
	allOK := true
	for _, id := range keyIDs {
		if haveKey(ctx, id) {
			continue
		}
		if fetchKey(ctx, id) {
			continue
		}
		log.Warnf("gpg key fetch failed for %s, killing agent and retrying once", id)
		killAgent(ctx)
		time.Sleep(retryDelay)
		if !fetchKey(ctx, id) {
			log.Warnf("gpg key fetch failed again for %s", id)
			allOK = false
		}
	}
	return allOK
}

func haveKey(ctx context.Context, id string) bool {
	cmd := exec.CommandContext(ctx, "gpg", "--list-keys", id)
	return cmd.Run() == nil
}

func fetchKey(ctx context.Context, id string) bool {
	cmd := exec.CommandContext(ctx, "gpg", "--keyserver", defaultKeyserver, "--recv-keys", id)
	return cmd.Run() == nil
}

func killAgent(ctx context.Context) {
	cmd := exec.CommandContext(ctx, "gpgconf", "--kill", "gpg-agent")
	_ = cmd.Run()
}
