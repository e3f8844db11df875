package ports

import "context"

// Launcher starts a generated shell script in its run directory. Launches
// are fire-and-forget: no handle is retained and completion is observed
// later on disk.
type Launcher interface {
	Launch(ctx context.Context, dir, script string, args ...string) error
}
