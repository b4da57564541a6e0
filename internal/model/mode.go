package model

import "fmt"

// SyncMode governs how a ticker's persisted price history is refreshed
// before returns are computed. It is selected once per invocation and applied
// uniformly to every ticker in that run.
type SyncMode int

const (
	// SyncInitial fetches the full history window and reseeds the series.
	SyncInitial SyncMode = iota
	// SyncDaily fetches only the most recent day and appends it.
	SyncDaily
	// SyncRerun fetches an explicit day range and upserts the row.
	SyncRerun
	// SyncDBRerun skips fetching and reads the persisted series as-is.
	SyncDBRerun
)

func (m SyncMode) String() string {
	switch m {
	case SyncInitial:
		return "initial"
	case SyncDaily:
		return "daily"
	case SyncRerun:
		return "rerun"
	case SyncDBRerun:
		return "db_rerun"
	default:
		return fmt.Sprintf("SyncMode(%d)", int(m))
	}
}

// ParseSyncMode parses a CLI mode flag value.
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "initial":
		return SyncInitial, nil
	case "daily":
		return SyncDaily, nil
	case "rerun":
		return SyncRerun, nil
	case "db_rerun":
		return SyncDBRerun, nil
	default:
		return 0, fmt.Errorf("unknown sync mode %q (want initial, daily, rerun or db_rerun)", s)
	}
}
