package conflict

import "time"

// Action is what reconciliation did for one asset.
type Action string

const (
	ActionUpserted Action = "upserted"
	ActionRemoved  Action = "removed"
	ActionClean    Action = "clean"
	ActionFailed   Action = "failed"
)

// Entry records the outcome for a single asset.
type Entry struct {
	AssetID string `json:"asset_id"`
	Action  Action `json:"action"`
	Orphan  bool   `json:"orphan,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report summarises a reconciliation pass.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scanned    int       `json:"scanned"`
	Upserted   int       `json:"upserted"`
	Removed    int       `json:"removed"`
	Clean      int       `json:"clean"`
	Failed     int       `json:"failed"`
	Entries    []Entry   `json:"entries"`
}

func (r *Report) add(e Entry) {
	switch e.Action {
	case ActionUpserted:
		r.Upserted++
	case ActionRemoved:
		r.Removed++
	case ActionClean:
		r.Clean++
	case ActionFailed:
		r.Failed++
	}
	r.Entries = append(r.Entries, e)
}
