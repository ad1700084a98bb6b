package streamcontext

// SlotState is the point-in-time resolution state of one async slot.
type SlotState string

const (
	SlotPending  SlotState = "pending"
	SlotResolved SlotState = "resolved"
	SlotFailed   SlotState = "failed"
)

// Snapshot is a point-in-time copy of every async slot's state, for
// logging/debugging without forcing any slot to resolve.
type Snapshot struct {
	QueryType    string
	ID           string
	IsAnime      bool
	NeedMetadata bool

	Metadata     SlotState
	ReleaseDates SlotState
	EpisodeAir   SlotState
	SeaDex       SlotState
}

// Snapshot reports each slot's current state without awaiting any of them.
func (c *Context) Snapshot() Snapshot {
	return Snapshot{
		QueryType:    c.QueryTypeString(),
		ID:           c.rawID,
		IsAnime:      c.isAnime,
		NeedMetadata: c.needMetadata,
		Metadata:     slotState(c.metadataCell, c.metaErr),
		ReleaseDates: slotState(c.releaseDatesCell, c.releaseDatesErr),
		EpisodeAir:   slotState(c.airDateCell, c.airDateErr),
		SeaDex:       slotState(c.seadexCell, c.seadexErr),
	}
}

func slotState(cell *asyncCell, err error) SlotState {
	if !cell.done() {
		return SlotPending
	}
	if err != nil {
		return SlotFailed
	}
	return SlotResolved
}
