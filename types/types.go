package types

// PictureRecord holds the edge measurements stored for one unique file content
type PictureRecord struct {
	ContentHash         string  `json:"content_hash"`
	Path                string  `json:"path"`
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	TopCropFraction     float64 `json:"top_crop_fraction"`
	BottomCropFraction  float64 `json:"bottom_crop_fraction"`
	LeftDeviation       float64 `json:"left_deviation"`
	RightDeviation      float64 `json:"right_deviation"`
	ComparisonAlgorithm string  `json:"comparison_algorithm"`
	SampleStride        int     `json:"sample_stride"`
	CreatedDate         string  `json:"created_date"`
	CreatedTime         string  `json:"created_time"`
}

// AspectRatio returns width divided by height, or 0 for a record without height
func (r PictureRecord) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// EventKind distinguishes the events a scan or select run reports
type EventKind int

const (
	// EventInitialized carries the total number of items once, at the start of a phase
	EventInitialized EventKind = iota
	// EventProgress carries the number of items processed so far
	EventProgress
	// EventMessage carries a non-fatal per-item problem
	EventMessage
)

// String returns a readable name for the event kind
func (k EventKind) String() string {
	switch k {
	case EventInitialized:
		return "initialized"
	case EventProgress:
		return "item_progress"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is pushed by the scan and select phases to whoever drains the channel
type Event struct {
	Kind  EventKind
	Count int
	Text  string
}

// Initialized builds an initialized event
func Initialized(total int) Event {
	return Event{Kind: EventInitialized, Count: total}
}

// Progress builds an item progress event
func Progress(count int) Event {
	return Event{Kind: EventProgress, Count: count}
}

// Message builds a message event
func Message(text string) Event {
	return Event{Kind: EventMessage, Text: text}
}

// ScanSummary holds the outcome counters of a scan run
type ScanSummary struct {
	Total      int
	Inserted   int
	Known      int
	Duplicates int
	Failed     int
}

// SelectionSummary holds the outcome counters of a select run
type SelectionSummary struct {
	Checked  int
	Selected int
	Copied   int
	Missing  int
	Skipped  int
}
