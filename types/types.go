package types

import "time"

// Source identifies which input collection a record was discovered in
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// ImageRecord holds one candidate file and the fingerprints computed for it
type ImageRecord struct {
	Path       string                 `json:"path"`
	Source     Source                 `json:"source"`
	Size       int64                  `json:"size"`
	ExactHash  string                 `json:"exact_hash"`
	Perceptual map[string]Fingerprint `json:"perceptual,omitempty"`
	Context    string                 `json:"context"`
	TakenAt    time.Time              `json:"taken_at,omitempty"`
	DecodeErr  string                 `json:"decode_error,omitempty"`
	Processed  bool                   `json:"processed"`
}

// NewImageRecord creates an unprocessed record for the given absolute path
func NewImageRecord(path string, source Source, size int64) *ImageRecord {
	return &ImageRecord{
		Path:       path,
		Source:     source,
		Size:       size,
		Perceptual: map[string]Fingerprint{},
	}
}

// Group is a named cluster of records believed to show the same image
type Group struct {
	Key     string         `json:"key"`
	Members []*ImageRecord `json:"members"`
}

// Contains reports whether the record is already a member
func (g *Group) Contains(rec *ImageRecord) bool {
	for _, m := range g.Members {
		if m == rec {
			return true
		}
	}
	return false
}

// Add appends the record unless it is already a member
func (g *Group) Add(rec *ImageRecord) {
	if !g.Contains(rec) {
		g.Members = append(g.Members, rec)
	}
}

// FamilyScore holds the similarity of one fingerprint family for a pair
type FamilyScore struct {
	Family     string  `json:"family"`
	Bits       int     `json:"bits"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
	Scored     bool    `json:"scored"`
}
