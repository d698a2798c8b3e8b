package queue

// IngestOptions carry the caller's chunking and extraction preferences
// through the queue.
type IngestOptions struct {
	ChunkSize       int  `json:"chunkSize,omitempty"`
	ChunkOverlap    int  `json:"chunkOverlap,omitempty"`
	MaxChunks       int  `json:"maxChunks,omitempty"`
	ExtractEntities bool `json:"extractEntities,omitempty"`
	ExtractConcepts bool `json:"extractConcepts,omitempty"`
}

// IngestMessage asks the worker to process one uploaded document.
type IngestMessage struct {
	DocumentID string         `json:"documentId"`
	FileKey    string         `json:"fileKey"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Options    IngestOptions  `json:"options"`
}

// DeleteMessage asks the worker to remove a document's stored file after
// its graph nodes have been deleted.
type DeleteMessage struct {
	DocumentID string `json:"documentId"`
	FileKey    string `json:"fileKey"`
}
