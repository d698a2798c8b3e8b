package graph

import "time"

// NodeType classifies a knowledge-graph node.
type NodeType string

const (
	NodeConcept       NodeType = "CONCEPT"
	NodeEntity        NodeType = "ENTITY"
	NodeDocument      NodeType = "DOCUMENT"
	NodeDocumentChunk NodeType = "DOCUMENT_CHUNK"
	NodeFact          NodeType = "FACT"
	NodeQuestion      NodeType = "QUESTION"
	NodeAnswer        NodeType = "ANSWER"
)

// EdgeType classifies a directed relation between two nodes.
type EdgeType string

const (
	EdgeRelatesTo     EdgeType = "RELATES_TO"
	EdgeContains      EdgeType = "CONTAINS"
	EdgeAnswers       EdgeType = "ANSWERS"
	EdgeReferences    EdgeType = "REFERENCES"
	EdgeIsA           EdgeType = "IS_A"
	EdgeHasProperty   EdgeType = "HAS_PROPERTY"
	EdgeExtractedFrom EdgeType = "EXTRACTED_FROM"
	EdgePartOf        EdgeType = "PART_OF"
)

// KnowledgeNode is a typed record in the knowledge graph. Embedding is nil
// until the node has been embedded.
type KnowledgeNode struct {
	Key       string         `json:"key"`
	Type      NodeType       `json:"type"`
	Name      string         `json:"name"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// KnowledgeEdge is a typed, directed, weighted relation between two nodes.
type KnowledgeEdge struct {
	Key       string         `json:"key"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Type      EdgeType       `json:"type"`
	Weight    float64        `json:"weight"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// DefaultEdgeWeight is assigned to edges created without an explicit weight.
const DefaultEdgeWeight = 1.0
