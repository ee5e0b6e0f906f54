package rag

// AskRequest
// Payload of the /ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK,omitempty"` // optional; internal default
	Lang     string `json:"lang"`           // "", "auto" or an ISO 639-1 code
}

// SourceRef
// An abstract used to build the answer.
type SourceRef struct {
	UID       string  `json:"uid"`
	Title     string  `json:"title"`
	Published string  `json:"published,omitempty"`
	Score     float32 `json:"score"`
}

// AskResponse
// Answer text plus the abstracts it was grounded on.
type AskResponse struct {
	Answer  string      `json:"answer"`
	Lang    string      `json:"lang"`
	Sources []SourceRef `json:"sources"`
}

// RetrieveRequest
// Payload of the /retrieve endpoint.
type RetrieveRequest struct {
	Query string `json:"query"`
}

// RetrieveResponse
// Output of the retriever tool.
type RetrieveResponse struct {
	Result string `json:"result"`
}
