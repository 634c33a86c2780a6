// Package entities defines the wire-level data structures exchanged with the
// MedLinkr backend collaborators.
package entities

// BuyLink is a single purchase option for a medicine on an external pharmacy site.
type BuyLink struct {
	Site    string  `json:"site"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet *string `json:"snippet"`
	Price   *string `json:"price"`
}

// Medicine is the structured description of one medicine as returned by the
// search collaborator.
type Medicine struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Composition  []string  `json:"composition"`
	SideEffects  []string  `json:"sideEffects"`
	BuyLinks     []BuyLink `json:"buyLinks"`
	Alternatives []string  `json:"alternatives"`
}

// SearchResult is the full payload of a free-text medicine search.
// ComparisonSummary is optional; when present it is always stored whole, any
// staged on-screen reveal is a presentation concern.
type SearchResult struct {
	Query             string     `json:"query"`
	PrimaryMedicine   Medicine   `json:"primaryMedicine"`
	SimilarMedicines  []Medicine `json:"similarMedicines"`
	Disclaimer        string     `json:"disclaimer"`
	RetrievedAt       string     `json:"retrievedAt"`
	ComparisonSummary string     `json:"comparisonSummary,omitempty"`
}

// UploadResult is the response of the prescription OCR collaborator.
// StatusCode 200 together with a non-empty AnalysedMedicines list signals a
// usable extraction; anything else is treated as an empty extraction.
type UploadResult struct {
	StatusCode        int      `json:"statusCode"`
	Message           string   `json:"message"`
	AnalysedMedicines []string `json:"analisedMed"`
}

// BulkEntry is one entry of the bulk-search collaborator response,
// positionally aligned with the requested name list.
type BulkEntry struct {
	BuyLinks         []BuyLink `json:"buyLinks"`
	AlternativeNames []string  `json:"alternativeNames"`
}

// BulkLookupResult pairs a bulk entry with the medicine name it was requested
// for. The name is attached from the request order so downstream consumers
// never depend on array-index alignment.
type BulkLookupResult struct {
	MedicineName     string    `json:"medicineName"`
	BuyLinks         []BuyLink `json:"buyLinks"`
	AlternativeNames []string  `json:"alternativeNames"`
}
