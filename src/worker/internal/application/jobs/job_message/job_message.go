package job_message

type ExtractionIdentifier struct {
	ExtractionID string `json:"extraction_id"`
}
