package worker

// ArticleIngestPayload is the message published to ingest.article when an
// article is created or re-queued.
type ArticleIngestPayload struct {
	ArticleID     string `json:"article_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
