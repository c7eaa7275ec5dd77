package config

const (
	// TopicIngestArticle is the NSQ topic for article ingestion tasks
	// (chunk, embed, upsert into the vector store).
	TopicIngestArticle = "ingest.article"
)
