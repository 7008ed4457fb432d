// Package connectors holds the document-loading collaborators that
// feed extracted pages into ingestion. The filesystem connector is the
// only source: it reads marker-paginated .txt and .md files and can
// watch a directory for changes.
package connectors
