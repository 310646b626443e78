// Package app provides the application service layer.
//
// Ingestor turns uploaded feeds into posts and keyword aggregates. Statistics answers
// per-hashtag analytical queries. Keywords and Posts serve the browsing endpoints.
// Depends on domain interfaces, not concrete implementations.
package app
