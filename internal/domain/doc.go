// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (post.go, keyword.go, statistics.go, classifier.go) hold
// the shared types and the contracts the adapters implement. No implementation code
// beyond small value helpers.
package domain
