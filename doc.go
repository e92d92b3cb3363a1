// Package backend provides the Driftboard API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Post, comment, and user profile documents
// - internal/auth: Authentication and token services
// - internal/feed: Cursor-based feed pagination sessions
// - internal/profile: Batched author profile hydration cache
// - internal/comments: Threaded comment tree operations
// - internal/engagement: Reactions, shares, and follow edges
// - internal/classify: Post category classification client
// - internal/store: MongoDB persistence layer
// - internal/cache: Redis social graph cache
// - internal/storage: File storage (S3) operations
// - internal/middleware: HTTP middleware (logging, metrics, tracing)

// See the individual package documentation for detailed API reference.
package backend
