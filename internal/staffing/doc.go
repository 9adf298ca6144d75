// Package staffing reads project staffing requirements and active
// assignments from PostgreSQL, caching the combined view in Redis.
package staffing
