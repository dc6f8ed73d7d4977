// Package vault stores prepared VM base images by name. It is consumed by
// the VM lifecycle manager and is fully independent of the guest network
// service; no calls cross between the two.
package vault

import (
	"time"
)

// Query identifies the image a caller wants
type Query struct {
	Name    string
	Remote  string
	Release string
}

// Image is a prepared base image on local disk
type Image struct {
	Name        string    `yaml:"name"`
	Path        string    `yaml:"path"`
	Release     string    `yaml:"release"`
	RetrievedAt time.Time `yaml:"retrieved_at"`
	LastUsed    time.Time `yaml:"last_used"`
}

// FetchFunc acquires an image into destDir. Acquisition itself (downloads,
// checksums, decompression) belongs to the image backends, not the vault.
type FetchFunc func(q Query, destDir string) (Image, error)

// Vault exposes the image operations the VM lifecycle consumes
type Vault interface {
	Fetch(q Query) (Image, error)
	Remove(name string) error
	HasRecord(name string) bool
	PruneExpired() error
	Update() error
}
