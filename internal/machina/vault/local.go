package vault

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/machina-vm/machina/pkg/errors"
	"github.com/machina-vm/machina/pkg/logger"
	"github.com/machina-vm/machina/pkg/platform"
)

const indexFileName = "image_index.yml"

// DiskVault implements Vault on the local filesystem. Records live in a
// yaml index next to the images; the index is rewritten after every
// mutation so a crash loses at most the operation in flight.
type DiskVault struct {
	platform  platform.Platform
	log       *logger.Logger
	fetch     FetchFunc
	baseDir   string
	indexPath string
	expiryAge time.Duration

	mu      sync.Mutex
	records map[string]Image
}

// NewDiskVault creates the image directory and loads any existing index.
// A corrupt or missing index starts fresh rather than failing.
func NewDiskVault(p platform.Platform, baseDir string, expiryAge time.Duration, fetch FetchFunc) (*DiskVault, error) {
	if err := p.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", baseDir, err)
	}

	v := &DiskVault{
		platform:  p,
		log:       logger.WithField("component", "vault"),
		fetch:     fetch,
		baseDir:   baseDir,
		indexPath: filepath.Join(baseDir, indexFileName),
		expiryAge: expiryAge,
		records:   make(map[string]Image),
	}

	if err := v.loadIndex(); err != nil {
		v.log.Warn("failed to load image index, starting fresh", "error", err)
	}

	return v, nil
}

// Fetch returns the image for the query, acquiring it on first use.
// A recorded image only has its last-used time refreshed.
func (v *DiskVault) Fetch(q Query) (Image, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if record, ok := v.records[q.Name]; ok {
		record.LastUsed = time.Now()
		v.records[q.Name] = record
		v.saveIndexLocked()
		return record, nil
	}

	image, err := v.fetch(q, v.baseDir)
	if err != nil {
		return Image{}, errors.NewVaultError(q.Name, "fetch", err)
	}

	now := time.Now()
	image.Name = q.Name
	image.RetrievedAt = now
	image.LastUsed = now
	v.records[q.Name] = image
	v.saveIndexLocked()

	v.log.Info("image fetched", "name", q.Name, "path", image.Path)
	return image, nil
}

// Remove drops the record and deletes the image file
func (v *DiskVault) Remove(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, ok := v.records[name]
	if !ok {
		return errors.NewVaultError(name, "remove", errors.ErrImageNotFound)
	}

	if record.Path != "" {
		if err := v.platform.Remove(record.Path); err != nil && !v.platform.IsNotExist(err) {
			return errors.NewVaultError(name, "remove", err)
		}
	}

	delete(v.records, name)
	v.saveIndexLocked()
	return nil
}

// HasRecord reports whether an image is recorded under the given name
func (v *DiskVault) HasRecord(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.records[name]
	return ok
}

// PruneExpired removes images not used within the expiry age
func (v *DiskVault) PruneExpired() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := time.Now().Add(-v.expiryAge)
	for name, record := range v.records {
		if record.LastUsed.After(cutoff) {
			continue
		}

		v.log.Info("pruning expired image", "name", name, "lastUsed", record.LastUsed)
		if record.Path != "" {
			if err := v.platform.Remove(record.Path); err != nil && !v.platform.IsNotExist(err) {
				v.log.Warn("failed to remove expired image", "name", name, "error", err)
				continue
			}
		}
		delete(v.records, name)
	}

	v.saveIndexLocked()
	return nil
}

// Update re-fetches every recorded image in place
func (v *DiskVault) Update() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for name, record := range v.records {
		image, err := v.fetch(Query{Name: name, Release: record.Release}, v.baseDir)
		if err != nil {
			return errors.NewVaultError(name, "update", err)
		}

		image.Name = name
		image.RetrievedAt = time.Now()
		image.LastUsed = record.LastUsed
		v.records[name] = image
	}

	v.saveIndexLocked()
	return nil
}

func (v *DiskVault) loadIndex() error {
	data, err := v.platform.ReadFile(v.indexPath)
	if err != nil {
		if v.platform.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, &v.records)
}

// saveIndexLocked persists the records. Callers must hold mu. Failures are
// logged, not propagated; the in-memory view stays authoritative until the
// next successful save.
func (v *DiskVault) saveIndexLocked() {
	data, err := yaml.Marshal(v.records)
	if err != nil {
		v.log.Warn("failed to marshal image index", "error", err)
		return
	}
	if err := v.platform.WriteFile(v.indexPath, data, 0644); err != nil {
		v.log.Warn("failed to write image index", "error", err)
	}
}
