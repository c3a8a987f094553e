package catalog

import (
	"time"
)

// SchemaVersion is written into catalog metadata on every commit.
const SchemaVersion = "1.0.0"

// Format names the package formats the pipeline can produce.
type Format string

const (
	FormatDeb   Format = "deb"
	FormatRPM   Format = "rpm"
	FormatTarGz Format = "tar.gz"
)

// Extension returns the file extension for artifacts of this format.
func (f Format) Extension() string {
	return string(f)
}

// Status tracks a single converted package within a record.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAvailable       Status = "available"
	StatusFailed          Status = "failed"
	StatusToolUnavailable Status = "tool_unavailable"
)

// RecordStatus is the aggregate conversion status of an application record.
type RecordStatus string

const (
	RecordPending   RecordStatus = "pending"
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
)

// AppImageArtifact describes the upstream artifact a record was built from.
type AppImageArtifact struct {
	URL          string `json:"url"`
	Size         string `json:"size"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	Checksum     string `json:"checksum"`
	Architecture string `json:"architecture,omitempty"`
}

// PackageArtifact describes one converted package inside a record.
type PackageArtifact struct {
	URL       string `json:"url,omitempty"`
	Size      string `json:"size,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Status    Status `json:"status"`
	Created   string `json:"created,omitempty"`
}

// DesktopMeta holds metadata lifted from the AppImage's desktop entry.
type DesktopMeta struct {
	Icon              string   `json:"icon,omitempty"`
	Executable        string   `json:"executable,omitempty"`
	MimeTypes         []string `json:"mime_types,omitempty"`
	ExtractionSkipped bool     `json:"extraction_skipped,omitempty"`
}

// SourceInfo records where a release was discovered.
type SourceInfo struct {
	Repository  string `json:"repository,omitempty"`
	APIURL      string `json:"api_url,omitempty"`
	Website     string `json:"website,omitempty"`
	ReleaseTag  string `json:"release_tag,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// Application is one catalog record: a single app on a single architecture.
type Application struct {
	ID                string                      `json:"id"`
	BaseID            string                      `json:"base_id,omitempty"`
	Name              string                      `json:"name"`
	Description       string                      `json:"description,omitempty"`
	Version           string                      `json:"version"`
	Architecture      string                      `json:"architecture"`
	Category          []string                    `json:"category,omitempty"`
	AppImage          AppImageArtifact            `json:"appimage"`
	ConvertedPackages map[Format]*PackageArtifact `json:"converted_packages"`
	Desktop           DesktopMeta                 `json:"metadata"`
	Source            SourceInfo                  `json:"source"`
	ConversionStatus  RecordStatus                `json:"conversion_status"`
	LastUpdated       string                      `json:"last_updated"`
}

// Metadata describes the catalog document itself.
type Metadata struct {
	LastUpdated       string `json:"last_updated"`
	TotalApplications int    `json:"total_applications"`
	Version           string `json:"version"`
}

// Catalog is the full durable document consumed by the website.
type Catalog struct {
	Metadata     Metadata       `json:"metadata"`
	Applications []*Application `json:"applications"`
}

// NewCatalog returns an empty catalog with initialized metadata.
func NewCatalog() *Catalog {
	return &Catalog{
		Metadata: Metadata{
			LastUpdated:       Timestamp(),
			TotalApplications: 0,
			Version:           SchemaVersion,
		},
	}
}

// Timestamp returns the UTC timestamp format used throughout the catalog.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Key identifies a record by its exclusive (app, architecture) pair.
func (a *Application) Key() string {
	return a.ID
}

// Find returns the record matching an id, or nil.
func (c *Catalog) Find(id string) *Application {
	for _, app := range c.Applications {
		if app.ID == id {
			return app
		}
	}
	return nil
}

// Upsert inserts a record or replaces the record sharing its id.
func (c *Catalog) Upsert(app *Application) {
	for i, existing := range c.Applications {
		if existing.ID == app.ID {
			c.Applications[i] = app
			return
		}
	}
	c.Applications = append(c.Applications, app)
}

// ByArchitecture returns the records belonging to one architecture partition.
func (c *Catalog) ByArchitecture(arch string) []*Application {
	var apps []*Application
	for _, app := range c.Applications {
		if app.Architecture == arch {
			apps = append(apps, app)
		}
	}
	return apps
}

// Pending returns records awaiting conversion, optionally restricted to one
// architecture. An empty arch selects all partitions.
func (c *Catalog) Pending(arch string) []*Application {
	var apps []*Application
	for _, app := range c.Applications {
		if app.ConversionStatus != RecordPending {
			continue
		}
		if arch != "" && app.Architecture != arch {
			continue
		}
		apps = append(apps, app)
	}
	return apps
}

// touch refreshes document metadata after any mutation.
func (c *Catalog) touch() {
	c.Metadata.LastUpdated = Timestamp()
	c.Metadata.TotalApplications = len(c.Applications)
	if c.Metadata.Version == "" {
		c.Metadata.Version = SchemaVersion
	}
}
