package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/replibyte/releaser/internal/config"
	domain "github.com/replibyte/releaser/internal/domain/release"
)

// Repository defines persistence operations for the run record.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// Record is the durable outcome of the most recent run, kept so an
// operator can inspect what the last pipeline invocation did without
// digging through logs.
type Record struct {
	// Tag and Revision identify the release the run was for.
	Tag      string `yaml:"tag"`
	Revision string `yaml:"revision"`
	// FinishedAt is when the run reached its terminal state.
	FinishedAt time.Time `yaml:"finished_at"`
	// Branches holds one entry per build target, in matrix order.
	Branches []BranchRecord `yaml:"branches"`
	// BumpRequestURL points at the formula update request, when one was
	// opened or found already open.
	BumpRequestURL string `yaml:"bump_request_url,omitempty"`
	// BumpSkipped is true when an equivalent request was already open.
	BumpSkipped bool `yaml:"bump_skipped,omitempty"`
	// BumpError holds the bump failure message, when the trigger failed.
	BumpError string `yaml:"bump_error,omitempty"`
}

// BranchRecord is the durable outcome of one build branch.
type BranchRecord struct {
	// Target is the build target name.
	Target string `yaml:"target"`
	// State is the terminal state the branch reached.
	State string `yaml:"state"`
	// Archive is the published archive filename, when packaging succeeded.
	Archive string `yaml:"archive,omitempty"`
	// Error holds the branch failure message, when the branch failed.
	Error string `yaml:"error,omitempty"`
}

// RecordFilename is the run record's filename inside the work directory.
const RecordFilename = "last-run.yaml"

// ErrNotFound is returned when no run record exists yet.
var ErrNotFound = errors.New("run record not found")

// FileRepository persists the run record to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the record file.
	path string
	// mu protects concurrent access to the record file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read run record: %w", err)
	}

	var record Record
	if err = yaml.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode run record: %w", err)
	}

	return &record, nil
}

// Save writes the record to disk.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}

	return nil
}

// FromBranches builds a branch record list from terminal branch statuses.
func FromBranches(statuses []domain.BranchStatus) []BranchRecord {
	records := make([]BranchRecord, 0, len(statuses))

	for i := range statuses {
		status := &statuses[i]

		record := BranchRecord{
			Target: status.Target.Name,
			State:  status.State.String(),
		}

		if status.Artifact != nil {
			record.Archive = status.Artifact.ArchiveName()
		}

		if status.Err != nil {
			record.Error = status.Err.Error()
		}

		records = append(records, record)
	}

	return records
}
