package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/laminator/internal/config"
	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/domain/schedule"
)

// Repository defines persistence operations for the run status.
type Repository interface {
	Load(ctx context.Context) (*schedule.Status, error)
	Save(ctx context.Context, status *schedule.Status) error
}

// FileRepository persists the status to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) over a
// structpb.Struct, which keeps the file a plain JSON object.
type FileRepository struct {
	// path is the filesystem location of the JSON snapshot.
	path string
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

// Snapshot field names.
const (
	fieldRunID     = "run_id"
	fieldPhase     = "phase"
	fieldPhaseName = "phase_name"
	fieldCycle     = "cycle"
	fieldLevels    = "levels"
	fieldUpdatedAt = "updated_at"
	fieldHalted    = "halted"
	fieldFault     = "fault"
)

var (
	// ErrNotFound is returned when the snapshot file does not exist yet.
	ErrNotFound = errors.New("snapshot not found")
	// errStatusRequired is returned when Save is called with nil.
	errStatusRequired = errors.New("status must be provided")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the status from disk.
func (r *FileRepository) Load(_ context.Context) (*schedule.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode snapshot file: %w", err)
	}

	return fromStruct(&message)
}

// Save writes the status to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, status *schedule.Status) error {
	if status == nil {
		return errStatusRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := toStruct(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	return writeAtomic(r.path, data)
}

// writeAtomic replaces path with data through a temporary file in the same
// directory, so readers never see a truncated snapshot.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write snapshot file: %w", err)
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod snapshot file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}

// toStruct converts the domain Status into a protobuf Struct.
func toStruct(status *schedule.Status) (*structpb.Struct, error) {
	levels := make(map[string]any, len(status.Levels))
	for role, level := range status.Levels {
		levels[string(role)] = level.String()
	}

	var updatedAt string
	if !status.UpdatedAt.IsZero() {
		updatedAt = status.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	return structpb.NewStruct(map[string]any{
		fieldRunID:     status.RunID,
		fieldPhase:     status.Phase,
		fieldPhaseName: status.PhaseName,
		fieldCycle:     float64(status.Cycle),
		fieldLevels:    levels,
		fieldUpdatedAt: updatedAt,
		fieldHalted:    status.Halted,
		fieldFault:     status.Fault,
	})
}

// fromStruct converts a protobuf Struct back into the domain Status.
func fromStruct(message *structpb.Struct) (*schedule.Status, error) {
	fields := message.GetFields()

	status := &schedule.Status{
		RunID:     fields[fieldRunID].GetStringValue(),
		Phase:     int(fields[fieldPhase].GetNumberValue()),
		PhaseName: fields[fieldPhaseName].GetStringValue(),
		Cycle:     uint64(fields[fieldCycle].GetNumberValue()),
		Halted:    fields[fieldHalted].GetBoolValue(),
		Fault:     fields[fieldFault].GetStringValue(),
	}

	if raw := fields[fieldUpdatedAt].GetStringValue(); raw != "" {
		updatedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldUpdatedAt, err)
		}

		status.UpdatedAt = updatedAt
	}

	levelFields := fields[fieldLevels].GetStructValue().GetFields()
	status.Levels = make(map[actuator.Role]actuator.Level, len(levelFields))

	for role, value := range levelFields {
		level, err := actuator.ParseLevel(value.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode level of %s: %w", role, err)
		}

		status.Levels[actuator.Role(role)] = level
	}

	return status, nil
}
