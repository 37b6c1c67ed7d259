package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"widedeep/internal/evaluation"
	"widedeep/internal/models"
)

const (
	checkpointPrefix = "model.ckpt-"
	indexFile        = "checkpoint"
	metadataFile     = "metadata.yaml"
)

// Checkpointer persists estimator state after each training call.
type Checkpointer interface {
	Save(bundle *Bundle) (string, error)
}

type Bundle struct {
	State    *models.State
	Metadata Metadata
}

type Metadata struct {
	RunID      string             `yaml:"run_id"`
	ModelName  string             `yaml:"model_name"`
	ModelType  string             `yaml:"model_type"`
	Epoch      int                `yaml:"epoch"`
	GlobalStep int64              `yaml:"global_step"`
	Classes    int                `yaml:"classes"`
	Metrics    evaluation.Metrics `yaml:"metrics,omitempty"`
	CreatedAt  time.Time          `yaml:"created_at"`
}

func NewBundle(est models.Estimator, runID string, epoch int, metrics evaluation.Metrics) *Bundle {
	state := est.Snapshot()
	return &Bundle{
		State: state,
		Metadata: Metadata{
			RunID:      runID,
			ModelName:  est.Name(),
			ModelType:  string(est.Type()),
			Epoch:      epoch,
			GlobalStep: est.GlobalStep(),
			Classes:    len(state.Classes),
			Metrics:    metrics,
			CreatedAt:  time.Now(),
		},
	}
}

// FileCheckpointer writes snappy-compressed gob checkpoints named model.ckpt-<step> into a
// directory and records the newest one in its index file.
type FileCheckpointer struct {
	dir string
}

func NewFileCheckpointer(dir string) *FileCheckpointer {
	return &FileCheckpointer{dir: dir}
}

func (fc *FileCheckpointer) Save(bundle *Bundle) (string, error) {
	if bundle == nil || bundle.State == nil {
		return "", fmt.Errorf("nothing to checkpoint")
	}
	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create model directory")
	}

	name := fmt.Sprintf("%s%d", checkpointPrefix, bundle.State.GlobalStep)
	path := filepath.Join(fc.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	comp := snappy.NewBufferedWriter(file)
	if err := gob.NewEncoder(comp).Encode(bundle); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := comp.Close(); err != nil {
		file.Close()
		return "", errors.Wrap(err, "failed to flush checkpoint")
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(fc.dir, indexFile), []byte(name+"\n"), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to update checkpoint index")
	}
	if err := fc.saveMetadata(bundle.Metadata); err != nil {
		return "", err
	}
	return path, nil
}

func (fc *FileCheckpointer) saveMetadata(meta Metadata) error {
	out, err := yaml.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "failed to encode metadata")
	}
	return os.WriteFile(filepath.Join(fc.dir, metadataFile), out, 0o644)
}

// Latest returns the path of the newest checkpoint in dir.
func Latest(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		return "", errors.Wrapf(err, "no checkpoint in %s", dir)
	}
	name := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(name, checkpointPrefix) {
		return "", fmt.Errorf("corrupt checkpoint index in %s", dir)
	}
	return filepath.Join(dir, name), nil
}

func Load(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var bundle Bundle
	if err := gob.NewDecoder(snappy.NewReader(file)).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &bundle, nil
}

// Restore loads the newest checkpoint in dir as an estimator.
func Restore(dir string) (models.Estimator, *Metadata, error) {
	path, err := Latest(dir)
	if err != nil {
		return nil, nil, err
	}
	bundle, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	est, err := models.FromState(dir, bundle.State)
	if err != nil {
		return nil, nil, err
	}
	return est, &bundle.Metadata, nil
}

// ResetDir removes any previous run's output.
func ResetDir(dir string) error {
	if dir == "" || dir == "/" {
		return fmt.Errorf("refusing to remove model directory %q", dir)
	}
	return errors.Wrapf(os.RemoveAll(dir), "failed to remove %s", dir)
}
