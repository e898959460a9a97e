// Package store persists per-wheel motor tuning values in a YAML file,
// addressed by slot like the EEPROM layout on embedded controllers.
package store

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

// FileStore is a motor.Store backed by one YAML file holding a slot map.
type FileStore struct {
	path string
}

var _ motor.Store = (*FileStore)(nil)

// NewFileStore returns a store reading and writing the given file. The file
// is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[int]motor.TuningValues, error) {
	slots := map[int]motor.TuningValues{}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return slots, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading tuning store %s", s.path)
	}
	if err := yaml.Unmarshal(data, &slots); err != nil {
		return nil, errors.Wrapf(err, "parsing tuning store %s", s.path)
	}
	return slots, nil
}

// ReadSlot returns the tuning values stored in the given slot.
func (s *FileStore) ReadSlot(slot int) (motor.TuningValues, error) {
	slots, err := s.load()
	if err != nil {
		return motor.TuningValues{}, err
	}
	values, ok := slots[slot]
	if !ok {
		return motor.TuningValues{}, errors.Errorf("tuning store %s has no slot %d", s.path, slot)
	}
	return values, nil
}

// WriteSlot stores tuning values in the given slot, keeping other slots.
func (s *FileStore) WriteSlot(slot int, values motor.TuningValues) error {
	slots, err := s.load()
	if err != nil {
		return err
	}
	slots[slot] = values
	data, err := yaml.Marshal(slots)
	if err != nil {
		return errors.Wrapf(err, "encoding tuning store %s", s.path)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing tuning store %s", s.path)
	}
	return nil
}
