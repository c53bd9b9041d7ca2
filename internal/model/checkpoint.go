package model

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxSafetensorsHeader bounds the JSON table at the start of a .safetensors file.
const maxSafetensorsHeader = 100 << 20

// VerifyCheckpoint checks that dir holds every required file and that each is readable.
func VerifyCheckpoint(dir string, required []string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return loadError(KindCheckpointMissing, dir, err)
	}
	if !info.IsDir() {
		return loadError(KindCheckpointMissing, dir, errors.New("not a directory"))
	}

	for _, name := range required {
		path := filepath.Join(dir, name)

		fi, err := os.Stat(path)
		if err != nil {
			return loadError(KindCheckpointMissing, path, err)
		}
		if fi.Size() == 0 {
			return loadError(KindCheckpointCorrupt, path, errors.New("file is empty"))
		}

		if strings.HasSuffix(name, ".safetensors") {
			if err := checkSafetensors(path, fi.Size()); err != nil {
				return loadError(KindCheckpointCorrupt, path, err)
			}
		}
	}

	return nil
}

// checkSafetensors validates the length-prefixed JSON header of a safetensors file.
func checkSafetensors(path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var n uint64
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("failed to read header length: %w", err)
	}
	if n == 0 || n > maxSafetensorsHeader || int64(n) > size-8 {
		return fmt.Errorf("invalid header length %d", n)
	}

	header := make([]byte, n)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal(header, &table); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	return nil
}
