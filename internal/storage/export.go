package storage

import (
	"encoding/json"
	"io"
	"os"
)

// WriteJSON writes indented run metadata, as printed by --json.
func WriteJSON(w io.Writer, meta *RunMetadata) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}

func ExportJSON(path string, meta *RunMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta)
}
