package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio"
)

// MigrateUserIDs rewrites the users document at path so every user id is in
// canonical form and returns how many ids changed. A copy of the
// original is written to path+".bak" unless one already exists. Fields the
// server does not model are preserved.
func MigrateUserIDs(path string) (int, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read users document: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(original, &doc); err != nil {
		return 0, fmt.Errorf("decode users document: %w", err)
	}

	var users []map[string]any
	if raw, ok := doc["users"]; ok {
		if err := json.Unmarshal(raw, &users); err != nil {
			return 0, fmt.Errorf("decode users: %w", err)
		}
	}

	changed := 0
	for _, u := range users {
		id, ok := u["id"].(string)
		if !ok {
			return 0, fmt.Errorf("user without string id: %v", u["id"])
		}
		if canonical := CanonicalUserID(id); canonical != id {
			u["id"] = canonical
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	usersRaw, err := json.Marshal(users)
	if err != nil {
		return 0, fmt.Errorf("encode users: %w", err)
	}
	doc["users"] = usersRaw

	out, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode users document: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		return 0, fmt.Errorf("indent users document: %w", err)
	}

	backup := path + ".bak"
	if _, err := os.Stat(backup); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(backup, original, 0o644); err != nil {
			return 0, fmt.Errorf("write backup: %w", err)
		}
	}

	// Readers see either the old document or the new one, never a partial write.
	if err := renameio.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("replace users document: %w", err)
	}

	return changed, nil
}
