package mediapicker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// udiPrefix is the scheme of legacy media identifiers.
const udiPrefix = "umb://media/"

var errMissingMediaKey = errors.New("missing media key")

// MediaReference is one stored pick: the referenced media item plus the
// crops and focal point chosen locally for it.
type MediaReference struct {
	Key        uuid.UUID          `json:"key"`
	MediaKey   uuid.UUID          `json:"mediaKey"`
	Crops      []ImageCropperCrop `json:"crops,omitempty"`
	FocalPoint *FocalPoint        `json:"focalPoint,omitempty"`
}

// ParseReferences parses a stored value into references, keeping stored
// order. Entries that cannot be parsed are skipped and passed to skip with
// their index; parsing as a whole never fails.
func ParseReferences(raw any, skip func(index int, err error)) []MediaReference {
	data := rawBytes(raw)
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []MediaReference{}
	}
	if skip == nil {
		skip = func(int, error) {}
	}

	if data[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			skip(-1, fmt.Errorf("stored value is not a JSON array: %w", err))
			return []MediaReference{}
		}
		refs := make([]MediaReference, 0, len(entries))
		for i, entry := range entries {
			var ref MediaReference
			if err := json.Unmarshal(entry, &ref); err != nil {
				skip(i, err)
				continue
			}
			if ref.MediaKey == uuid.Nil {
				skip(i, errMissingMediaKey)
				continue
			}
			refs = append(refs, ref)
		}
		return refs
	}

	return parseLegacy(string(data), skip)
}

// parseLegacy parses a comma-separated list of media UDIs or plain GUIDs.
func parseLegacy(s string, skip func(int, error)) []MediaReference {
	parts := strings.Split(s, ",")
	refs := make([]MediaReference, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := uuid.Parse(strings.TrimPrefix(part, udiPrefix))
		if err != nil {
			skip(i, fmt.Errorf("invalid media identifier %q: %w", part, err))
			continue
		}
		refs = append(refs, MediaReference{MediaKey: key})
	}
	return refs
}

func rawBytes(raw any) []byte {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []byte(v)
	case []byte:
		return v
	case json.RawMessage:
		return v
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}
