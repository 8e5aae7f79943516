package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"resume-wizard/internal/resume"
	"resume-wizard/internal/shared/storage/object"
	"resume-wizard/internal/shared/util"
)

// ObjectStore writes each document as sessions/<sha256(id)>.json on a blob
// store. Session ids are hashed so they never shape the storage path.
type ObjectStore struct {
	Objects object.Store
}

func objectKey(id string) string {
	return "sessions/" + util.HashKey(id) + ".json"
}

func (s *ObjectStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	id, err := validateID(id)
	if err != nil {
		return resume.Document{}, false, err
	}
	rc, err := s.Objects.Open(ctx, objectKey(id))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return resume.Document{}, false, nil
		}
		return resume.Document{}, false, unavailable("load", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return resume.Document{}, false, unavailable("read", err)
	}
	var doc resume.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return resume.Document{}, false, unavailable("decode", err)
	}
	return doc, true, nil
}

func (s *ObjectStore) Save(ctx context.Context, id string, doc resume.Document) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return unavailable("encode", err)
	}
	if _, err := s.Objects.Put(ctx, objectKey(id), "application/json", bytes.NewReader(raw)); err != nil {
		return unavailable("save", err)
	}
	return nil
}

var _ Store = (*ObjectStore)(nil)
