package profilestore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/pitchmech/internal/domain/profile"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// embedded serves a byte slice to koanf.
type embedded []byte

func (e embedded) ReadBytes() ([]byte, error) { return e, nil }

func (e embedded) Read() (map[string]interface{}, error) {
	return nil, errors.New("embedded provider does not support Read()")
}

// StaticStore is an immutable in-memory catalog.
type StaticStore struct {
	profiles map[profile.Key]profile.MechanicsProfile
	keys     []profile.Key
}

var _ Store = (*StaticStore)(nil)

// NewStaticStore loads the catalog at path, or the built-in catalog when
// path is empty. Every entry is validated; one bad entry fails the load.
func NewStaticStore(path string) (*StaticStore, error) {
	var provider koanf.Provider = embedded(defaultCatalog)
	if path != "" {
		provider = file.Provider(path)
	}
	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	var docs []profile.Document
	if err := k.UnmarshalWithConf("profiles", &docs, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return NewStaticStoreFrom(docs)
}

// NewStaticStoreFrom builds a catalog from documents.
func NewStaticStoreFrom(docs []profile.Document) (*StaticStore, error) {
	s := &StaticStore{profiles: make(map[profile.Key]profile.MechanicsProfile, len(docs))}
	var errs []error
	for i, d := range docs {
		if d.Source == "" {
			d.Source = SourceStatic
		}
		p, err := d.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if _, dup := s.profiles[p.Key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate profile %s", i, p.Key))
			continue
		}
		s.profiles[p.Key] = p
		s.keys = append(s.keys, p.Key)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	sortKeys(s.keys)
	return s, nil
}

// Get implements Store.
func (s *StaticStore) Get(_ context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error) {
	key := profile.NewKey(pitcherID, pitchType)
	p, ok := s.profiles[key]
	if !ok {
		err := fmt.Errorf("%w: %s", profile.ErrProfileNotFound, key)
		recordLookup(SourceStatic, err)
		return profile.MechanicsProfile{}, err
	}
	recordLookup(SourceStatic, nil)
	return p, nil
}

// List implements Store.
func (s *StaticStore) List(context.Context) ([]profile.Key, error) {
	return append([]profile.Key(nil), s.keys...), nil
}
