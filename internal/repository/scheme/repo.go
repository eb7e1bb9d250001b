// Package scheme persists scheme records as Redis hashes.
package scheme

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/udyami-labs/maya/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "scheme:"

// Hash field names.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldDescription = "description"
	fieldBenefits    = "benefits"
	fieldCategory    = "category"
	fieldLink        = "link"
	fieldEligibility = "eligibility"
	fieldEmbedding   = "embedding"
)

// store is the consumer interface for scheme persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the scheme read/write contracts of the retrieval and
// seeding use cases.
type Repo struct {
	store store
}

// New creates a scheme repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put creates or replaces a scheme record.
func (r *Repo) Put(ctx context.Context, s domain.Scheme) error {
	if s.ID == "" {
		return fmt.Errorf("scheme id is required")
	}

	fields := map[string]string{
		fieldID:          s.ID,
		fieldName:        s.Name,
		fieldDescription: s.Description,
		fieldBenefits:    s.Benefits,
		fieldCategory:    s.Category,
		fieldLink:        s.Link,
	}
	if len(s.Eligibility) > 0 {
		data, err := json.Marshal(s.Eligibility)
		if err != nil {
			return fmt.Errorf("marshal eligibility: %w", err)
		}
		fields[fieldEligibility] = string(data)
	}
	if s.HasEmbedding() {
		fields[fieldEmbedding] = string(vectorToBytes(s.Embedding))
	}

	if err := r.store.HSet(ctx, schemeKey(s.ID), fields); err != nil {
		return fmt.Errorf("hset %s: %w", schemeKey(s.ID), err)
	}
	return nil
}

// Get returns a scheme by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Scheme, error) {
	fields, err := r.store.HGetAll(ctx, schemeKey(id))
	if err != nil {
		return domain.Scheme{}, fmt.Errorf("hgetall %s: %w", schemeKey(id), err)
	}
	if len(fields) == 0 {
		return domain.Scheme{}, domain.ErrSchemeNotFound
	}
	return parseScheme(id, fields)
}

// AllWithEmbedding returns every scheme holding a stored embedding, in
// stable key order. Records without an embedding stay invisible to
// retrieval.
func (r *Repo) AllWithEmbedding(ctx context.Context) ([]domain.Scheme, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan schemes: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// SCAN order is nondeterministic; sort so two identical index
	// snapshots rank identically on distance ties.
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch schemes: %w", err)
	}

	schemes := make([]domain.Scheme, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 || fields[fieldEmbedding] == "" {
			continue
		}
		s, err := parseScheme(strings.TrimPrefix(keys[i], keyPrefix), fields)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		schemes = append(schemes, s)
	}
	return schemes, nil
}

// Count returns the number of stored schemes, embedded or not.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan schemes: %w", err)
	}
	return len(keys), nil
}

func schemeKey(id string) string { return keyPrefix + id }

func parseScheme(id string, fields map[string]string) (domain.Scheme, error) {
	s := domain.Scheme{
		ID:          id,
		Name:        fields[fieldName],
		Description: fields[fieldDescription],
		Benefits:    fields[fieldBenefits],
		Category:    fields[fieldCategory],
		Link:        fields[fieldLink],
	}
	if stored := fields[fieldID]; stored != "" {
		s.ID = stored
	}

	if raw := fields[fieldEligibility]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Eligibility); err != nil {
			return domain.Scheme{}, fmt.Errorf("unmarshal eligibility: %w", err)
		}
	}

	if raw := fields[fieldEmbedding]; raw != "" {
		vec, err := bytesToVector([]byte(raw))
		if err != nil {
			return domain.Scheme{}, fmt.Errorf("decode embedding: %w", err)
		}
		s.Embedding = vec
	}

	return s, nil
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, errors.New("embedding blob length not a multiple of 4")
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
