package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/classbridge/classbridge-api/internal/models"
)

// DocumentRepository holds the denormalized class documents backing search and
// browse. Documents live in Redis as JSON values keyed by class ID. The store
// is a best-effort mirror of the relational catalog: a lookup miss is a normal
// outcome reported through the found flag, never an error.
type DocumentRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(client *redis.Client, keyPrefix string) *DocumentRepository {
	if keyPrefix == "" {
		keyPrefix = "classdoc"
	}
	return &DocumentRepository{client: client, keyPrefix: keyPrefix}
}

// Find retrieves the document for a class. found is false when no document
// exists, which callers treat as a valid branch.
func (r *DocumentRepository) Find(ctx context.Context, classID string) (*models.ClassDocument, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}

	raw, err := r.client.Get(ctx, r.key(classID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get class document %s: %w", classID, err)
	}

	var doc models.ClassDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("unmarshal class document %s: %w", classID, err)
	}

	return &doc, true, nil
}

// Save upserts the document for a class. There is no delete operation: stale
// documents for removed classes are tolerated drift.
func (r *DocumentRepository) Save(ctx context.Context, doc *models.ClassDocument) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal class document %s: %w", doc.ClassID, err)
	}

	if err := r.client.Set(ctx, r.key(doc.ClassID), payload, 0).Err(); err != nil {
		return fmt.Errorf("set class document %s: %w", doc.ClassID, err)
	}

	return nil
}

func (r *DocumentRepository) key(classID string) string {
	return r.keyPrefix + ":" + classID
}
