package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classbridge/classbridge-api/internal/models"
)

func TestDocumentRepositoryNilClient(t *testing.T) {
	repo := NewDocumentRepository(nil, "classdoc")

	doc, found, err := repo.Find(context.Background(), "class-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)

	err = repo.Save(context.Background(), &models.ClassDocument{ClassID: "class-1"})
	require.NoError(t, err)
}

func TestDocumentRepositoryKeyPrefix(t *testing.T) {
	repo := NewDocumentRepository(nil, "")
	assert.Equal(t, "classdoc:class-1", repo.key("class-1"))

	repo = NewDocumentRepository(nil, "search")
	assert.Equal(t, "search:class-1", repo.key("class-1"))
}
