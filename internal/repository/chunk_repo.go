package repository

import (
	"github.com/kothakarthikeya/legal-contract/internal/model"
	"gorm.io/gorm"
)

type ChunkRepository interface {
	ReplaceForDocument(docID string, chunks []model.Chunk) error
	GetByDocument(docID string) ([]model.Chunk, error)
	DeleteByDocument(docID string) error
}

type chunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// ReplaceForDocument swaps a document's chunk set atomically. Re-ingesting
// the same docID must not leave stale passages behind.
func (r *chunkRepository) ReplaceForDocument(docID string, chunks []model.Chunk) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", docID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
}

func (r *chunkRepository) GetByDocument(docID string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.Where("doc_id = ?", docID).Order("seq ASC").Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepository) DeleteByDocument(docID string) error {
	return r.db.Where("doc_id = ?", docID).Delete(&model.Chunk{}).Error
}
