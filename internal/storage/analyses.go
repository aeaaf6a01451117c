package storage

import (
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/hakim/domainwatch/internal/models"
)

// SaveAnalysis persists a full analysis record and indexes it by domain
func (s *Store) SaveAnalysis(analysis *models.Analysis) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(analysis)
		if err != nil {
			return err
		}

		analyses := tx.Bucket([]byte(bucketAnalyses))
		if err := analyses.Put([]byte(analysis.ID), data); err != nil {
			return err
		}

		// Update the domain index (domain -> []analysis_id mapping)
		index := tx.Bucket([]byte(bucketAnalysisIndex))
		domainKey := []byte(analysis.Domain)

		var ids []string
		if existing := index.Get(domainKey); existing != nil {
			if err := json.Unmarshal(existing, &ids); err != nil {
				return err
			}
		}

		found := false
		for _, id := range ids {
			if id == analysis.ID {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, analysis.ID)
		}

		indexData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return index.Put(domainKey, indexData)
	})
}

// GetAnalysis retrieves an analysis record by ID, or nil when not found
func (s *Store) GetAnalysis(id string) (*models.Analysis, error) {
	var analysis *models.Analysis

	err := s.db.View(func(tx *bbolt.Tx) error {
		analyses := tx.Bucket([]byte(bucketAnalyses))
		data := analyses.Get([]byte(id))
		if data == nil {
			return nil
		}

		analysis = &models.Analysis{}
		return json.Unmarshal(data, analysis)
	})

	return analysis, err
}

// ListAnalyses retrieves all analysis records for a domain, newest first.
// An empty domain lists the full history.
func (s *Store) ListAnalyses(domain string) ([]*models.Analysis, error) {
	var results []*models.Analysis

	err := s.db.View(func(tx *bbolt.Tx) error {
		analyses := tx.Bucket([]byte(bucketAnalyses))

		if domain == "" {
			return analyses.ForEach(func(_, data []byte) error {
				var a models.Analysis
				if err := json.Unmarshal(data, &a); err != nil {
					return err
				}
				results = append(results, &a)
				return nil
			})
		}

		index := tx.Bucket([]byte(bucketAnalysisIndex))
		existing := index.Get([]byte(domain))
		if existing == nil {
			return nil
		}

		var ids []string
		if err := json.Unmarshal(existing, &ids); err != nil {
			return err
		}

		for _, id := range ids {
			data := analyses.Get([]byte(id))
			if data == nil {
				continue
			}
			var a models.Analysis
			if err := json.Unmarshal(data, &a); err != nil {
				return err
			}
			results = append(results, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	return results, nil
}
