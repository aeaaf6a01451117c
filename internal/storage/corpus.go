package storage

import (
	"encoding/binary"
	"encoding/json"

	"go.etcd.io/bbolt"

	"github.com/hakim/domainwatch/internal/models"
)

// AppendSample adds a labeled sample to the training corpus. The corpus is
// append-only; keys are monotonic so iteration preserves insertion order.
func (s *Store) AppendSample(sample *models.TrainingSample) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		corpus := tx.Bucket([]byte(bucketCorpus))

		seq, err := corpus.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(sample)
		if err != nil {
			return err
		}
		return corpus.Put(key, data)
	})
}

// ListSamples returns every corpus sample in insertion order
func (s *Store) ListSamples() ([]*models.TrainingSample, error) {
	var samples []*models.TrainingSample

	err := s.db.View(func(tx *bbolt.Tx) error {
		corpus := tx.Bucket([]byte(bucketCorpus))
		return corpus.ForEach(func(_, data []byte) error {
			var sample models.TrainingSample
			if err := json.Unmarshal(data, &sample); err != nil {
				return err
			}
			samples = append(samples, &sample)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// SampleCount returns the number of samples in the corpus
func (s *Store) SampleCount() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketCorpus)).Stats().KeyN
		return nil
	})
	return count, err
}

// LabelDistribution counts corpus samples per class
func (s *Store) LabelDistribution() (map[int]int, error) {
	distribution := make(map[int]int)
	samples, err := s.ListSamples()
	if err != nil {
		return nil, err
	}
	for _, sample := range samples {
		distribution[sample.Class]++
	}
	return distribution, nil
}
