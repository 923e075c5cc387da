// Package sampling splits images into train and val at random.
package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/opst/trainval/pkg/api/types/images"
)

const (
	Train = "train"
	Val   = "val"

	DefaultTrainPercent = 80
)

var (
	ErrCountMismatch     = errors.New("train count + val count should be equal to total images count")
	ErrSharedSplitHasVal = errors.New("val split should be empty when images are shared between splits")
	ErrNegativeCount     = errors.New("count should not be negative")
)

// Bucket is a group of images in a dataset.
type Bucket struct {
	DatasetId int
	Images    []images.Info
}

// Buckets are groups of images per dataset.
type Buckets []Bucket

// Len is the number of images in all buckets.
func (bs Buckets) Len() int {
	n := 0
	for _, b := range bs {
		n += len(b.Images)
	}
	return n
}

// Of returns images of a dataset.
func (bs Buckets) Of(datasetId int) []images.Info {
	for _, b := range bs {
		if b.DatasetId == datasetId {
			return b.Images
		}
	}
	return nil
}

// bucketize groups images by dataset.
//
// Buckets are ordered by first appearance of their dataset in imgs.
func bucketize(imgs []images.Info) Buckets {
	index := map[int]int{}
	ret := Buckets{}
	for _, img := range imgs {
		nth, ok := index[img.DatasetId]
		if !ok {
			nth = len(ret)
			index[img.DatasetId] = nth
			ret = append(ret, Bucket{DatasetId: img.DatasetId})
		}
		ret[nth].Images = append(ret[nth].Images, img)
	}
	return ret
}

type Split struct {
	Train Buckets
	Val   Buckets

	TrainCount int
	ValCount   int
}

// Sample shuffles images and takes the first trainCount images as train, the rest as val.
//
// trainCount is clamped into [0, len(imgs)]. imgs is not modified.
func Sample(imgs []images.Info, trainCount int, rnd *rand.Rand) Split {
	shuffled := slices.Clone(imgs)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	trainCount = max(0, min(trainCount, len(shuffled)))
	train := shuffled[:trainCount]
	val := shuffled[trainCount:]

	return Split{
		Train:      bucketize(train),
		Val:        bucketize(val),
		TrainCount: len(train),
		ValCount:   len(val),
	}
}

// Counts are numbers of images for each split.
type Counts struct {
	Total int `json:"total"`
	Train int `json:"train"`
	Val   int `json:"val"`
}

// Percents are ratios of each split, in percent.
type Percents struct {
	Total int `json:"total"`
	Train int `json:"train"`
	Val   int `json:"val"`
}

// DefaultCounts computes counts from a percentage of train.
//
// train = int(total / 100 * trainPercent), computed in float, and val takes the rest.
func DefaultCounts(total int, trainPercent int) (Counts, Percents) {
	train := int(float64(total) / 100 * float64(trainPercent))
	return Counts{Total: total, Train: train, Val: total - train},
		Percents{Total: 100, Train: trainPercent, Val: 100 - trainPercent}
}

// Validate checks counts against the number of images in the project.
//
// # Args
//
// - total: number of images in the project
//
// - share: whether images are shared between splits.
// When true, all images are train and val together, and only negative counts are rejected here.
//
// # Returns
//
// - error: ErrCountMismatch or ErrNegativeCount
func (c Counts) Validate(total int, share bool) error {
	if c.Train < 0 || c.Val < 0 {
		return fmt.Errorf("%w: train=%d, val=%d", ErrNegativeCount, c.Train, c.Val)
	}
	if share {
		return nil
	}
	if c.Train+c.Val != total {
		return fmt.Errorf("%w: %d + %d != %d", ErrCountMismatch, c.Train, c.Val, total)
	}
	return nil
}

// ValidateShared checks a split sampled for shared mode.
func (s Split) ValidateShared() error {
	if s.ValCount != 0 {
		return fmt.Errorf("%w: %d images in val", ErrSharedSplitHasVal, s.ValCount)
	}
	return nil
}
