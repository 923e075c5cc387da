// Package splitmeta prepares project meta to have tag metas of train and val.
package splitmeta

import (
	"errors"
	"fmt"
	"log"

	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/sampling"
)

var ErrIncompatibleTagMeta = errors.New("existing tag meta is incompatible")

var (
	TrainTagMeta = tags.Meta{Name: sampling.Train, ValueType: tags.None, Color: tags.RGB(0, 255, 0)}
	ValTagMeta   = tags.Meta{Name: sampling.Val, ValueType: tags.None, Color: tags.RGB(255, 128, 0)}
)

// Prepare returns a meta which has train and val tag metas.
//
// Tag metas which already exist are reused when their value type is none.
// Otherwise, ErrIncompatibleTagMeta is returned.
//
// original is not modified.
func Prepare(original meta.ProjectMeta, logger *log.Logger) (meta.ProjectMeta, error) {
	result := original.Clone()
	for _, tm := range []tags.Meta{TrainTagMeta, ValTagMeta} {
		existing, ok := original.TagMeta(tm.Name)
		if !ok {
			result = result.WithTagMetas(tm)
			continue
		}

		logger.Printf("[WARN] tag %s already exists in project meta", tm.Name)
		if existing.ValueType != tags.None {
			err := fmt.Errorf(
				"%w: tag %s in project meta has value_type %s (!= %s). Please check your project tags",
				ErrIncompatibleTagMeta, tm.Name, existing.ValueType, tags.None,
			)
			logger.Printf("[ERROR] %s", err)
			return meta.ProjectMeta{}, err
		}
		logger.Printf("[WARN] existing %s tags on images will be replaced with new ones", tm.Name)
	}
	return result, nil
}
