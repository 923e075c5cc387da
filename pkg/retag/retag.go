// Package retag replaces split tags on annotations.
package retag

import (
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/sampling"
)

// Apply removes train and val tags from the annotation, then adds new tags named names.
//
// Other tags and members of the annotation are kept. ann is not modified.
func Apply(ann annotations.Annotation, names ...string) annotations.Annotation {
	kept := make([]tags.Tag, 0, len(ann.Tags)+len(names))
	for _, t := range ann.Tags {
		if t.Name == sampling.Train || t.Name == sampling.Val {
			continue
		}
		kept = append(kept, t)
	}
	for _, n := range names {
		kept = append(kept, tags.Tag{Name: n})
	}
	return ann.WithTags(kept)
}
