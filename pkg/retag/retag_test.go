package retag_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/retag"
	"github.com/opst/trainval/pkg/utils/try"
)

func parse(t *testing.T, s string) annotations.Annotation {
	t.Helper()
	ann := annotations.Annotation{}
	if err := json.Unmarshal([]byte(s), &ann); err != nil {
		t.Fatal(err)
	}
	return ann
}

func TestApply(t *testing.T) {
	type When struct {
		annotation string
		names      []string
	}
	type Then struct {
		annotation string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			original := parse(t, when.annotation)
			got := retag.Apply(original, when.names...)

			want := parse(t, then.annotation)
			if !got.Equal(want) {
				t.Errorf(
					"unexpected annotation:\n===actual===\n%s\n===expected===\n%s",
					try.To(json.Marshal(got)).OrFatal(t), try.To(json.Marshal(want)).OrFatal(t),
				)
			}
			if !original.Equal(parse(t, when.annotation)) {
				t.Error("original annotation is modified")
			}
		}
	}

	t.Run("train tag is added and others are kept", theory(
		When{
			annotation: `{"size": {"height": 1, "width": 2}, "objects": [{"classTitle": "cat"}], "tags": [{"name": "cat", "value": "black"}]}`,
			names:      []string{"train"},
		},
		Then{
			annotation: `{"size": {"height": 1, "width": 2}, "objects": [{"classTitle": "cat"}], "tags": [{"name": "cat", "value": "black"}, {"name": "train"}]}`,
		},
	))

	t.Run("ids of kept tags survive", theory(
		When{
			annotation: `{"tags": [{"id": 99, "tagId": 7, "name": "weather", "value": "sun", "labelerLogin": "alice"}, {"id": 100, "tagId": 8, "name": "val"}]}`,
			names:      []string{"train"},
		},
		Then{
			annotation: `{"tags": [{"id": 99, "tagId": 7, "name": "weather", "value": "sun", "labelerLogin": "alice"}, {"name": "train"}]}`,
		},
	))

	t.Run("existing split tags are replaced", theory(
		When{
			annotation: `{"tags": [{"name": "val", "labelerLogin": "alice"}, {"name": "dog"}, {"name": "train"}]}`,
			names:      []string{"train"},
		},
		Then{annotation: `{"tags": [{"name": "dog"}, {"name": "train"}]}`},
	))

	t.Run("both tags for shared split", theory(
		When{annotation: `{"tags": []}`, names: []string{"train", "val"}},
		Then{annotation: `{"tags": [{"name": "train"}, {"name": "val"}]}`},
	))

	t.Run("annotation without tags member", theory(
		When{annotation: `{"description": ""}`, names: []string{"val"}},
		Then{annotation: `{"description": "", "tags": [{"name": "val"}]}`},
	))

	t.Run("marshalled annotation keeps members", func(t *testing.T) {
		got := retag.Apply(parse(t, `{"objects": [], "customBigData": {"k": 1}}`), "train")
		out := map[string]any{}
		if err := json.Unmarshal(try.To(json.Marshal(got)).OrFatal(t), &out); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{
			"objects":       []any{},
			"customBigData": map[string]any{"k": float64(1)},
			"tags":          []any{map[string]any{"name": "train"}},
		}
		if diff := cmp.Diff(want, out); diff != "" {
			t.Errorf("marshalled (-want +got):\n%s", diff)
		}
		if !cmp.Equal([]tags.Tag{{Name: "train"}}, got.Tags) {
			t.Errorf("unexpected tags: %v", got.Tags)
		}
	})
}
