package tags_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/utils/try"
)

func roundTrip[T any](t *testing.T, src string) (T, map[string]any) {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatal(err)
	}
	got := map[string]any{}
	if err := json.Unmarshal(try.To(json.Marshal(v)).OrFatal(t), &got); err != nil {
		t.Fatal(err)
	}
	return v, got
}

func TestTag(t *testing.T) {
	t.Run("ids and other members survive unmarshal and marshal", func(t *testing.T) {
		src := `{"id": 99, "tagId": 7, "name": "weather", "value": "sun", "labelerLogin": "alice", "createdAt": "2024-01-02T03:04:05.000Z"}`
		tag, got := roundTrip[tags.Tag](t, src)

		if tag.Name != "weather" || tag.Value != "sun" || tag.LabelerLogin != "alice" {
			t.Errorf("unexpected tag: %+v", tag)
		}
		want := map[string]any{}
		json.Unmarshal([]byte(src), &want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("tags with different ids are not equal", func(t *testing.T) {
		a, _ := roundTrip[tags.Tag](t, `{"id": 1, "name": "cat"}`)
		b, _ := roundTrip[tags.Tag](t, `{"id": 2, "name": "cat"}`)
		c, _ := roundTrip[tags.Tag](t, `{"id":1,"name":"cat"}`)
		if a.Equal(b) {
			t.Error("a and b should differ")
		}
		if !a.Equal(c) {
			t.Error("a and c should be equal")
		}
	})

	t.Run("new tag marshals only its name", func(t *testing.T) {
		got := string(try.To(json.Marshal(tags.New(tags.Meta{Name: "train"}))).OrFatal(t))
		if got != `{"name":"train"}` {
			t.Errorf("unexpected: %s", got)
		}
	})
}

func TestMeta(t *testing.T) {
	t.Run("id, hotkey and applicable_type survive unmarshal and marshal", func(t *testing.T) {
		src := `{"id": 7, "name": "weather", "value_type": "oneof_string", "color": "#112233", "values": ["sun", "rain"], "hotkey": "w", "applicable_type": "imagesOnly"}`
		m, got := roundTrip[tags.Meta](t, src)

		if m.ValueType != tags.OneOfString || m.Color != "#112233" {
			t.Errorf("unexpected meta: %+v", m)
		}
		want := map[string]any{}
		json.Unmarshal([]byte(src), &want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Clone does not share values", func(t *testing.T) {
		m, _ := roundTrip[tags.Meta](t, `{"id": 7, "name": "w", "value_type": "oneof_string", "color": "#000000", "values": ["a"]}`)
		c := m.Clone()
		c.Values[0] = "b"
		if m.Values[0] != "a" {
			t.Errorf("values are shared: %v", m.Values)
		}
		c.Values[0] = "a"
		if !c.Equal(m) {
			t.Error("clone should be equal")
		}
	})

	t.Run("unknown value type is rejected", func(t *testing.T) {
		m := tags.Meta{}
		if err := json.Unmarshal([]byte(`{"name": "x", "value_type": "color", "color": "#000000"}`), &m); err == nil {
			t.Error("error is expected")
		}
	})

	t.Run("colors are compared case-insensitively", func(t *testing.T) {
		a := tags.Meta{Name: "x", ValueType: tags.None, Color: "#ff8000"}
		b := tags.Meta{Name: "x", ValueType: tags.None, Color: tags.RGB(255, 128, 0)}
		if !a.Equal(b) {
			t.Errorf("%s and %s should be equal", a.Color, b.Color)
		}
	})
}
