package datasettree_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/datasettree"
)

func ptr(i int) *int { return &i }

// 1 ─┬─ 3 ─── 5
//
//	└─ 4
//
// 2
var listing = []datasets.Info{
	{Id: 5, Name: "deep", ParentId: ptr(3)},
	{Id: 2, Name: "dogs"},
	{Id: 4, Name: "kittens", ParentId: ptr(1)},
	{Id: 3, Name: "lions", ParentId: ptr(1)},
	{Id: 1, Name: "cats"},
}

func ids(ds []datasets.Info) []int {
	ret := []int{}
	for _, d := range ds {
		ret = append(ret, d.Id)
	}
	return ret
}

func TestBuild(t *testing.T) {
	t.Run("it builds forest ordered by id", func(t *testing.T) {
		forest := datasettree.Build(listing)
		if diff := cmp.Diff([]int{1, 3, 5, 4, 2}, ids(datasettree.Flatten(forest))); diff != "" {
			t.Errorf("pre-order (-want +got):\n%s", diff)
		}
		if len(forest) != 2 {
			t.Errorf("unexpected number of roots: %d", len(forest))
		}
	})

	t.Run("dataset with unknown parent becomes root", func(t *testing.T) {
		forest := datasettree.Build([]datasets.Info{
			{Id: 7, Name: "orphan", ParentId: ptr(99)},
			{Id: 8, Name: "child", ParentId: ptr(7)},
		})
		if len(forest) != 1 || forest[0].Dataset.Id != 7 || len(forest[0].Children) != 1 {
			t.Errorf("unexpected forest: %+v", forest)
		}
	})

	t.Run("datasets in a parent cycle are kept", func(t *testing.T) {
		// 7 -> 8 -> 7, and 9 is a child of 8
		forest := datasettree.Build([]datasets.Info{
			{Id: 8, Name: "b", ParentId: ptr(7)},
			{Id: 9, Name: "c", ParentId: ptr(8)},
			{Id: 7, Name: "a", ParentId: ptr(8)},
			{Id: 1, Name: "cats"},
		})
		if diff := cmp.Diff([]int{1, 7, 8, 9}, ids(datasettree.Flatten(forest))); diff != "" {
			t.Errorf("pre-order (-want +got):\n%s", diff)
		}
		if len(forest) != 2 || forest[1].Dataset.Id != 7 {
			t.Errorf("smallest id in the cycle should be a root: %+v", forest)
		}
	})

	t.Run("each of separated cycles gets its own root", func(t *testing.T) {
		forest := datasettree.Build([]datasets.Info{
			{Id: 3, Name: "c", ParentId: ptr(2)},
			{Id: 2, Name: "b", ParentId: ptr(4)},
			{Id: 4, Name: "d", ParentId: ptr(3)},
			{Id: 6, Name: "f", ParentId: ptr(5)},
			{Id: 5, Name: "e", ParentId: ptr(6)},
		})
		if diff := cmp.Diff([]int{2, 3, 4, 5, 6}, ids(datasettree.Flatten(forest))); diff != "" {
			t.Errorf("pre-order (-want +got):\n%s", diff)
		}
		if len(forest) != 2 {
			t.Errorf("unexpected number of roots: %d", len(forest))
		}
	})

	t.Run("dataset which is its own parent becomes root", func(t *testing.T) {
		forest := datasettree.Build([]datasets.Info{{Id: 3, Name: "self", ParentId: ptr(3)}})
		if len(forest) != 1 || len(forest[0].Children) != 0 {
			t.Errorf("unexpected forest: %+v", forest)
		}
	})

	t.Run("empty listing gives empty forest", func(t *testing.T) {
		if forest := datasettree.Build(nil); len(forest) != 0 {
			t.Errorf("unexpected forest: %+v", forest)
		}
	})
}

func TestFindChain(t *testing.T) {
	forest := datasettree.Build(listing)

	type When struct {
		id       int
		withSelf bool
	}
	type Then struct {
		chain []int
		found bool
	}
	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			chain, found := datasettree.FindChain(forest, when.id, when.withSelf)
			if found != then.found {
				t.Fatalf("found: want %v, got %v", then.found, found)
			}
			if !found {
				return
			}
			if diff := cmp.Diff(then.chain, ids(chain)); diff != "" {
				t.Errorf("chain (-want +got):\n%s", diff)
			}
		}
	}

	t.Run("deep dataset with self", theory(When{id: 5, withSelf: true}, Then{chain: []int{1, 3, 5}, found: true}))
	t.Run("deep dataset without self", theory(When{id: 5, withSelf: false}, Then{chain: []int{1, 3}, found: true}))
	t.Run("root with self", theory(When{id: 2, withSelf: true}, Then{chain: []int{2}, found: true}))
	t.Run("root without self", theory(When{id: 2, withSelf: false}, Then{chain: []int{}, found: true}))
	t.Run("missing dataset", theory(When{id: 42, withSelf: true}, Then{found: false}))
}

func TestWalk(t *testing.T) {
	t.Run("parent is given with each node", func(t *testing.T) {
		parents := map[int]int{}
		err := datasettree.Walk(datasettree.Build(listing), func(n, p *datasettree.Node) error {
			if p == nil {
				parents[n.Dataset.Id] = 0
			} else {
				parents[n.Dataset.Id] = p.Dataset.Id
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(map[int]int{1: 0, 2: 0, 3: 1, 4: 1, 5: 3}, parents); diff != "" {
			t.Errorf("parents (-want +got):\n%s", diff)
		}
	})

	t.Run("error stops walking", func(t *testing.T) {
		expectedErr := errors.New("fake")
		visited := 0
		err := datasettree.Walk(datasettree.Build(listing), func(n, _ *datasettree.Node) error {
			visited += 1
			if n.Dataset.Id == 3 {
				return expectedErr
			}
			return nil
		})
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if visited != 2 {
			t.Errorf("unexpected number of visits: %d", visited)
		}
	})
}
