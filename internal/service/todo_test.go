package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// flakyStorage wraps memory storage and can be told to fail writes.
type flakyStorage struct {
	*storage.MemoryStorage
	failWrites bool
	writes     int
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	f.writes++
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func storedTodos(ctx context.Context, store storage.Storage) []model.TodoItem {
	raw, err := store.Get(ctx, TodosKey)
	Expect(err).NotTo(HaveOccurred())

	var items []model.TodoItem
	Expect(json.Unmarshal([]byte(raw), &items)).To(Succeed())
	return items
}

var _ = Describe("TodoStore", func() {
	var (
		ctx     context.Context
		backing *flakyStorage
		todos   *TodoStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		backing = &flakyStorage{MemoryStorage: storage.NewMemoryStorage()}
		todos = NewTodoStore(ctx, backing, WithIDGenerator(sequentialIDs()))
	})

	Describe("hydration", func() {
		It("should start empty when the slot is missing", func() {
			Expect(todos.Items()).To(BeEmpty())
			Expect(backing.writes).To(BeZero())
		})

		It("should start empty when the slot is not valid JSON", func() {
			Expect(backing.MemoryStorage.Set(ctx, TodosKey, "{not json")).To(Succeed())

			store := NewTodoStore(ctx, backing)
			Expect(store.Items()).To(BeEmpty())
		})

		It("should start empty when the slot holds null", func() {
			Expect(backing.MemoryStorage.Set(ctx, TodosKey, "null")).To(Succeed())

			store := NewTodoStore(ctx, backing)
			Expect(store.Items()).NotTo(BeNil())
			Expect(store.Items()).To(BeEmpty())
		})

		It("should round-trip a persisted list", func() {
			todos.Add(ctx, "Buy milk")
			todos.Add(ctx, "Walk dog")
			todos.Toggle(ctx, "id-1")

			reloaded := NewTodoStore(ctx, backing)
			Expect(reloaded.Items()).To(Equal(todos.Items()))
		})
	})

	Describe("Add", func() {
		It("should prepend an open item and persist it", func() {
			first, ok := todos.Add(ctx, "Buy milk")
			Expect(ok).To(BeTrue())
			Expect(first).To(Equal(model.TodoItem{ID: "id-1", Text: "Buy milk"}))

			todos.Add(ctx, "Walk dog")

			items := todos.Items()
			Expect(items).To(HaveLen(2))
			Expect(items[0].Text).To(Equal("Walk dog"))
			Expect(items[1].Text).To(Equal("Buy milk"))
			Expect(storedTodos(ctx, backing)).To(Equal(items))
		})

		It("should keep the text as given", func() {
			item, ok := todos.Add(ctx, "  spaced  ")
			Expect(ok).To(BeTrue())
			Expect(item.Text).To(Equal("  spaced  "))
		})

		DescribeTable("should ignore blank text",
			func(text string) {
				_, ok := todos.Add(ctx, text)
				Expect(ok).To(BeFalse())
				Expect(todos.Items()).To(BeEmpty())
				Expect(backing.writes).To(BeZero())
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
			Entry("tabs and newlines", "\t\n"),
		)
	})

	Describe("Toggle", func() {
		BeforeEach(func() {
			todos.Add(ctx, "Buy milk")
			todos.Add(ctx, "Walk dog")
		})

		It("should flip only the matching item", func() {
			Expect(todos.Toggle(ctx, "id-1")).To(BeTrue())

			items := todos.Items()
			Expect(items[0]).To(Equal(model.TodoItem{ID: "id-2", Text: "Walk dog"}))
			Expect(items[1]).To(Equal(model.TodoItem{ID: "id-1", Text: "Buy milk", Completed: true}))
		})

		It("should restore the list when toggled twice", func() {
			before := todos.Items()
			todos.Toggle(ctx, "id-2")
			todos.Toggle(ctx, "id-2")
			Expect(todos.Items()).To(Equal(before))
		})

		It("should not write for an unknown id", func() {
			writes := backing.writes
			Expect(todos.Toggle(ctx, "missing")).To(BeFalse())
			Expect(backing.writes).To(Equal(writes))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			todos.Add(ctx, "a")
			todos.Add(ctx, "b")
			todos.Add(ctx, "c")
		})

		It("should remove the item and keep the order of the rest", func() {
			Expect(todos.Delete(ctx, "id-2")).To(BeTrue())

			items := todos.Items()
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal("id-3"))
			Expect(items[1].ID).To(Equal("id-1"))
		})

		It("should be a no-op the second time", func() {
			Expect(todos.Delete(ctx, "id-2")).To(BeTrue())
			after := todos.Items()
			Expect(todos.Delete(ctx, "id-2")).To(BeFalse())
			Expect(todos.Items()).To(Equal(after))
		})
	})

	Describe("Stats", func() {
		It("should count completed and pending items", func() {
			Expect(todos.Stats()).To(Equal(model.TodoStats{}))

			todos.Add(ctx, "a")
			todos.Add(ctx, "b")
			todos.Add(ctx, "c")
			todos.Toggle(ctx, "id-1")

			Expect(todos.Stats()).To(Equal(model.TodoStats{Total: 3, Completed: 1, Pending: 2}))
		})
	})

	Context("when the slot rejects writes", func() {
		It("should keep the in-memory change", func() {
			backing.failWrites = true

			_, ok := todos.Add(ctx, "Buy milk")
			Expect(ok).To(BeTrue())
			Expect(todos.Items()).To(HaveLen(1))

			_, err := backing.Get(ctx, TodosKey)
			Expect(err).To(MatchError(storage.ErrKeyNotFound))
		})
	})

	Describe("WithAfterChange", func() {
		It("should run after the slot write with the new list", func() {
			var seen [][]model.TodoItem
			store := NewTodoStore(ctx, backing,
				WithIDGenerator(sequentialIDs()),
				WithAfterChange(func(ctx context.Context, items []model.TodoItem) {
					Expect(storedTodos(ctx, backing)).To(Equal(items))
					seen = append(seen, items)
				}),
			)

			store.Add(ctx, "a")
			store.Toggle(ctx, "missing")
			store.Delete(ctx, "id-1")

			Expect(seen).To(HaveLen(2))
			Expect(seen[1]).To(BeEmpty())
		})

		It("should let the hook read the store back", func() {
			var stats []model.TodoStats
			var store *TodoStore
			store = NewTodoStore(ctx, backing,
				WithIDGenerator(sequentialIDs()),
				WithAfterChange(func(ctx context.Context, items []model.TodoItem) {
					Expect(store.Items()).To(Equal(items))
					stats = append(stats, store.Stats())
				}),
			)

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				store.Add(ctx, "a")
				store.Toggle(ctx, "id-1")
				store.Delete(ctx, "id-1")
			}()

			Eventually(done).Should(BeClosed())
			Expect(stats).To(Equal([]model.TodoStats{
				{Total: 1, Pending: 1},
				{Total: 1, Completed: 1},
				{},
			}))
		})

		It("should hand each hook its own copy", func() {
			store := NewTodoStore(ctx, backing,
				WithIDGenerator(sequentialIDs()),
				WithAfterChange(func(ctx context.Context, items []model.TodoItem) {
					items[0].Text = "changed"
				}),
			)

			store.Add(ctx, "a")
			Expect(store.Items()[0].Text).To(Equal("a"))
		})
	})

	It("should generate distinct ids by default", func() {
		store := NewTodoStore(ctx, storage.NewMemoryStorage())
		a, _ := store.Add(ctx, "a")
		b, _ := store.Add(ctx, "b")
		Expect(a.ID).NotTo(BeEmpty())
		Expect(a.ID).NotTo(Equal(b.ID))
	})
})
