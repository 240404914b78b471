package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"taskchat-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// slotBehaviour is shared by every backend.
func slotBehaviour(newStore func() Storage) {
	var (
		ctx   context.Context
		store Storage
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
		Expect(store.Init()).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("should return ErrKeyNotFound for a key never set", func() {
		_, err := store.Get(ctx, "todos")
		Expect(err).To(MatchError(ErrKeyNotFound))
	})

	It("should return the last value written", func() {
		Expect(store.Set(ctx, "todos", `[{"id":"1"}]`)).To(Succeed())
		Expect(store.Set(ctx, "todos", `[]`)).To(Succeed())

		value, err := store.Get(ctx, "todos")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(`[]`))
	})

	It("should keep slots independent", func() {
		Expect(store.Set(ctx, "a", "1")).To(Succeed())
		Expect(store.Set(ctx, "b", "2")).To(Succeed())

		a, err := store.Get(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal("1"))
	})

	It("should forget deleted keys", func() {
		Expect(store.Set(ctx, "todos", "x")).To(Succeed())
		Expect(store.Delete(ctx, "todos")).To(Succeed())

		_, err := store.Get(ctx, "todos")
		Expect(err).To(MatchError(ErrKeyNotFound))
	})

	It("should treat deleting a missing key as a no-op", func() {
		Expect(store.Delete(ctx, "missing")).To(Succeed())
	})
}

var _ = Describe("MemoryStorage", func() {
	slotBehaviour(func() Storage { return NewMemoryStorage() })
})

var _ = Describe("DiskStorage", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "slots-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	})

	Context("slot behaviour", func() {
		slotBehaviour(func() Storage { return NewDiskStorage(tempDir, "slots.json") })
	})

	Context("on disk", func() {
		It("should persist across instances", func() {
			first := NewDiskStorage(tempDir, "slots.json")
			Expect(first.Init()).To(Succeed())
			Expect(first.Set(context.Background(), "todos", `[{"id":"1"}]`)).To(Succeed())
			Expect(first.Close()).To(Succeed())

			second := NewDiskStorage(tempDir, "slots.json")
			Expect(second.Init()).To(Succeed())
			defer second.Close()

			value, err := second.Get(context.Background(), "todos")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(`[{"id":"1"}]`))
		})

		It("should not leave a temp file behind", func() {
			store := NewDiskStorage(tempDir, "slots.json")
			Expect(store.Init()).To(Succeed())
			defer store.Close()
			Expect(store.Set(context.Background(), "todos", "[]")).To(Succeed())

			_, err := os.Stat(filepath.Join(tempDir, "slots.json.tmp"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should create the data directory", func() {
			nested := filepath.Join(tempDir, "a", "b")
			store := NewDiskStorage(nested, "")
			Expect(store.Init()).To(Succeed())
			defer store.Close()

			info, err := os.Stat(nested)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("should move a corrupt slot file aside and start empty", func() {
			Expect(os.WriteFile(filepath.Join(tempDir, "slots.json"), []byte("invalid json {"), 0644)).To(Succeed())

			store := NewDiskStorage(tempDir, "slots.json")
			Expect(store.Init()).To(Succeed())
			defer store.Close()

			_, err := store.Get(context.Background(), "todos")
			Expect(err).To(MatchError(ErrKeyNotFound))

			entries, err := os.ReadDir(tempDir)
			Expect(err).NotTo(HaveOccurred())
			var quarantined int
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), "slots.json.corrupt-") {
					quarantined++
				}
			}
			Expect(quarantined).To(Equal(1))
		})

		It("should refuse operations before Init", func() {
			store := NewDiskStorage(tempDir, "slots.json")
			err := store.Set(context.Background(), "todos", "[]")
			Expect(err).To(MatchError(ContainSubstring("not initialized")))
		})
	})
})

var _ = Describe("RedisStorage", func() {
	var server *miniredis.Miniredis

	BeforeEach(func() {
		var err error
		server, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("slot behaviour", func() {
		slotBehaviour(func() Storage {
			return NewRedisStorage(config.RedisConfig{Address: server.Addr()})
		})
	})

	It("should namespace keys", func() {
		store := NewRedisStorage(config.RedisConfig{Address: server.Addr()})
		Expect(store.Init()).To(Succeed())
		defer store.Close()

		Expect(store.Set(context.Background(), "todos", "[]")).To(Succeed())
		value, err := server.Get("taskchat:todos")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("[]"))
	})

	It("should refuse operations before Init and after Close", func() {
		ctx := context.Background()
		store := NewRedisStorage(config.RedisConfig{Address: server.Addr()})

		_, err := store.Get(ctx, "todos")
		Expect(err).To(MatchError(ErrStorageInit))
		Expect(store.Set(ctx, "todos", "[]")).To(MatchError(ContainSubstring("not initialized")))
		Expect(store.Delete(ctx, "todos")).To(MatchError(ErrStorageInit))

		Expect(store.Init()).To(Succeed())
		Expect(store.Close()).To(Succeed())

		_, err = store.Get(ctx, "todos")
		Expect(err).To(MatchError(ErrStorageInit))
		Expect(store.Close()).To(Succeed())
	})

	It("should fail Init when the server is unreachable", func() {
		addr := server.Addr()
		server.Close()

		store := NewRedisStorage(config.RedisConfig{Address: addr})
		Expect(store.Init()).To(MatchError(ContainSubstring(ErrStorageInit.Error())))
	})
})

var _ = Describe("MiniRedisStorage", func() {
	slotBehaviour(func() Storage { return NewMiniRedisStorage() })
})

var _ = Describe("New", func() {
	It("should pick the backend by type", func() {
		tempDir, err := os.MkdirTemp("", "slots-new-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tempDir)

		store := New(config.StorageConfig{Type: "file", DataDir: tempDir, FileName: "slots.json"})
		defer store.Close()
		Expect(store).To(BeAssignableToTypeOf(&DiskStorage{}))

		Expect(New(config.StorageConfig{Type: "memory"})).To(BeAssignableToTypeOf(&MemoryStorage{}))
		Expect(New(config.StorageConfig{Type: "bogus"})).To(BeAssignableToTypeOf(&MemoryStorage{}))
	})

	It("should fall back to memory when the backend cannot start", func() {
		server, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		addr := server.Addr()
		server.Close()

		store := New(config.StorageConfig{Type: "redis", Redis: config.RedisConfig{Address: addr}})
		Expect(store).To(BeAssignableToTypeOf(&MemoryStorage{}))
	})
})
