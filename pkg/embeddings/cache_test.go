package embeddings_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/embeddings"
	testutils "github.com/arqalabs/arqa/pkg/utils/test"
)

func TestEmbeddings(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Embeddings Suite")
}

var _ = Describe("Cache", func() {
	var (
		ctx  context.Context
		path string
		mock *testutils.MockEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "embeddings.json")
		mock = testutils.NewMockEmbedder()
		mock.Embeddings["what is CAN arbitration?"] = []float32{1, 0, 0}
	})

	It("delegates a cold lookup to the wrapped embedder", func() {
		cache := embeddings.NewCache(mock, path, zap.NewNop())

		vec, err := cache.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())
		Expect(vec).To(Equal([]float32{1, 0, 0}))
		Expect(mock.Calls).To(HaveLen(1))
	})

	It("serves repeat lookups without another provider call", func() {
		cache := embeddings.NewCache(mock, path, zap.NewNop())

		_, err := cache.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())
		vec, err := cache.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())

		Expect(vec).To(Equal([]float32{1, 0, 0}))
		Expect(mock.Calls).To(HaveLen(1))
	})

	It("treats any text change as a different key", func() {
		cache := embeddings.NewCache(mock, path, zap.NewNop())

		_, err := cache.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())
		_, err = cache.Embed(ctx, "what is CAN arbitration? ")
		Expect(err).ToNot(HaveOccurred())

		Expect(mock.Calls).To(HaveLen(2))
		Expect(cache.Len()).To(Equal(2))
	})

	It("does not cache failures", func() {
		mock.FailOn = "broken chunk"
		cache := embeddings.NewCache(mock, path, zap.NewNop())

		_, err := cache.Embed(ctx, "broken chunk")
		Expect(err).To(HaveOccurred())
		Expect(cache.Len()).To(Equal(0))

		mock.FailOn = ""
		_, err = cache.Embed(ctx, "broken chunk")
		Expect(err).ToNot(HaveOccurred())
		Expect(cache.Len()).To(Equal(1))
	})

	It("persists across flush and reload", func() {
		cache := embeddings.NewCache(mock, path, zap.NewNop())
		_, err := cache.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())
		Expect(cache.Flush()).To(Succeed())

		fresh := testutils.NewMockEmbedder()
		reloaded := embeddings.NewCache(fresh, path, zap.NewNop())
		Expect(reloaded.Load()).To(Succeed())

		vec, err := reloaded.Embed(ctx, "what is CAN arbitration?")
		Expect(err).ToNot(HaveOccurred())
		Expect(vec).To(Equal([]float32{1, 0, 0}))
		Expect(fresh.Calls).To(BeEmpty())
	})

	It("loads cleanly when no cache file exists", func() {
		cache := embeddings.NewCache(mock, path, zap.NewNop())
		Expect(cache.Load()).To(Succeed())
		Expect(cache.Len()).To(Equal(0))
	})
})

var _ = Describe("EmbedAll", func() {
	var (
		ctx  context.Context
		mock *testutils.MockEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		mock = testutils.NewMockEmbedder()
	})

	It("embeds texts in order", func() {
		mock.Embeddings["a"] = []float32{1, 0, 0}
		mock.Embeddings["b"] = []float32{0, 1, 0}

		vectors, err := embeddings.EmbedAll(ctx, mock, []string{"a", "b"})
		Expect(err).ToNot(HaveOccurred())
		Expect(vectors).To(Equal([][]float32{{1, 0, 0}, {0, 1, 0}}))
	})

	It("aborts on the first failure and names the offending text", func() {
		mock.FailOn = "b"

		_, err := embeddings.EmbedAll(ctx, mock, []string{"a", "b", "c"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("b"))
		Expect(mock.Calls).To(Equal([]string{"a", "b"}))
	})
})
