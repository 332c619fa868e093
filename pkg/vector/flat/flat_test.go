package flat_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/vector"
	"github.com/arqalabs/arqa/pkg/vector/flat"
)

func TestFlat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Flat Store Suite")
}

var _ = Describe("Store", func() {
	var (
		ctx context.Context
		dir string
	)

	openStore := func() *flat.Store {
		store, err := flat.Open(flat.Config{
			Dir:        dir,
			Collection: "autosar_docs",
			Dimensions: 3,
		}, zap.NewNop())
		Expect(err).ToNot(HaveOccurred())
		return store
	}

	meta := func(source, text string) vector.Metadata {
		return vector.Metadata{Source: source, Path: "/docs/" + source, Text: text}
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
	})

	It("requires configured dimensions", func() {
		_, err := flat.Open(flat.Config{Dir: dir, Collection: "c"}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	Describe("empty store", func() {
		It("opens with zero count when no artifacts exist", func() {
			store := openStore()
			count, err := store.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(0))
		})

		It("returns empty results for any query", func() {
			store := openStore()
			results, err := store.Query(ctx, []float32{1, 0, 0}, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("accepts an empty add without creating artifacts", func() {
			store := openStore()
			count, err := store.Add(ctx, nil, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(0))
		})
	})

	Describe("Add", func() {
		It("rejects mismatched vector and metadata lengths", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0, 0}}, nil)
			Expect(err).To(MatchError(vector.ErrLengthMismatch))
		})

		It("rejects vectors of the wrong width", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("returns the number of records added per batch", func() {
			store := openStore()

			count, err := store.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))

			count, err = store.Add(ctx,
				[][]float32{{0, 1, 0}, {0, 0, 1}},
				[]vector.Metadata{meta("b.pdf", "y"), meta("b.pdf", "z")},
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))

			total, err := store.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(3))
		})

		It("returns zero for an empty add even when records exist", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).ToNot(HaveOccurred())

			count, err := store.Add(ctx, nil, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(0))
		})

		It("preserves records appended through another handle on the same collection", func() {
			first := openStore()
			second := openStore()

			_, err := first.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "alpha")})
			Expect(err).ToNot(HaveOccurred())

			_, err = second.Add(ctx, [][]float32{{0, 1, 0}}, []vector.Metadata{meta("b.pdf", "beta")})
			Expect(err).ToNot(HaveOccurred())

			reopened := openStore()
			count, err := reopened.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))

			results, err := reopened.Query(ctx, []float32{1, 0, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(results[0].Text).To(Equal("alpha"))
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			store := openStore()
			_, err := store.Add(ctx,
				[][]float32{
					{1, 0, 0},
					{0, 1, 0},
					{0.9, 0.1, 0},
				},
				[]vector.Metadata{
					meta("can.pdf", "CAN arbitration"),
					meta("uds.pdf", "UDS sessions"),
					meta("can.pdf", "CAN error frames"),
				},
			)
			Expect(err).ToNot(HaveOccurred())
		})

		It("ranks results by cosine similarity, descending", func() {
			store := openStore()
			results, err := store.Query(ctx, []float32{1, 0, 0}, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Text).To(Equal("CAN arbitration"))
			Expect(results[1].Text).To(Equal("CAN error frames"))
			Expect(results[2].Text).To(Equal("UDS sessions"))
			Expect(results[0].Score).To(BeNumerically(">=", results[1].Score))
			Expect(results[1].Score).To(BeNumerically(">=", results[2].Score))
		})

		It("is insensitive to query magnitude", func() {
			store := openStore()
			small, err := store.Query(ctx, []float32{1, 0, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			large, err := store.Query(ctx, []float32{100, 0, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(large[0].Score).To(BeNumerically("~", small[0].Score, 1e-5))
		})

		It("truncates to topK", func() {
			store := openStore()
			results, err := store.Query(ctx, []float32{1, 0, 0}, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("returns everything when topK exceeds the count", func() {
			store := openStore()
			results, err := store.Query(ctx, []float32{1, 0, 0}, 50)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("keeps vector rows aligned with their metadata", func() {
			store := openStore()
			results, err := store.Query(ctx, []float32{0, 1, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(results[0].Source).To(Equal("uds.pdf"))
			Expect(results[0].Path).To(Equal("/docs/uds.pdf"))
		})
	})

	Describe("persistence", func() {
		It("survives a close and reopen with identical search results", func() {
			store := openStore()
			_, err := store.Add(ctx,
				[][]float32{{1, 0, 0}, {0, 1, 0}},
				[]vector.Metadata{meta("a.pdf", "alpha"), meta("b.pdf", "beta")},
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(store.Close()).To(Succeed())

			reopened := openStore()
			count, err := reopened.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))

			results, err := reopened.Query(ctx, []float32{0, 1, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(results[0].Text).To(Equal("beta"))
		})

		It("fails loudly when the metadata artifact is missing", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).ToNot(HaveOccurred())

			Expect(os.Remove(filepath.Join(dir, "autosar_docs_meta.json"))).To(Succeed())

			_, err = flat.Open(flat.Config{Dir: dir, Collection: "autosar_docs", Dimensions: 3}, zap.NewNop())
			Expect(err).To(MatchError(vector.ErrStateMismatch))
		})

		It("fails loudly when the vector artifact is missing", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).ToNot(HaveOccurred())

			Expect(os.Remove(filepath.Join(dir, "autosar_docs.vec"))).To(Succeed())

			_, err = flat.Open(flat.Config{Dir: dir, Collection: "autosar_docs", Dimensions: 3}, zap.NewNop())
			Expect(err).To(MatchError(vector.ErrStateMismatch))
		})

		It("fails loudly when record counts disagree", func() {
			store := openStore()
			_, err := store.Add(ctx,
				[][]float32{{1, 0, 0}, {0, 1, 0}},
				[]vector.Metadata{meta("a.pdf", "x"), meta("b.pdf", "y")},
			)
			Expect(err).ToNot(HaveOccurred())

			metaPath := filepath.Join(dir, "autosar_docs_meta.json")
			Expect(os.WriteFile(metaPath, []byte(`[{"source":"a.pdf","path":"/docs/a.pdf","text":"x"}]`), 0o644)).To(Succeed())

			_, err = flat.Open(flat.Config{Dir: dir, Collection: "autosar_docs", Dimensions: 3}, zap.NewNop())
			Expect(err).To(MatchError(vector.ErrStateMismatch))
		})

		It("rejects an artifact written with a different dimension", func() {
			store := openStore()
			_, err := store.Add(ctx, [][]float32{{1, 0, 0}}, []vector.Metadata{meta("a.pdf", "x")})
			Expect(err).ToNot(HaveOccurred())

			_, err = flat.Open(flat.Config{Dir: dir, Collection: "autosar_docs", Dimensions: 4}, zap.NewNop())
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})
})
