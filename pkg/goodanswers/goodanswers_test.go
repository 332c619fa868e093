package goodanswers_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/goodanswers"
	testutils "github.com/arqalabs/arqa/pkg/utils/test"
)

func TestGoodAnswers(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Good Answers Suite")
}

var _ = Describe("Store", func() {
	var (
		ctx  context.Context
		path string
		mock *testutils.MockEmbedder
	)

	open := func() *goodanswers.Store {
		store, err := goodanswers.Open(path, mock, zap.NewNop())
		Expect(err).ToNot(HaveOccurred())
		return store
	}

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "good_answers.csv")
		mock = testutils.NewMockEmbedder()
		mock.Embeddings["What is CAN arbitration?"] = []float32{1, 0, 0}
		mock.Embeddings["What is the COM module?"] = []float32{0, 1, 0}
	})

	It("opens empty when no record file exists", func() {
		store := open()
		Expect(store.Len()).To(Equal(0))
	})

	It("searches an empty store without error", func() {
		store := open()
		matches, err := store.Search(ctx, "anything", 5, 0.8)
		Expect(err).ToNot(HaveOccurred())
		Expect(matches).To(BeEmpty())
	})

	It("warms the embedding cache on add", func() {
		store := open()
		Expect(store.Add(ctx, "What is CAN arbitration?", "Bitwise priority resolution.")).To(Succeed())
		Expect(mock.Calls).To(ContainElement("What is CAN arbitration?"))
	})

	It("rejects empty questions", func() {
		store := open()
		Expect(store.Add(ctx, "", "answer")).ToNot(Succeed())
	})

	It("persists records across reopen", func() {
		store := open()
		Expect(store.Add(ctx, "What is CAN arbitration?", "Bitwise priority resolution.")).To(Succeed())
		Expect(store.Add(ctx, "What is the COM module?", "The AUTOSAR signal gateway.")).To(Succeed())

		reopened := open()
		Expect(reopened.Len()).To(Equal(2))
	})

	It("round-trips answers containing commas and newlines", func() {
		store := open()
		answer := "First, set NM timeout.\nThen, verify \"sleep\" handling."
		Expect(store.Add(ctx, "What is CAN arbitration?", answer)).To(Succeed())

		reopened := open()
		matches, err := reopened.Search(ctx, "What is CAN arbitration?", 1, 0.9)
		Expect(err).ToNot(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Answer).To(Equal(answer))
	})

	Describe("Search", func() {
		BeforeEach(func() {
			store := open()
			Expect(store.Add(ctx, "What is CAN arbitration?", "Bitwise priority resolution.")).To(Succeed())
			Expect(store.Add(ctx, "What is the COM module?", "The AUTOSAR signal gateway.")).To(Succeed())
		})

		It("returns matches above the threshold, best first", func() {
			mock.Embeddings["how does CAN arbitrate?"] = []float32{0.95, 0.05, 0}

			store := open()
			matches, err := store.Search(ctx, "how does CAN arbitrate?", 5, 0.8)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Answer).To(Equal("Bitwise priority resolution."))
			Expect(matches[0].Score).To(BeNumerically(">=", 0.8))
		})

		It("filters out matches below the threshold", func() {
			mock.Embeddings["unrelated watchdog question"] = []float32{0, 0, 1}

			store := open()
			matches, err := store.Search(ctx, "unrelated watchdog question", 5, 0.8)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("truncates to topK", func() {
			mock.Embeddings["anything vaguely similar"] = []float32{0.7, 0.7, 0}

			store := open()
			matches, err := store.Search(ctx, "anything vaguely similar", 1, 0.5)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})
	})
})
