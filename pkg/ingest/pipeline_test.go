package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/chunk"
	"github.com/arqalabs/arqa/pkg/ingest"
	testutils "github.com/arqalabs/arqa/pkg/utils/test"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

// wordTokenizer treats every whitespace-separated word as one token.
type wordTokenizer struct {
	words []string
	ids   map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: map[string]int{}}
}

func (t *wordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, w := range fields {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		out = append(out, id)
	}
	return out
}

func (t *wordTokenizer) Decode(tokens []int) string {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		words = append(words, t.words[id])
	}
	return strings.Join(words, " ")
}

var _ = Describe("Pipeline", func() {
	var (
		ctx      context.Context
		dir      string
		embedder *testutils.MockEmbedder
		store    *testutils.MockVectorDriver
	)

	newPipeline := func(maxChunks int) *ingest.Pipeline {
		splitter, err := chunk.NewSplitter(newWordTokenizer(), chunk.DefaultLimits())
		Expect(err).ToNot(HaveOccurred())
		return ingest.New(ingest.Options{
			Splitter:  splitter,
			Embedder:  embedder,
			Store:     store,
			MaxChunks: maxChunks,
			Workers:   2,
			Logger:    zap.NewNop(),
		})
	}

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		embedder = testutils.NewMockEmbedder()
		store = testutils.NewMockVectorDriver()
	})

	It("persists chunks with aligned metadata", func() {
		path := writeFile("notes.txt", "CAN arbitration resolves bus access by bit priority.")

		report, err := newPipeline(0).IngestPaths(ctx, []string{path})
		Expect(err).ToNot(HaveOccurred())

		Expect(report.RunID).ToNot(BeEmpty())
		Expect(report.Failures).To(BeEmpty())
		Expect(report.Chunks).To(Equal(1))

		Expect(store.Vectors).To(HaveLen(1))
		Expect(store.Metas).To(HaveLen(1))
		Expect(store.Metas[0].Source).To(Equal("notes.txt"))
		Expect(store.Metas[0].Path).To(Equal(path))
		Expect(store.Metas[0].Text).To(ContainSubstring("CAN arbitration"))
	})

	It("skips unreadable documents and continues with the rest", func() {
		good := writeFile("good.txt", "NM coordinates network sleep.")
		bad := writeFile("firmware.bin", "not a document")

		report, err := newPipeline(0).IngestPaths(ctx, []string{bad, good})
		Expect(err).ToNot(HaveOccurred())

		Expect(report.Documents).To(HaveLen(1))
		Expect(report.Documents[0].Name).To(Equal("good.txt"))
		Expect(report.Failures).To(HaveLen(1))
		Expect(report.Failures[0].Path).To(Equal(bad))
		Expect(store.Metas).To(HaveLen(1))
	})

	It("aborts a document on embedding failure without persisting any of it", func() {
		path := writeFile("doc.txt", "Watchdog supervision monitors execution deadlines.")
		embedder.FailOn = "Watchdog supervision monitors execution deadlines."

		report, err := newPipeline(0).IngestPaths(ctx, []string{path})
		Expect(err).ToNot(HaveOccurred())

		Expect(report.Documents).To(BeEmpty())
		Expect(report.Failures).To(HaveLen(1))
		Expect(store.AddCalls).To(Equal(0))
	})

	It("keeps later documents after an embedding failure", func() {
		failing := writeFile("a.txt", "failing text")
		ok := writeFile("b.txt", "healthy text")
		embedder.FailOn = "failing text"

		report, err := newPipeline(0).IngestPaths(ctx, []string{failing, ok})
		Expect(err).ToNot(HaveOccurred())

		Expect(report.Failures).To(HaveLen(1))
		Expect(report.Documents).To(HaveLen(1))
		Expect(store.Metas).To(HaveLen(1))
		Expect(store.Metas[0].Source).To(Equal("b.txt"))
	})

	It("caps chunks per document across blocks", func() {
		content := "BO_ 416 BrakeStatus: 8 ABS\n SG_ BrakePressure : 0|16@1+ (0.1,0) [0|6553.5] \"kPa\" ECU1\n" +
			"BO_ 832 EngineData: 8 ECM\n SG_ EngineSpeed : 0|16@1+ (0.25,0) [0|16383.75] \"rpm\" Vector__XXX\n"
		path := writeFile("chassis.dbc", content)

		report, err := newPipeline(1).IngestPaths(ctx, []string{path})
		Expect(err).ToNot(HaveOccurred())

		Expect(report.Chunks).To(Equal(1))
		Expect(report.Dropped).To(Equal(1))
		Expect(store.Metas).To(HaveLen(1))
	})

	It("issues fresh run IDs per run", func() {
		path := writeFile("notes.txt", "Some text.")
		pipeline := newPipeline(0)

		first, err := pipeline.IngestPaths(ctx, []string{path})
		Expect(err).ToNot(HaveOccurred())
		second, err := pipeline.IngestPaths(ctx, []string{path})
		Expect(err).ToNot(HaveOccurred())

		Expect(first.RunID).ToNot(Equal(second.RunID))
	})
})
