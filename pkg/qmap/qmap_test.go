package qmap_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arqalabs/arqa/pkg/qmap"
)

func TestQmap(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Qmap Suite")
}

var _ = Describe("Rewrite", func() {
	history := []string{"What is the COM module?"}

	It("leaves questions unchanged when history is empty", func() {
		Expect(qmap.Rewrite("What does it do?", nil, 3)).
			To(Equal("What does it do?"))
	})

	It("prepends context for questions under five words", func() {
		Expect(qmap.Rewrite("What does it do?", history, 3)).
			To(Equal("In context of: What is the COM module?, What does it do?"))
	})

	It("prepends context for pronoun-led questions regardless of length", func() {
		Expect(qmap.Rewrite("It routes signals between which layers exactly?", history, 3)).
			To(Equal("In context of: What is the COM module?, It routes signals between which layers exactly?"))
	})

	It("leaves long non-pronoun questions unchanged", func() {
		q := "Explain the PduR routing table configuration in detail"
		Expect(qmap.Rewrite(q, history, 3)).To(Equal(q))
	})

	It("only consults the last window questions", func() {
		long := []string{"q1?", "q2?", "q3?", "q4?"}
		Expect(qmap.Rewrite("Why?", long, 2)).
			To(Equal("In context of: q3? / q4?, Why?"))
	})

	It("normalizes whitespace", func() {
		q := "Explain  the PduR routing\ttable configuration in detail"
		Expect(qmap.Rewrite(q, history, 3)).
			To(Equal("Explain the PduR routing table configuration in detail"))
	})

	It("returns empty for an empty question", func() {
		Expect(qmap.Rewrite("   ", history, 3)).To(Equal(""))
	})
})

var _ = Describe("Map", func() {
	const mapJSON = `{
		"com_overview": {
			"canonical": "What is the COM module?",
			"aliases": ["explain COM", "COM module overview"]
		},
		"module_x_config": {
			"canonical": "What are the configuration parameters of module X",
			"aliases": ["list config params for X"]
		}
	}`

	var m *qmap.Map

	BeforeEach(func() {
		var err error
		m, err = qmap.Parse([]byte(mapJSON), 0.6)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Len()).To(Equal(2))
	})

	Describe("Parse", func() {
		It("rejects non-object documents", func() {
			_, err := qmap.Parse([]byte(`["nope"]`), 0.6)
			Expect(err).To(MatchError(qmap.ErrInvalidMap))
		})

		It("rejects entries without a canonical form", func() {
			_, err := qmap.Parse([]byte(`{"k": {"aliases": ["a"]}}`), 0.6)
			Expect(err).To(MatchError(qmap.ErrInvalidMap))
		})
	})

	Describe("Resolve", func() {
		It("returns an exact canonical match with original casing", func() {
			Expect(m.Resolve("what is the com module?")).
				To(Equal("What is the COM module?"))
		})

		It("resolves aliases to their canonical form", func() {
			Expect(m.Resolve("explain COM")).To(Equal("What is the COM module?"))
		})

		It("resolves near-misses through fuzzy matching", func() {
			Expect(m.Resolve("list config param for X")).
				To(Equal("What are the configuration parameters of module X"))
		})

		It("returns unrelated questions unchanged", func() {
			Expect(m.Resolve("How do I configure watchdog timeouts?")).
				To(Equal("How do I configure watchdog timeouts?"))
		})

		It("is idempotent", func() {
			for _, q := range []string{
				"what is the com module?",
				"list config param for X",
				"How do I configure watchdog timeouts?",
			} {
				once := m.Resolve(q)
				Expect(m.Resolve(once)).To(Equal(once))
			}
		})

		It("ignores surrounding whitespace", func() {
			Expect(m.Resolve("  explain   COM ")).To(Equal("What is the COM module?"))
		})

		It("returns an empty question unchanged", func() {
			Expect(m.Resolve("")).To(Equal(""))
		})
	})
})
