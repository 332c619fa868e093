package utils_test

import (
	"testing"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arqalabs/arqa/pkg/utils"
)

func TestUtils(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Utils Suite")
}

var _ = Describe("Truncate", func() {
	It("returns strings within the limit unchanged", func() {
		Expect(utils.Truncate("short", 10)).To(Equal("short"))
		Expect(utils.Truncate("exact", 5)).To(Equal("exact"))
	})

	It("truncates long strings with an ellipsis", func() {
		Expect(utils.Truncate("abcdefgh", 4)).To(Equal("abcd..."))
	})

	It("never splits a multi-byte rune at the cut", func() {
		out := utils.Truncate("Prüfablauf für Diagnose", 3)
		Expect(utf8.ValidString(out)).To(BeTrue())
		Expect(out).To(Equal("Pr..."))
	})
})
