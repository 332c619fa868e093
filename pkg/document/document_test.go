package document_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arqalabs/arqa/pkg/chunk"
	"github.com/arqalabs/arqa/pkg/document"
)

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("rejects unsupported extensions", func() {
		_, err := document.Load(filepath.Join(dir, "firmware.bin"))
		Expect(err).To(MatchError(document.ErrUnsupportedFormat))
	})

	It("loads a text file as a single paragraph block", func() {
		path := writeFile(dir, "notes.txt", "CAN bus arbitration uses dominant bits.")

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Name).To(Equal("notes.txt"))
		Expect(doc.Blocks).To(HaveLen(1))
		Expect(doc.Blocks[0].Kind).To(Equal(chunk.KindParagraph))
		Expect(doc.Blocks[0].Text).To(ContainSubstring("dominant bits"))
	})

	It("loads markdown with headings intact for the segmenter", func() {
		path := writeFile(dir, "guide.md", "# Diagnostics\n\nUDS services overview.")

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Blocks).To(HaveLen(1))
		Expect(doc.Blocks[0].Text).To(HavePrefix("# Diagnostics"))
	})

	It("propagates read failures for missing files", func() {
		_, err := document.Load(filepath.Join(dir, "missing.txt"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("DBC loading", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	const dbcContent = `VERSION ""

BO_ 416 BrakeStatus: 8 ABS
 SG_ BrakePressure : 0|16@1+ (0.1,0) [0|6553.5] "kPa" ECU1
 SG_ BrakeActive : 16|1@0- (1,0) [0|1] "" ECU1

BO_ 832 EngineData: 8 ECM
 SG_ EngineSpeed : 0|16@1+ (0.25,0) [0|16383.75] "rpm" Vector__XXX
`

	It("renders one message block per frame", func() {
		path := writeFile(dir, "chassis.dbc", dbcContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Blocks).To(HaveLen(2))
		Expect(doc.Blocks[0].Kind).To(Equal(chunk.KindMessage))
		Expect(doc.Blocks[1].Kind).To(Equal(chunk.KindMessage))
	})

	It("renders the message header with a hex frame ID", func() {
		path := writeFile(dir, "chassis.dbc", dbcContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Blocks[0].Text).To(HavePrefix("Message: BrakeStatus (ID: 0x1a0)"))
		Expect(doc.Blocks[1].Text).To(HavePrefix("Message: EngineData (ID: 0x340)"))
	})

	It("renders signal attributes including byte order and value type", func() {
		path := writeFile(dir, "chassis.dbc", dbcContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())

		text := doc.Blocks[0].Text
		Expect(text).To(ContainSubstring("BrakePressure: start_bit=0, length=16, byte_order=Intel, value_type=Unsigned, scale=0.1, offset=0, min=0, max=6553.5, unit=kPa"))
		Expect(text).To(ContainSubstring("BrakeActive: start_bit=16, length=1, byte_order=Motorola, value_type=Signed"))
	})

	It("rejects files with no message definitions", func() {
		path := writeFile(dir, "empty.dbc", "VERSION \"\"\n\nNS_ :\n")

		_, err := document.Load(path)
		Expect(err).To(MatchError(document.ErrMalformed))
	})
})

var _ = Describe("ARXML loading", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	const arxmlContent = `<?xml version="1.0" encoding="UTF-8"?>
<AUTOSAR xmlns="http://autosar.org/schema/r4.0">
  <AR-PACKAGES>
    <AR-PACKAGE>
      <SHORT-NAME>ComStack</SHORT-NAME>
      <DESC>Communication stack configuration</DESC>
    </AR-PACKAGE>
  </AR-PACKAGES>
</AUTOSAR>
`

	It("extracts one block per text-bearing element with its path", func() {
		path := writeFile(dir, "ecu.arxml", arxmlContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())

		texts := make([]string, len(doc.Blocks))
		for i, b := range doc.Blocks {
			texts[i] = b.Text
			Expect(b.Kind).To(Equal(chunk.KindArxml))
		}
		Expect(texts).To(ContainElement("AUTOSAR/AR-PACKAGES/AR-PACKAGE/SHORT-NAME: ComStack"))
		Expect(texts).To(ContainElement("AUTOSAR/AR-PACKAGES/AR-PACKAGE/DESC: Communication stack configuration"))
	})

	It("strips XML namespaces from element paths", func() {
		path := writeFile(dir, "ecu.arxml", arxmlContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		for _, b := range doc.Blocks {
			Expect(b.Text).ToNot(ContainSubstring("autosar.org"))
		}
	})

	It("skips elements that only contain children", func() {
		path := writeFile(dir, "ecu.arxml", arxmlContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		for _, b := range doc.Blocks {
			Expect(b.Text).ToNot(HavePrefix("AUTOSAR/AR-PACKAGES:"))
		}
	})

	It("rejects malformed XML", func() {
		path := writeFile(dir, "broken.arxml", "<AUTOSAR><SHORT-NAME>oops</AUTOSAR>")

		_, err := document.Load(path)
		Expect(err).To(MatchError(document.ErrMalformed))
	})
})

var _ = Describe("CDD loading", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	const cddContent = `<?xml version="1.0"?>
<CANDELA>
  <DIAGINST id="0x22" service="ReadDataByIdentifier">
    <NAME>VIN Read</NAME>
  </DIAGINST>
</CANDELA>
`

	It("extracts path, attributes and text per element", func() {
		path := writeFile(dir, "diag.cdd", cddContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())

		texts := make([]string, len(doc.Blocks))
		for i, b := range doc.Blocks {
			texts[i] = b.Text
			Expect(b.Kind).To(Equal(chunk.KindCdd))
		}
		Expect(texts).To(ContainElement("Path: CANDELA/DIAGINST/NAME\nAttributes: \nText: VIN Read"))
		Expect(texts).To(ContainElement("Path: CANDELA/DIAGINST\nAttributes: id=0x22, service=ReadDataByIdentifier\nText: "))
	})

	It("skips elements with neither text nor attributes", func() {
		path := writeFile(dir, "diag.cdd", cddContent)

		doc, err := document.Load(path)
		Expect(err).ToNot(HaveOccurred())
		for _, b := range doc.Blocks {
			Expect(b.Text).ToNot(HavePrefix("Path: CANDELA\n"))
		}
	})
})
