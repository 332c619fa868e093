package document

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arqalabs/arqa/pkg/chunk"
)

// DBC grammar subset: message definitions and their signal lines.
//
//	BO_ 416 BrakeStatus: 8 ABS
//	 SG_ BrakePressure : 0|16@1+ (0.1,0) [0|6553.5] "kPa" ECU1
var (
	dbcMessageRe = regexp.MustCompile(`^BO_\s+(\d+)\s+(\w+)\s*:\s*(\d+)\s+(\w+)`)
	dbcSignalRe  = regexp.MustCompile(`^\s+SG_\s+(\w+)\s*(?:m\d+|M)?\s*:\s*(\d+)\|(\d+)@([01])([+-])\s*\(([^,]+),([^)]+)\)\s*\[([^|]*)\|([^\]]*)\]\s*"([^"]*)"`)
)

// loadDBC parses a CAN database file. Every message becomes one block holding
// the message header and a rendered line per signal, so a chunk carries a
// complete frame definition.
func loadDBC(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	doc := &Document{
		Path: path,
		Name: filepath.Base(path),
	}

	var current *strings.Builder
	flush := func() {
		if current != nil {
			doc.Blocks = append(doc.Blocks, Block{
				Text: current.String(),
				Kind: chunk.KindMessage,
			})
			current = nil
		}
	}

	sawMessage := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := dbcMessageRe.FindStringSubmatch(line); m != nil {
			flush()
			sawMessage = true
			frameID, _ := strconv.ParseUint(m[1], 10, 64)
			current = &strings.Builder{}
			fmt.Fprintf(current, "Message: %s (ID: 0x%x)\nSignals:", m[2], frameID)
			continue
		}

		if m := dbcSignalRe.FindStringSubmatch(line); m != nil && current != nil {
			byteOrder := "Motorola"
			if m[4] == "1" {
				byteOrder = "Intel"
			}
			valueType := "Unsigned"
			if m[5] == "-" {
				valueType = "Signed"
			}
			fmt.Fprintf(current,
				"\n - %s: start_bit=%s, length=%s, byte_order=%s, value_type=%s, scale=%s, offset=%s, min=%s, max=%s, unit=%s",
				m[1], m[2], m[3], byteOrder, valueType,
				strings.TrimSpace(m[6]), strings.TrimSpace(m[7]),
				strings.TrimSpace(m[8]), strings.TrimSpace(m[9]), m[10],
			)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %v", ErrMalformed, path, err)
	}
	if !sawMessage {
		return nil, fmt.Errorf("%w: %s contains no message definitions", ErrMalformed, path)
	}

	return doc, nil
}
