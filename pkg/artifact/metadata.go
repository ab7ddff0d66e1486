package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// MetadataFields are the fields interpolated into metadata.xml.
type MetadataFields struct {
	ProgramFile  string
	ProgramHash  string
	CreationTime string
}

const metadataTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE test-metadata PUBLIC "+//IDN sosy-lab.org//DTD test-format metadata 1.1//EN" "https://sosy-lab.org/test-format/metadata-1.1.dtd">
<test-metadata>
<sourcecodelang>C</sourcecodelang>
<producer>Legion</producer>
<specification>CHECK( LTL(G ! call(__VERIFIER_error())) )</specification>
<programfile>%s</programfile>
<programhash>%s</programhash>
<entryfunction>main</entryfunction>
<architecture>32bit</architecture>
<creationtime>%s</creationtime>
</test-metadata>
`

// HashSource returns the hex-encoded SHA-256 digest of a source file, as
// required by metadata.xml's programhash field.
func HashSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WriteMetadata writes the per-run metadata.xml file.
func WriteMetadata(path, programFile string) error {
	hash, err := HashSource(programFile)
	if err != nil {
		return err
	}
	fields := MetadataFields{
		ProgramFile:  programFile,
		ProgramHash:  hash,
		CreationTime: time.Now().Format("2006-01-02T15:04:05-0700"),
	}
	body := fmt.Sprintf(metadataTemplate, fields.ProgramFile, fields.ProgramHash, fields.CreationTime)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("write metadata.xml: %w", err)
	}
	return nil
}
