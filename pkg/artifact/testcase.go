// Package artifact persists the byproducts of a fuzzing run: the raw
// byte inputs that discovered new paths, and TEST-COMP compliant XML
// testcases plus their run-level metadata.xml, mirroring the way the
// teacher's reporting package persists JSON run reports to disk.
package artifact

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
)

const testcaseTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE testcase PUBLIC "+//IDN sosy-lab.org//DTD test-format testcase 1.1//EN" "https://sosy-lab.org/test-format/testcase-1.1.dtd">
<testcase>
<payload-from-stdout>
%s
</testcase>
`

// WriteTestcase writes a single TEST-COMP testcase file at path,
// inlining stdout between the payload tags of the DTD skeleton with
// HTML/XML special characters escaped.
func WriteTestcase(path string, stdout []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create testcase directory: %w", err)
	}
	body := fmt.Sprintf(testcaseTemplate, html.EscapeString(string(stdout)))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("write testcase %s: %w", path, err)
	}
	return nil
}
