package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrinters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	PrintTitle(&buf, "Effects")
	PrintKV(&buf, "tempo", 120)
	PrintError(&buf, errors.New("no device"))

	out := buf.String()
	for _, want := range []string{"Effects", "tempo:", "120", "Error:", "no device"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q lacks %q", out, want)
		}
	}
}
