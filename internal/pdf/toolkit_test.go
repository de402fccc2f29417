package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page document with a correct xref table.
func minimalPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestValidateAcceptsWellFormedPDF(t *testing.T) {
	p := writeFile(t, "clarinet.pdf", minimalPDF())
	pages, err := NewToolkit(nil).Validate(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestValidateRejections(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    func() string
		maxSize int64
		reason  string
	}{
		{"missing", func() string { return filepath.Join(dir, "nope.pdf") }, 0, ReasonMissing},
		{"directory", func() string {
			p := filepath.Join(dir, "folder.pdf")
			require.NoError(t, os.Mkdir(p, 0o755))
			return p
		}, 0, ReasonNotRegular},
		{"extension", func() string { return writeFile(t, "scan.txt", minimalPDF()) }, 0, ReasonExtension},
		{"empty", func() string { return writeFile(t, "empty.pdf", nil) }, 0, ReasonEmpty},
		{"too large", func() string { return writeFile(t, "big.pdf", minimalPDF()) }, 16, ReasonTooLarge},
		{"garbage", func() string { return writeFile(t, "junk.pdf", []byte("this is not a pdf at all")) }, 0, ReasonCorrupt},
	}
	tk := NewToolkit(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tk.Validate(tt.path(), tt.maxSize)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
			assert.ErrorIs(t, err, ErrInvalidPDF)
		})
	}
}

func TestCompressWritesIntoTempDir(t *testing.T) {
	src := writeFile(t, "score.pdf", minimalPDF())
	tmp := t.TempDir()

	out, err := NewToolkit(nil).Compress(context.Background(), src, tmp)
	require.NoError(t, err)
	assert.Equal(t, tmp, filepath.Dir(out))

	pages, err := NewToolkit(nil).Validate(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestCompressHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewToolkit(nil).Compress(ctx, "unused.pdf", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLabelKeepsDocumentValid(t *testing.T) {
	p := writeFile(t, "horn.pdf", minimalPDF())
	tk := NewToolkit(nil)

	require.NoError(t, tk.Label(p, map[string]string{"Instrument": "Horn", "Part": "1st", "Key": ""}))
	assert.NoFileExists(t, p+".label.tmp")

	pages, err := tk.Validate(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestLabelWithNoPropertiesIsNoop(t *testing.T) {
	p := writeFile(t, "horn.pdf", minimalPDF())
	before, _ := os.ReadFile(p)
	require.NoError(t, NewToolkit(nil).Label(p, map[string]string{"Key": " "}))
	after, _ := os.ReadFile(p)
	assert.Equal(t, before, after)
}
